package constitution

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConstitution(t *testing.T, root, text string) {
	t.Helper()
	path := filepath.Join(root, TemplatePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingFileReturnsNotFoundError(t *testing.T) {
	_, err := Load(t.TempDir())
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
}

func TestLoadMissingSectionsReturnsTypedError(t *testing.T) {
	root := t.TempDir()
	writeConstitution(t, root, "# Project Constitution\n\n## Core Principles\n\nsomething\n")

	_, err := Load(root)
	mse, ok := err.(*MissingSectionsError)
	if !ok {
		t.Fatalf("expected *MissingSectionsError, got %T: %v", err, err)
	}
	if len(mse.Missing) != 1 || mse.Missing[0] != "Quality Standards" {
		t.Fatalf("got missing=%v", mse.Missing)
	}
}

func TestLoadValidConstitutionParsesHeadings(t *testing.T) {
	root := t.TempDir()
	writeConstitution(t, root, Starter)

	c, err := Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.HasSection("core principles") {
		t.Error("expected case-insensitive section match for Core Principles")
	}
	if !c.HasSection("  Quality   Standards ") {
		t.Error("expected whitespace-tolerant section match")
	}
	if c.HasSection("Licensing") {
		t.Error("Starter should not declare a Licensing section")
	}
}

func TestLoadAcceptsExtraUserDefinedHeadings(t *testing.T) {
	root := t.TempDir()
	writeConstitution(t, root, Starter+"\n## Licensing\n\nMIT only.\n")

	c, err := Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.HasSection("Licensing") {
		t.Error("expected Licensing heading to be parsed")
	}
}
