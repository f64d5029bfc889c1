package checkpoint

import (
	"os"
	"testing"
	"time"

	"github.com/acpctl/acp/internal/runstate"
)

func newValidState() *runstate.State {
	s := runstate.New()
	s.Constitution.Text = "# Constitution"
	s.Constitution.GovernancePasses = true
	s.Spec.Spec = "# Spec"
	s.Control.Phase = runstate.PhaseSpecify
	return s
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	state := newValidState()
	run := runstate.NewRun(1, "add oauth2 authentication", time.Unix(0, 0).UTC())

	saved, err := store.Save(run.ID, state, run)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.CreatedAt != run.CreatedAt {
		t.Errorf("CreatedAt changed on first save: got %v want %v", saved.CreatedAt, run.CreatedAt)
	}

	loadedState, loadedMeta, migrated, err := store.Load(run.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if migrated {
		t.Error("expected no migration for a freshly-written v1.0.0 checkpoint")
	}
	if loadedMeta.ID != run.ID {
		t.Errorf("RunID mismatch: got %q want %q", loadedMeta.ID, run.ID)
	}
	if loadedState.Spec.Spec != state.Spec.Spec {
		t.Errorf("spec text mismatch after round-trip")
	}
}

func TestSavePreservesCreatedAtAcrossRewrites(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	state := newValidState()
	run := runstate.NewRun(1, "add oauth2", time.Unix(100, 0).UTC())

	if _, err := store.Save(run.ID, state, run); err != nil {
		t.Fatalf("Save 1: %v", err)
	}

	run2 := run
	run2.CreatedAt = time.Unix(999999, 0).UTC() // caller passes a bogus CreatedAt
	saved2, err := store.Save(run.ID, state, run2)
	if err != nil {
		t.Fatalf("Save 2: %v", err)
	}
	if !saved2.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt was overwritten on rewrite: got %v want %v", saved2.CreatedAt, run.CreatedAt)
	}
}

func TestSaveRejectsInvalidState(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	state := runstate.New()
	state.Planning.Plan = "# Plan" // I2 violation: plan without spec
	run := runstate.NewRun(1, "bad state", time.Now())

	if _, err := store.Save(run.ID, state, run); err == nil {
		t.Fatal("expected Save to reject a state that fails Validate")
	}
}

func TestLoadOfMissingRunReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	_, _, _, err := store.Load("999-does-not-exist")
	var nf *NotFoundError
	if err == nil {
		t.Fatal("expected an error for a missing run")
	}
	if !isNotFound(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
}

func isNotFound(err error, target **NotFoundError) bool {
	if nf, ok := err.(*NotFoundError); ok {
		*target = nf
		return true
	}
	return false
}

func TestLoadOfCorruptedFileReturnsCorruptedError(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := os.MkdirAll(store.dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.path("001-corrupt"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := store.Load("001-corrupt")
	if _, ok := err.(*CorruptedError); !ok {
		t.Fatalf("expected *CorruptedError, got %T: %v", err, err)
	}
}

func TestListSkipsCorruptedFilesWithoutFailing(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	good := newValidState()
	run := runstate.NewRun(1, "good run", time.Now())
	if _, err := store.Save(run.ID, good, run); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(store.path("002-corrupt"), []byte("not json at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	runs, warnings := store.List()
	if len(runs) != 1 {
		t.Fatalf("expected 1 listed run, got %d", len(runs))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning for the corrupted file, got %d", len(warnings))
	}
}

func TestListSortsByUpdatedAtDescending(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	older := runstate.NewRun(1, "older run", time.Unix(100, 0).UTC())
	newer := runstate.NewRun(2, "newer run", time.Unix(200, 0).UTC())

	if _, err := store.Save(older.ID, newValidState(), older); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(newer.ID, newValidState(), newer); err != nil {
		t.Fatal(err)
	}

	runs, _ := store.List()
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != newer.ID {
		t.Errorf("expected most recently updated run first, got %q", runs[0].ID)
	}
}

func TestLatestReturnsHeadOfList(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	run := runstate.NewRun(1, "only run", time.Now())
	if _, err := store.Save(run.ID, newValidState(), run); err != nil {
		t.Fatal(err)
	}

	id, ok := store.Latest()
	if !ok || id != run.ID {
		t.Fatalf("expected Latest to return %q, got %q (ok=%v)", run.ID, id, ok)
	}
}

func TestSaveRejectsInProgressAtMaxRetries(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	state := newValidState()
	state.Control.ErrorCount = runstate.MaxRetries
	run := runstate.NewRun(1, "maxed out", time.Now())
	run.Status = runstate.StatusInProgress

	if _, err := store.Save(run.ID, state, run); err == nil {
		t.Fatal("expected Save to reject in_progress status at MaxRetries")
	}
}
