package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acpctl/acp/internal/checkpoint"
	"github.com/acpctl/acp/internal/constitution"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the .acp/ project structure",
		Long: `Creates .acp/templates/constitution.md (a starter constitution, if one
does not already exist) and .acp/state/ (the checkpoint directory), and
appends .acp/ to .gitignore if it is not already listed.

Running init against an already-initialized project is a no-op: it never
overwrites an existing constitution and never errors.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := AppFromContext(cmd.Context())
			return runInit(app, cmd)
		},
	}
	return cmd
}

func runInit(app *App, cmd *cobra.Command) error {
	templatesDir := filepath.Join(app.Root, filepath.Dir(constitution.TemplatePath))
	if err := os.MkdirAll(templatesDir, 0o755); err != nil {
		return fmt.Errorf("cli: creating %s: %w", templatesDir, err)
	}
	if err := os.MkdirAll(filepath.Join(app.Root, checkpoint.StateDir), 0o755); err != nil {
		return fmt.Errorf("cli: creating %s: %w", checkpoint.StateDir, err)
	}

	constitutionPath := filepath.Join(app.Root, constitution.TemplatePath)
	wroteConstitution := false
	if _, err := os.Stat(constitutionPath); os.IsNotExist(err) {
		if err := os.WriteFile(constitutionPath, []byte(constitution.Starter), 0o644); err != nil {
			return fmt.Errorf("cli: writing starter constitution: %w", err)
		}
		wroteConstitution = true
	} else if err != nil {
		return fmt.Errorf("cli: checking %s: %w", constitutionPath, err)
	}

	appendedGitignore, err := ensureGitignoreEntry(app.Root, ".acp/")
	if err != nil {
		return err
	}

	if !app.Quiet {
		cmd.Println("✓ .acp/ initialized")
		if wroteConstitution {
			cmd.Println("  wrote starter constitution.md")
		}
		if appendedGitignore {
			cmd.Println("  appended .acp/ to .gitignore")
		}
	}
	return nil
}

// ensureGitignoreEntry appends entry to <root>/.gitignore, creating the
// file if needed, unless entry is already present on its own line.
func ensureGitignoreEntry(root, entry string) (bool, error) {
	path := filepath.Join(root, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("cli: reading .gitignore: %w", err)
	}

	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == strings.TrimSuffix(entry, "/") || strings.TrimSpace(line) == entry {
			return false, nil
		}
	}

	content := string(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("cli: writing .gitignore: %w", err)
	}
	return true, nil
}
