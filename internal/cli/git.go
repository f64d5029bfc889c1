package cli

import (
	"context"
	"fmt"
	"os/exec"
)

// createBranch best-effort checks out a new branch named name at root. A
// failure (not a git repo, name collision, git not installed) is returned
// to the caller to warn about rather than treated as fatal — branch
// isolation is a convenience for the specify command, not a requirement for
// the run itself to proceed.
func createBranch(ctx context.Context, root, name string) error {
	cmd := exec.CommandContext(ctx, "git", "checkout", "-b", name)
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git checkout -b %s: %w (%s)", name, err, string(out))
	}
	return nil
}
