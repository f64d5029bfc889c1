package cli

import (
	"errors"
	"os"

	"github.com/acpctl/acp/internal/checkpoint"
)

// Exit codes, per spec.md §6/§7: 0 success, 1 user-level failure
// (governance exhausted, aborted run, bad/duplicate run id, missing
// constitution, unresolved pre-flight), 2 engine/internal error (corrupted
// checkpoint with no migration path, filesystem errors).
const (
	ExitOK       = 0
	ExitUser     = 1
	ExitInternal = 2
)

// exitCode classifies err into one of the three codes above. Only
// corrupted-checkpoint and filesystem errors are internal; everything else
// — including an exhausted retry loop, a failed governance pass, or a
// missing/malformed constitution — is a user-level failure the operator can
// act on directly.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var corrupted *checkpoint.CorruptedError
	if errors.As(err, &corrupted) {
		return ExitInternal
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return ExitInternal
	}

	return ExitUser
}
