// Package checkpoint implements the durable Checkpoint Store: one
// JSON file per run under <root>/.acp/state/<run-id>.json, written with
// stable key ordering and atomic rename, migrated on load to the current
// schema version.
//
// The on-disk layout and atomic-write discipline are grounded on
// jmgilman-sow's cli/internal/statechart persistence.go (temp file + os.Rename
// in the same directory), adapted from YAML to JSON and from a single
// project-wide file to one file per run.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/acpctl/acp/internal/runstate"
)

// StateDir is the directory, relative to the project root, that holds one
// checkpoint file per run.
const StateDir = ".acp/state"

// CorruptedError is returned by Load/ByID when a targeted checkpoint file
// fails to parse as JSON or fails schema validation after migration. Per
// spec.md §7 this is fatal for the affected run but never for others: List
// skips corrupted files with a warning instead of failing.
type CorruptedError struct {
	RunID string
	Err   error
}

func (e *CorruptedError) Error() string {
	return fmt.Sprintf("corrupted checkpoint %s: %v", e.RunID, e.Err)
}

func (e *CorruptedError) Unwrap() error { return e.Err }

// NotFoundError is returned by ByID when no checkpoint exists for the given
// run id.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no checkpoint for run %q", e.RunID)
}

// file is the on-disk shape of one checkpoint: the exact top-level keys
// named in spec.md §6. Unknown top-level keys are ignored by json.Unmarshal
// (the reference design does not require forward-compatible passthrough).
type file struct {
	SchemaVersion string          `json:"schema_version"`
	Metadata      runstate.Run    `json:"metadata"`
	State         *runstate.State `json:"state"`
}

// Store durably persists and retrieves State plus per-run metadata, keyed
// by run id, under root's .acp/state directory.
type Store struct {
	root string
}

// New returns a Store rooted at root (the project directory containing
// .acp/).
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) dir() string {
	return filepath.Join(s.root, StateDir)
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.dir(), runID+".json")
}

// Save validates state, stamps metadata.UpdatedAt, preserves
// metadata.CreatedAt from the prior file if one exists, and writes the
// result atomically: a temp file in the state directory followed by
// os.Rename. A write that fails mid-way leaves no partial file, since the
// rename is the only step that makes the new content visible under the
// final name.
func (s *Store) Save(runID string, state *runstate.State, metadata runstate.Run) (runstate.Run, error) {
	if err := runstate.Validate(state); err != nil {
		return runstate.Run{}, err
	}
	if err := runstate.ValidateStatus(state, metadata.Status); err != nil {
		return runstate.Run{}, err
	}

	if prior, _, err := s.ByID(runID); err == nil {
		metadata.CreatedAt = prior.CreatedAt
	}
	metadata.UpdatedAt = now()

	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return runstate.Run{}, fmt.Errorf("checkpoint: creating state dir: %w", err)
	}

	payload := file{
		SchemaVersion: runstate.CurrentSchemaVersion,
		Metadata:      metadata,
		State:         state,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return runstate.Run{}, fmt.Errorf("checkpoint: marshal: %w", err)
	}

	finalPath := s.path(runID)
	tmp, err := os.CreateTemp(s.dir(), runID+".*.tmp")
	if err != nil {
		return runstate.Run{}, fmt.Errorf("checkpoint: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return runstate.Run{}, fmt.Errorf("checkpoint: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return runstate.Run{}, fmt.Errorf("checkpoint: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return runstate.Run{}, fmt.Errorf("checkpoint: rename temp file: %w", err)
	}

	return metadata, nil
}

// Load reads the checkpoint for runID, migrates it to the current schema
// version if needed, and validates the result. migrated reports whether any
// migrator ran.
func (s *Store) Load(runID string) (state *runstate.State, metadata runstate.Run, migrated bool, err error) {
	raw, err := os.ReadFile(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, runstate.Run{}, false, &NotFoundError{RunID: runID}
		}
		return nil, runstate.Run{}, false, &CorruptedError{RunID: runID, Err: err}
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, runstate.Run{}, false, &CorruptedError{RunID: runID, Err: err}
	}

	migratedGeneric, migrated, err := Migrate(generic)
	if err != nil {
		return nil, runstate.Run{}, false, &CorruptedError{RunID: runID, Err: err}
	}

	migratedRaw, err := json.Marshal(migratedGeneric)
	if err != nil {
		return nil, runstate.Run{}, false, &CorruptedError{RunID: runID, Err: err}
	}

	var f file
	if err := json.Unmarshal(migratedRaw, &f); err != nil {
		return nil, runstate.Run{}, false, &CorruptedError{RunID: runID, Err: err}
	}

	if err := runstate.Validate(f.State); err != nil {
		return nil, runstate.Run{}, false, &CorruptedError{RunID: runID, Err: err}
	}

	return f.State, f.Metadata, migrated, nil
}

// ByID is an exact lookup equivalent to Load, returning only state and
// metadata for callers that don't care whether migration occurred.
func (s *Store) ByID(runID string) (runstate.Run, *runstate.State, error) {
	state, metadata, _, err := s.Load(runID)
	return metadata, state, err
}

// List enumerates every checkpoint file, sorted by UpdatedAt descending.
// A file that fails to read or parse is skipped with a warning rather than
// making the whole listing fail.
func (s *Store) List() ([]runstate.Run, []string) {
	entries, err := os.ReadDir(s.dir())
	if err != nil {
		return nil, nil
	}

	var runs []runstate.Run
	var warnings []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		runID := entry.Name()[:len(entry.Name())-len(".json")]
		_, metadata, _, err := s.Load(runID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", entry.Name(), err))
			continue
		}
		runs = append(runs, metadata)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].UpdatedAt.After(runs[j].UpdatedAt)
	})

	return runs, warnings
}

// Latest returns the run id of the most recently updated checkpoint, or
// ("", false) if none exist.
func (s *Store) Latest() (string, bool) {
	runs, _ := s.List()
	if len(runs) == 0 {
		return "", false
	}
	return runs[0].ID, true
}

// now is a package-level hook so tests can fake the clock without touching
// every call site.
var now = func() time.Time { return time.Now().UTC() }
