package checkpoint

import (
	"fmt"

	"github.com/acpctl/acp/internal/runstate"
)

// Migrator transforms a checkpoint's raw JSON dictionary from one schema
// version to the next. Migrators are pure functions on the generic map —
// per spec.md §4.2 they never reach back into the State Model's typed
// structs directly, so a schema change doesn't require recompiling the
// migration chain against the current Go types.
type Migrator func(map[string]interface{}) (map[string]interface{}, error)

// registry maps a *from* schema_version to the migrator that advances a
// checkpoint to the next version in the chain. Only the identity case
// exists today — no prior schema version was ever shipped — but the
// registry and Migrate's (result, migrated bool, err) signature are real so
// a future "0.9.0 -> 1.0.0" migrator has somewhere to live without changing
// any caller.
var registry = map[string]Migrator{}

// Migrate walks raw's schema_version through registry until it reaches
// checkpoint's current version, or returns an error if no migration path
// exists. migrated reports whether any migrator actually ran.
func Migrate(raw map[string]interface{}) (result map[string]interface{}, migrated bool, err error) {
	version, _ := raw["schema_version"].(string)
	if version == "" {
		return nil, false, fmt.Errorf("checkpoint: missing schema_version")
	}

	current := raw
	for current["schema_version"] != runstate.CurrentSchemaVersion {
		v, _ := current["schema_version"].(string)
		migrator, ok := registry[v]
		if !ok {
			return nil, migrated, fmt.Errorf("checkpoint: no migration path from schema_version %q", v)
		}
		current, err = migrator(current)
		if err != nil {
			return nil, migrated, fmt.Errorf("checkpoint: migrating from %q: %w", v, err)
		}
		migrated = true
	}

	return current, migrated, nil
}
