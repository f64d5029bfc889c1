// Package governance implements the rule-based Governance Validator:
// given a constitution and a candidate artifact, it returns a list of
// structured Violations. An empty list means the artifact passes.
//
// Detection is pattern-predicate based, not LLM based, per spec.md §4.5.
// Four rule families run in a fixed order (leakage, secrets,
// required-sections, licensing) against every artifact the calling agent
// just produced.
package governance

import (
	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/runstate"
)

// Rule inspects one artifact and returns zero or more violations. kind
// tells the rule which artifact family it's looking at; most rules only
// fire for specific kinds and return nil otherwise.
type Rule func(kind runstate.ArtifactKind, name, text string, c *constitution.Constitution) []runstate.Violation

// Validator runs a fixed, ordered set of Rules against a candidate
// artifact.
type Validator struct {
	rules []Rule
}

// New returns a Validator with the required rule families registered in
// spec order: leakage, secrets, required-sections, licensing.
func New() *Validator {
	return &Validator{
		rules: []Rule{
			LeakageRule,
			SecretRule,
			RequiredSectionsRule,
			LicensingRule,
		},
	}
}

// Validate runs every registered rule against one artifact (kind, name,
// text) and returns the concatenation of every violation found, in rule
// registration order. An empty (possibly nil) slice means the artifact
// passes.
func (v *Validator) Validate(kind runstate.ArtifactKind, name, text string, c *constitution.Constitution) []runstate.Violation {
	var out []runstate.Violation
	for _, rule := range v.rules {
		out = append(out, rule(kind, name, text, c)...)
	}
	return out
}

// ValidateAll runs Validate over a batch of artifacts and groups the
// resulting violations by artifact name, matching the shape State.Violations
// expects.
func (v *Validator) ValidateAll(artifacts map[string]Artifact, c *constitution.Constitution) map[string][]runstate.Violation {
	out := map[string][]runstate.Violation{}
	for name, a := range artifacts {
		if vs := v.Validate(a.Kind, name, a.Text, c); len(vs) > 0 {
			out[name] = vs
		}
	}
	return out
}

// Artifact bundles the kind and text a caller wants validated under one
// name, for ValidateAll's batch form.
type Artifact struct {
	Kind runstate.ArtifactKind
	Text string
}

// Passes reports whether grouped (the output of ValidateAll) contains no
// violations at all.
func Passes(grouped map[string][]runstate.Violation) bool {
	return len(grouped) == 0
}
