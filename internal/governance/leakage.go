package governance

import (
	"regexp"
	"strings"

	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/runstate"
)

// leakageKeywords is the curated list of concrete languages, frameworks,
// databases, and cloud services a spec must not name. This list is
// intentionally small and auditable rather than exhaustive: a project can
// see and extend exactly what is checked, per SPEC_FULL.md's
// implementation notes.
var leakageKeywords = []string{
	"postgresql", "postgres", "mysql", "mongodb", "redis", "sqlite", "dynamodb",
	"cassandra", "elasticsearch", "kafka", "rabbitmq",
	"react", "vue", "angular", "django", "flask", "rails", "spring boot", "express.js",
	"golang", "python", "typescript", "javascript", "java", "rust", "kotlin", "ruby",
	"aws", "azure", "gcp", "google cloud", "lambda", "kubernetes", "docker",
	"graphql", "grpc", "rest api",
}

var leakagePattern = buildLeakagePattern()

func buildLeakagePattern() *regexp.Regexp {
	escaped := make([]string, len(leakageKeywords))
	for i, kw := range leakageKeywords {
		escaped[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// LeakageRule detects implementation leakage in a spec: a match against
// leakagePattern produces a violation keyed to the first offending line.
// Specs are meant to describe observable behavior, not implementation
// choices — those belong in the plan/architect phase.
func LeakageRule(kind runstate.ArtifactKind, name, text string, _ *constitution.Constitution) []runstate.Violation {
	if kind != runstate.ArtifactSpec {
		return nil
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if match := leakagePattern.FindString(line); match != "" {
			return []runstate.Violation{{
				PrincipleID:  "built-in.leakage",
				Artifact:     name,
				Line:         i + 1,
				Description:  "spec names a concrete implementation detail (" + match + "); specs must describe observable behavior, not languages, frameworks, databases, or cloud services",
				SuggestedFix: "rephrase in terms of what the system does, not how it is built",
				Severity:     runstate.SeverityHigh,
			}}
		}
	}
	return nil
}
