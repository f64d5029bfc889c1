package governance

import (
	"regexp"
	"strings"

	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/runstate"
)

// secretPatterns detect common secret shapes: long hex strings, high-entropy
// provider-prefixed API keys, and obvious key/password assignments.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[0-9a-fA-F]{32,}\b`),                                    // long hex (hashes, raw keys)
	regexp.MustCompile(`\bsk-[A-Za-z0-9]{16,}\b`),                                 // "sk-..." style API keys
	regexp.MustCompile(`(?i)\b(API_KEY|SECRET_KEY|PASSWORD|ACCESS_TOKEN)\s*[:=]\s*['"]?[^\s'"]{6,}`), // obvious assignments
}

// SecretRule flags patterns shaped like common secrets in generated code.
// Any match is a critical violation: the Implementation agent must never
// emit a literal credential.
func SecretRule(kind runstate.ArtifactKind, name, text string, _ *constitution.Constitution) []runstate.Violation {
	if kind != runstate.ArtifactCode && kind != runstate.ArtifactTest {
		return nil
	}

	lines := strings.Split(text, "\n")
	var violations []runstate.Violation
	for i, line := range lines {
		for _, pattern := range secretPatterns {
			if pattern.MatchString(line) {
				violations = append(violations, runstate.Violation{
					PrincipleID:  "built-in.secret-detection",
					Artifact:     name,
					Line:         i + 1,
					Description:  "line matches the shape of a hardcoded secret",
					SuggestedFix: "load the value from configuration or a secret store instead of embedding it",
					Severity:     runstate.SeverityCritical,
				})
				break
			}
		}
	}
	return violations
}
