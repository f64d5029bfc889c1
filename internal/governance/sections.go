package governance

import (
	"strings"

	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/runstate"
)

// requiredSections declares, per artifact kind, the top-level headings that
// must be present. Kinds not listed (research, quickstart, contract, code,
// test) have no required-section schema.
var requiredSections = map[runstate.ArtifactKind][]string{
	runstate.ArtifactSpec:      {"User Scenarios", "Requirements", "Success Criteria"},
	runstate.ArtifactPlan:      {"Technical Context", "Phases"},
	runstate.ArtifactDataModel: {"Entities"},
}

// RequiredSectionsRule flags any required heading missing from an
// artifact's text. It shares markdownSections/HasSection parsing with the
// constitution loader, so "a section" means the same thing in both places.
func RequiredSectionsRule(kind runstate.ArtifactKind, name, text string, _ *constitution.Constitution) []runstate.Violation {
	required, ok := requiredSections[kind]
	if !ok {
		return nil
	}

	present := map[string]bool{}
	for _, h := range constitution.MarkdownSections(text) {
		present[normalize(h)] = true
	}

	var violations []runstate.Violation
	for _, section := range required {
		if !present[normalize(section)] {
			violations = append(violations, runstate.Violation{
				PrincipleID:  "built-in.required-sections",
				Artifact:     name,
				Description:  "missing required section \"" + section + "\"",
				SuggestedFix: "add a \"## " + section + "\" section",
				Severity:     runstate.SeverityMedium,
			})
		}
	}
	return violations
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
