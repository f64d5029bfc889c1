package governance

import (
	"regexp"
	"strings"

	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/runstate"
)

// licensingHeadingPattern matches the constitution's own "## Licensing"
// heading (or "### Licensing"), case-insensitively.
var licensingHeadingPattern = regexp.MustCompile(`(?im)^#{2,3}\s+licensing\s*$`)

// licensingBulletPattern extracts each bullet line under the Licensing
// heading, treating it as the name of a disallowed license or dependency.
var licensingBulletPattern = regexp.MustCompile(`(?m)^\s*-\s+(.+?)\s*$`)

// anyHeadingPattern finds the next top-level heading after Licensing's, so
// the section body can be bounded to just its own bullets.
var anyHeadingPattern = regexp.MustCompile(`(?m)^#{2,3}\s+.+$`)

// LicensingRule only runs when the constitution declares a heading matching
// "Licensing" (case-insensitive); absence of that heading means zero
// licensing violations are possible, never a crash. When present, each
// bulleted entry under the heading is treated as a disallowed license or
// dependency name; a case-insensitive match anywhere in the artifact text
// is a violation.
func LicensingRule(kind runstate.ArtifactKind, name, text string, c *constitution.Constitution) []runstate.Violation {
	if c == nil {
		return nil
	}
	loc := licensingHeadingPattern.FindStringIndex(c.Text)
	if loc == nil {
		return nil
	}

	section := c.Text[loc[1]:]
	if next := anyHeadingPattern.FindStringIndex(section); next != nil {
		section = section[:next[0]]
	}

	disallowed := licensingBulletPattern.FindAllStringSubmatch(section, -1)
	if len(disallowed) == 0 {
		return nil
	}

	lowerText := strings.ToLower(text)
	var violations []runstate.Violation
	for _, m := range disallowed {
		entry := strings.ToLower(strings.TrimSpace(m[1]))
		if entry == "" {
			continue
		}
		if strings.Contains(lowerText, entry) {
			violations = append(violations, runstate.Violation{
				PrincipleID:  "built-in.licensing",
				Artifact:     name,
				Description:  "references disallowed license/dependency \"" + m[1] + "\"",
				SuggestedFix: "remove the dependency or choose one permitted by the constitution's Licensing section",
				Severity:     runstate.SeverityHigh,
			})
		}
	}
	return violations
}
