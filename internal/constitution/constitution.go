// Package constitution loads and structurally validates the project-local
// governing principles document at <root>/.acp/templates/constitution.md.
package constitution

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// TemplatePath is the project-relative location of the constitution file.
const TemplatePath = ".acp/templates/constitution.md"

// RequiredSections are the top-level headings every constitution must
// contain. Projects may add their own principle headings alongside these;
// only these two are structurally required.
var RequiredSections = []string{"Core Principles", "Quality Standards"}

// NotFoundError is returned by Load when the constitution file is absent.
// It carries a remediation hint per spec.md §4.4: run the initialization
// step.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("constitution not found at %s (run `acp init` first)", e.Path)
}

// MissingSectionsError is returned when the file exists but is missing one
// or more required sections.
type MissingSectionsError struct {
	Missing []string
}

func (e *MissingSectionsError) Error() string {
	return fmt.Sprintf("constitution is missing required section(s): %s", strings.Join(e.Missing, ", "))
}

// Constitution is the loaded principles document: its full text plus the
// parsed list of ## and ### principle headings, in document order.
type Constitution struct {
	Text     string
	Headings []string
}

// HasSection reports whether name matches one of the constitution's
// headings case- and whitespace-insensitively.
func (c *Constitution) HasSection(name string) bool {
	for _, h := range c.Headings {
		if normalizeHeading(h) == normalizeHeading(name) {
			return true
		}
	}
	return false
}

var headingPattern = regexp.MustCompile(`(?m)^#{2,3}\s+(.+?)\s*$`)

// markdownSections extracts every ##/### heading's text, in document
// order. This is the same helper the Governance Validator's
// required-sections rule uses, so the two share one notion of "a section".
func markdownSections(text string) []string {
	matches := headingPattern.FindAllStringSubmatch(text, -1)
	sections := make([]string, 0, len(matches))
	for _, m := range matches {
		sections = append(sections, m[1])
	}
	return sections
}

func normalizeHeading(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Load reads and structurally validates the constitution file rooted at
// root. A missing file is a typed NotFoundError; a present file lacking a
// required section is a typed MissingSectionsError.
func Load(root string) (*Constitution, error) {
	path := filepath.Join(root, TemplatePath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("constitution: reading %s: %w", path, err)
	}

	text := string(data)
	headings := markdownSections(text)

	c := &Constitution{Text: text, Headings: headings}

	var missing []string
	for _, required := range RequiredSections {
		if !c.HasSection(required) {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingSectionsError{Missing: missing}
	}

	return c, nil
}

// MarkdownSections is exported for the governance package's
// required-sections rule, which shares this exact heading-parsing logic per
// SPEC_FULL.md's implementation notes.
func MarkdownSections(text string) []string {
	return markdownSections(text)
}
