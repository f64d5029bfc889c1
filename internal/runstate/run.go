package runstate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunIDPattern is the normative shape of a run id: a zero-padded three-digit
// ordinal followed by a lowercase, hyphen-separated slug.
var RunIDPattern = regexp.MustCompile(`^[0-9]{3}-[a-z0-9]+(-[a-z0-9]+)*$`)

// MaxSlugLength bounds the slug portion of a run id (ordinal and its
// trailing hyphen are not counted). This is the open question from §9
// resolved by this implementation: 60 characters, truncated at a word
// boundary where possible.
const MaxSlugLength = 60

// Run is a single feature workflow: its identity, descriptive metadata, and
// lifecycle status. A Run's ID is assigned once and is immutable; CreatedAt
// is preserved across every checkpoint rewrite.
type Run struct {
	ID              string    `json:"run_id"`
	Name            string    `json:"name"`
	ThreadID        string    `json:"thread_id"`
	Phase           Phase     `json:"phase"`
	PhasesCompleted []Phase   `json:"phases_completed"`
	Status          RunStatus `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	SpecPath        string    `json:"spec_path"`
}

// NewRun allocates a fresh Run for a feature description given the next
// free ordinal (callers obtain the ordinal from the artifact store, which
// owns filesystem-based id allocation). now is injected so callers control
// the clock.
func NewRun(ordinal int, description string, now time.Time) Run {
	slug := Slugify(description)
	id := fmt.Sprintf("%03d-%s", ordinal, slug)
	return Run{
		ID:              id,
		Name:            slug,
		ThreadID:        uuid.NewString(),
		Phase:           PhaseInit,
		PhasesCompleted: nil,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		SpecPath:        "",
	}
}

var (
	nonWordRun   = regexp.MustCompile(`[^a-z0-9]+`)
	trimHyphenRe = regexp.MustCompile(`^-+|-+$`)
)

// Slugify derives the slug portion of a run id from a free-text feature
// description: lowercase, strip non-word characters, collapse whitespace to
// single hyphens, then truncate to MaxSlugLength at a word boundary where
// possible.
func Slugify(description string) string {
	lower := strings.ToLower(strings.TrimSpace(description))
	collapsed := nonWordRun.ReplaceAllString(lower, "-")
	collapsed = trimHyphenRe.ReplaceAllString(collapsed, "")
	if collapsed == "" {
		collapsed = "untitled"
	}
	return truncateSlug(collapsed, MaxSlugLength)
}

func truncateSlug(slug string, max int) string {
	if len(slug) <= max {
		return slug
	}
	cut := slug[:max]
	if idx := strings.LastIndexByte(cut, '-'); idx > 0 {
		cut = cut[:idx]
	}
	cut = trimHyphenRe.ReplaceAllString(cut, "")
	if cut == "" {
		cut = slug[:max]
	}
	return cut
}

// HasCompleted reports whether phase appears in PhasesCompleted.
func (r Run) HasCompleted(phase Phase) bool {
	for _, p := range r.PhasesCompleted {
		if p == phase {
			return true
		}
	}
	return false
}

// WithPhaseCompleted returns a copy of r with phase appended to
// PhasesCompleted if not already present.
func (r Run) WithPhaseCompleted(phase Phase) Run {
	if r.HasCompleted(phase) {
		return r
	}
	next := make([]Phase, len(r.PhasesCompleted), len(r.PhasesCompleted)+1)
	copy(next, r.PhasesCompleted)
	next = append(next, phase)
	r.PhasesCompleted = next
	return r
}
