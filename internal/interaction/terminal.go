package interaction

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/acpctl/acp/graph/emit"
	"github.com/acpctl/acp/internal/runstate"
)

// Terminal is the interactive binding: it reads answers from In and writes
// prompts/announcements to Out, following the plain-text, key=value-ish
// formatting graph/emit.LogEmitter uses for progress output.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminal returns a Terminal bound to the given reader/writer.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: in, Out: out}
}

// Ask prints each question in order and blocks for an answer to each,
// enforcing non-empty answers before moving on. All-or-nothing: if reading
// any answer fails, the whole call fails and no partial answer set is
// returned.
func (t *Terminal) Ask(questions []runstate.PreflightQuestion) ([]runstate.Answer, error) {
	reader := bufio.NewReader(t.In)
	answers := make([]runstate.Answer, 0, len(questions))

	for _, q := range questions {
		fmt.Fprintf(t.Out, "[%d] %s\n", q.Index, q.Text)
		if q.Context != "" {
			fmt.Fprintf(t.Out, "    %s\n", q.Context)
		}
		fmt.Fprint(t.Out, "> ")

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("interaction: reading answer to question %d: %w", q.Index, err)
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			return nil, fmt.Errorf("interaction: empty answer to question %d", q.Index)
		}
		answers = append(answers, runstate.Answer(answer))
	}

	return answers, nil
}

// Announce prints a one-line progress notification.
func (t *Terminal) Announce(event emit.Event) {
	if event.NodeID != "" {
		fmt.Fprintf(t.Out, "[%s] %s\n", event.NodeID, event.Msg)
	} else {
		fmt.Fprintf(t.Out, "%s\n", event.Msg)
	}
}

// ReportViolations prints every violation, most severe first (callers are
// expected to have already sorted; this just renders in the given order).
func (t *Terminal) ReportViolations(violations []runstate.Violation) {
	if len(violations) == 0 {
		fmt.Fprintln(t.Out, "governance: no violations")
		return
	}
	fmt.Fprintf(t.Out, "governance: %d violation(s) found\n", len(violations))
	for _, v := range violations {
		loc := v.Artifact
		if v.Line > 0 {
			loc = fmt.Sprintf("%s:%d", v.Artifact, v.Line)
		}
		fmt.Fprintf(t.Out, "  [%s] %s — %s\n", v.Severity, loc, v.Description)
		if v.SuggestedFix != "" {
			fmt.Fprintf(t.Out, "      fix: %s\n", v.SuggestedFix)
		}
	}
}

// Remediate prompts for one of regenerate/edit_constitution/abort/ignore.
func (t *Terminal) Remediate(violations []runstate.Violation) (Remediation, error) {
	t.ReportViolations(violations)
	fmt.Fprint(t.Out, "remediate? [regenerate/edit_constitution/abort/ignore]: ")

	reader := bufio.NewReader(t.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("interaction: reading remediation choice: %w", err)
	}
	choice := Remediation(strings.TrimSpace(line))
	switch choice {
	case Regenerate, EditConstitution, Abort, Ignore:
		return choice, nil
	default:
		return "", fmt.Errorf("interaction: unrecognized remediation choice %q", choice)
	}
}
