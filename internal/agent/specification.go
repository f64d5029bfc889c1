package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/acpctl/acp/internal/runstate"
)

// Specification implements the Specification agent (spec.md §4.6): first it
// generates up to ten pre-flight questions and pushes them through the
// Interaction Port as a single batch, then it synthesizes spec.md from the
// feature description and every collected answer.
//
// On regeneration after a governance failure, s.Spec.Clarifications is
// already populated, so the question sub-phase is skipped entirely — the
// agent never re-prompts.
func Specification(ctx context.Context, s *runstate.State, c Collaborators) (*runstate.State, error) {
	next := s.Clone()

	if len(next.Spec.Clarifications) == 0 {
		clarifications, err := collectClarifications(ctx, s.Spec.Description, c)
		if err != nil {
			return nil, err
		}
		next.Spec.Clarifications = clarifications
	}

	specText, err := synthesizeSpec(ctx, next.Spec.Description, next.Spec.Clarifications, c)
	if err != nil {
		return nil, err
	}
	next.Spec.Spec = specText

	if c.Artifacts != nil {
		if _, err := c.Artifacts.WriteSpec(c.RunID, specText); err != nil {
			return nil, fmt.Errorf("agent: writing spec.md: %w", err)
		}
	}

	next.Control.Phase = runstate.PhaseSpecify
	if err := runstate.Validate(next); err != nil {
		return nil, err
	}
	return next, nil
}

func collectClarifications(ctx context.Context, description string, c Collaborators) ([]runstate.Clarification, error) {
	prompt := "List up to ten numbered clarifying questions needed before writing a " +
		"specification for this feature. Only ask what is genuinely ambiguous.\n\nFeature: " + description

	raw, err := c.LLM.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("agent: generating pre-flight questions: %w", err)
	}

	questions := ParseQuestions(raw)
	if len(questions) == 0 {
		// No ambiguity worth asking about is a legitimate outcome; the
		// all-or-nothing Ask contract only applies when there is
		// something to ask.
		return nil, nil
	}

	answers, err := c.Port.Ask(questions)
	if err != nil {
		return nil, fmt.Errorf("agent: collecting pre-flight answers: %w", err)
	}
	if len(answers) != len(questions) {
		return nil, fmt.Errorf("agent: expected %d answers, got %d", len(questions), len(answers))
	}

	clarifications := make([]runstate.Clarification, len(questions))
	for i, q := range questions {
		clarifications[i] = runstate.Clarification{Question: q, Answer: answers[i]}
	}
	return clarifications, nil
}

func synthesizeSpec(ctx context.Context, description string, clarifications []runstate.Clarification, c Collaborators) (string, error) {
	var sb strings.Builder
	sb.WriteString("Write spec.md for the following feature. It MUST contain the ")
	sb.WriteString("sections \"User Scenarios\", \"Requirements\", and \"Success Criteria\" as ")
	sb.WriteString("markdown ## headings. Describe only observable behavior: never name a ")
	sb.WriteString("concrete programming language, framework, database, or cloud service.\n\n")
	fmt.Fprintf(&sb, "Feature: %s\n", description)
	if len(clarifications) > 0 {
		sb.WriteString("\nClarifications:\n")
		for _, cl := range clarifications {
			fmt.Fprintf(&sb, "- Q: %s\n  A: %s\n", cl.Question.Text, cl.Answer)
		}
	}

	return c.LLM.Complete(ctx, sb.String())
}
