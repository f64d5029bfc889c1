package interaction

import (
	"bytes"
	"strings"
	"testing"

	"github.com/acpctl/acp/internal/runstate"
)

func TestScriptedRemediateDefaultsToAbortWhenUnconfigured(t *testing.T) {
	s := NewScripted()
	choice, err := s.Remediate(nil)
	if err != nil {
		t.Fatal(err)
	}
	if choice != Abort {
		t.Errorf("expected Abort, got %v", choice)
	}
}

func TestScriptedRemediateConsumesInOrder(t *testing.T) {
	s := NewScripted()
	s.Remediations = []Remediation{Regenerate, Abort}

	if c, _ := s.Remediate(nil); c != Regenerate {
		t.Errorf("expected Regenerate first, got %v", c)
	}
	if c, _ := s.Remediate(nil); c != Abort {
		t.Errorf("expected Abort second, got %v", c)
	}
	// Beyond configured responses, default to Abort.
	if c, _ := s.Remediate(nil); c != Abort {
		t.Errorf("expected Abort once exhausted, got %v", c)
	}
}

func TestScriptedAskValidatesBatchSize(t *testing.T) {
	s := NewScripted()
	s.Answers = [][]runstate.Answer{{"only one"}}

	_, err := s.Ask([]runstate.PreflightQuestion{{Index: 1}, {Index: 2}})
	if err == nil {
		t.Fatal("expected error for mismatched batch size")
	}
}

func TestScriptedAskAllOrNothing(t *testing.T) {
	s := NewScripted()
	s.Answers = [][]runstate.Answer{{"alice", "bob"}}

	answers, err := s.Ask([]runstate.PreflightQuestion{{Index: 1}, {Index: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(answers))
	}
}

func TestTerminalAskAllOrNothing(t *testing.T) {
	in := strings.NewReader("alice\nbob\n")
	var out bytes.Buffer
	term := NewTerminal(in, &out)

	answers, err := term.Ask([]runstate.PreflightQuestion{
		{Index: 1, Text: "who?"},
		{Index: 2, Text: "who else?"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 2 || answers[0] != "alice" || answers[1] != "bob" {
		t.Fatalf("got %v", answers)
	}
}

func TestTerminalAskRejectsEmptyAnswer(t *testing.T) {
	in := strings.NewReader("\n")
	var out bytes.Buffer
	term := NewTerminal(in, &out)

	_, err := term.Ask([]runstate.PreflightQuestion{{Index: 1, Text: "who?"}})
	if err == nil {
		t.Fatal("expected error for empty answer")
	}
}

func TestTerminalRemediateRejectsUnknownChoice(t *testing.T) {
	in := strings.NewReader("not-a-real-choice\n")
	var out bytes.Buffer
	term := NewTerminal(in, &out)

	_, err := term.Remediate(nil)
	if err == nil {
		t.Fatal("expected error for unrecognized remediation choice")
	}
}
