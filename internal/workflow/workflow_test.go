package workflow

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/acpctl/acp/graph/model"
	"github.com/acpctl/acp/internal/agent"
	"github.com/acpctl/acp/internal/artifact"
	"github.com/acpctl/acp/internal/checkpoint"
	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/governance"
	"github.com/acpctl/acp/internal/interaction"
	"github.com/acpctl/acp/internal/runstate"
)

const cleanSpec = "# Spec\n\n## User Scenarios\nUser logs in.\n\n" +
	"## Requirements\nStore user session data for later retrieval.\n\n" +
	"## Success Criteria\nUser can log in successfully.\n"

const cleanPlan = "## Technical Context\n\nPersist each session record in a table for later lookups.\n\n" +
	"## Phases\n\nPhase 1: implement login.\n"

func newEngine(t *testing.T, llm agent.LLMClient, port interaction.Port, cfg Config) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	c, err := constitution.Load(writeConstitution(t, root, constitution.Starter))
	if err != nil {
		t.Fatalf("loading constitution: %v", err)
	}

	cfg.Root = root
	cfg.RunID = "001-login"
	cfg.LLM = llm
	cfg.Port = port
	cfg.Artifacts = artifact.New(root)
	cfg.Checkpoints = checkpoint.New(root)
	cfg.Constitution = c
	if cfg.Validator == nil {
		cfg.Validator = governance.New()
	}

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, root
}

// writeConstitution writes text as root's constitution file and returns root,
// so it composes directly into constitution.Load(writeConstitution(...)).
func writeConstitution(t *testing.T, root, text string) string {
	t.Helper()
	dir := root + "/.acp/templates"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(dir+"/constitution.md", []byte(text), 0o644); err != nil {
		t.Fatalf("write constitution: %v", err)
	}
	return root
}

func initialState() *runstate.State {
	s := runstate.New()
	s.Spec.Description = "Add a login feature"
	s.Constitution.Text = constitution.Starter
	return s
}

func TestEngineRunsStraightThroughToCompletion(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "1. Which identity providers?"},                     // collectClarifications
		{Text: cleanSpec},                                          // synthesizeSpec
		{Text: "none"},                                             // resolveUnknowns
		{Text: cleanPlan},                                          // planPrompt
		{Text: "## Entities\n\nUser, Session\n"},                   // dataModelPrompt
		{Text: "## Quickstart\n\nRun the login flow.\n"},           // quickstartPrompt
		{Text: "1. handle login callback"},                         // deriveTasks
		{Text: "package auth_test\n\nfunc TestLogin(t *testing.T) {}\n"}, // red
		{Text: "package auth\n\nfunc Login() {}\n"},                 // green
	}}
	port := interaction.NewScripted()
	port.Answers = [][]runstate.Answer{{"Google and GitHub"}}

	e, root := newEngine(t, agent.NewChatModelAdapter(mock, ""), port, Config{})

	meta := runstate.NewRun(1, "Add a login feature", time.Now())
	finalMeta, finalState, err := e.Run(context.Background(), initialState(), meta)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if finalMeta.Status != runstate.StatusCompleted {
		t.Fatalf("expected completed, got %s", finalMeta.Status)
	}
	if finalState.Control.Phase != runstate.PhaseComplete {
		t.Fatalf("expected phase complete, got %s", finalState.Control.Phase)
	}
	for _, p := range []runstate.Phase{runstate.PhaseSpecify, runstate.PhasePlan, runstate.PhaseImplement} {
		if !finalMeta.HasCompleted(p) {
			t.Errorf("expected %s completed, metadata: %+v", p, finalMeta)
		}
	}

	cp := checkpoint.New(root)
	loadedMeta, loadedState, err := cp.ByID("001-login")
	if err != nil {
		t.Fatalf("loading final checkpoint: %v", err)
	}
	if loadedMeta.Status != runstate.StatusCompleted {
		t.Errorf("expected persisted checkpoint status completed, got %s", loadedMeta.Status)
	}
	if len(loadedState.Impl.Code) != 2 {
		t.Errorf("expected 2 code artifacts in final checkpoint, got %d", len(loadedState.Impl.Code))
	}
}

func TestEngineStopsAtConfiguredPhase(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "1. Which identity providers?"},
		{Text: cleanSpec},
	}}
	port := interaction.NewScripted()
	port.Answers = [][]runstate.Answer{{"Google and GitHub"}}

	e, _ := newEngine(t, agent.NewChatModelAdapter(mock, ""), port, Config{StopAfter: runstate.PhaseSpecify})

	meta := runstate.NewRun(1, "Add a login feature", time.Now())
	finalMeta, finalState, err := e.Run(context.Background(), initialState(), meta)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if finalMeta.Status != runstate.StatusPaused {
		t.Fatalf("expected paused, got %s", finalMeta.Status)
	}
	if finalState.Control.Phase != runstate.PhaseSpecify {
		t.Fatalf("expected phase specify, got %s", finalState.Control.Phase)
	}
	if !finalMeta.HasCompleted(runstate.PhaseSpecify) {
		t.Fatal("expected specify recorded as completed")
	}
	if finalMeta.HasCompleted(runstate.PhasePlan) {
		t.Fatal("plan should not have run")
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected exactly 2 llm calls (specify only), got %d", mock.CallCount())
	}
}

func TestEngineRegenerateExhaustsRetriesAndFails(t *testing.T) {
	leakingSpec := "# Spec\n\n## User Scenarios\nStore data in PostgreSQL.\n\n" +
		"## Requirements\n..\n\n## Success Criteria\n..\n"

	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "1. Which identity providers?"},
		{Text: leakingSpec}, // repeats on every subsequent call
	}}
	port := interaction.NewScripted()
	port.Answers = [][]runstate.Answer{{"Google and GitHub"}}
	port.Remediations = []interaction.Remediation{
		interaction.Regenerate,
		interaction.Regenerate,
		interaction.Regenerate,
	}

	e, _ := newEngine(t, agent.NewChatModelAdapter(mock, ""), port, Config{})

	meta := runstate.NewRun(1, "Add a login feature", time.Now())
	finalMeta, finalState, err := e.Run(context.Background(), initialState(), meta)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if finalMeta.Status != runstate.StatusFailed {
		t.Fatalf("expected failed, got %s", finalMeta.Status)
	}
	if finalMeta.HasCompleted(runstate.PhaseSpecify) {
		t.Fatal("specify should never have passed governance")
	}
	if finalState.Control.LastError == nil {
		t.Fatal("expected LastError to be populated on a run that terminates as failed")
	}
	if finalState.Control.LastError.Phase != runstate.PhaseSpecify {
		t.Errorf("LastError.Phase: got %s want %s", finalState.Control.LastError.Phase, runstate.PhaseSpecify)
	}
	// 1 initial attempt + 2 regenerated attempts = 3 synthesizeSpec calls,
	// plus 1 collectClarifications call that is never repeated once
	// clarifications are non-empty.
	if mock.CallCount() != 4 {
		t.Fatalf("expected 4 llm calls, got %d", mock.CallCount())
	}
}

func TestEngineEditConstitutionRemediatesWithoutRegenerating(t *testing.T) {
	licensingSpec := "# Spec\n\n## User Scenarios\nThis feature depends on GPL tooling.\n\n" +
		"## Requirements\n..\n\n## Success Criteria\n..\n"

	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "none"}, // no clarifications needed
		{Text: licensingSpec},
	}}
	port := interaction.NewScripted()
	port.Remediations = []interaction.Remediation{interaction.EditConstitution}

	strictConstitution := constitution.Starter + "\n## Licensing\n\n- GPL\n"
	root := t.TempDir()
	writeConstitution(t, root, strictConstitution)
	c, err := constitution.Load(root)
	if err != nil {
		t.Fatalf("loading constitution: %v", err)
	}

	cfg := Config{
		Root:         root,
		RunID:        "001-login",
		LLM:          agent.NewChatModelAdapter(mock, ""),
		Port:         port,
		Artifacts:    artifact.New(root),
		Checkpoints:  checkpoint.New(root),
		Constitution: c,
		Validator:    governance.New(),
		StopAfter:    runstate.PhaseSpecify,
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Relax the on-disk constitution before the error_handler reloads it, so
	// the second governance pass sees a constitution with no Licensing
	// section and the same spec text now passes.
	writeConstitution(t, root, constitution.Starter)

	meta := runstate.NewRun(1, "Add a login feature", time.Now())
	finalMeta, finalState, err := e.Run(context.Background(), initialState(), meta)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if finalMeta.Status != runstate.StatusPaused {
		t.Fatalf("expected paused at specify, got %+v", finalMeta)
	}
	if !finalState.Constitution.GovernancePasses {
		t.Fatal("expected governance to pass after constitution was relaxed")
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected no extra llm calls from edit_constitution remediation, got %d", mock.CallCount())
	}
}

func TestEngineIgnoreRequiresAllowIgnore(t *testing.T) {
	leakingSpec := "# Spec\n\n## User Scenarios\nStore data in PostgreSQL.\n\n" +
		"## Requirements\n..\n\n## Success Criteria\n..\n"

	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "none"},
		{Text: leakingSpec},
	}}
	port := interaction.NewScripted()
	port.Remediations = []interaction.Remediation{interaction.Ignore}

	e, _ := newEngine(t, agent.NewChatModelAdapter(mock, ""), port, Config{AllowIgnore: false})

	meta := runstate.NewRun(1, "Add a login feature", time.Now())
	finalMeta, _, err := e.Run(context.Background(), initialState(), meta)
	if err == nil {
		t.Fatal("expected ignore without AllowIgnore to error")
	}
	if finalMeta.Status != runstate.StatusFailed {
		t.Fatalf("expected failed, got %s", finalMeta.Status)
	}
}

func TestEngineIgnoreSkipsGovernanceWhenAllowed(t *testing.T) {
	leakingSpec := "# Spec\n\n## User Scenarios\nStore data in PostgreSQL.\n\n" +
		"## Requirements\n..\n\n## Success Criteria\n..\n"

	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "none"},
		{Text: leakingSpec},
	}}
	port := interaction.NewScripted()
	port.Remediations = []interaction.Remediation{interaction.Ignore}

	e, _ := newEngine(t, agent.NewChatModelAdapter(mock, ""), port, Config{AllowIgnore: true, StopAfter: runstate.PhaseSpecify})

	meta := runstate.NewRun(1, "Add a login feature", time.Now())
	finalMeta, finalState, err := e.Run(context.Background(), initialState(), meta)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if finalMeta.Status != runstate.StatusPaused {
		t.Fatalf("expected paused, got %s", finalMeta.Status)
	}
	if !finalState.Constitution.GovernancePasses {
		t.Fatal("expected governance_passes forced true by ignore")
	}
	if finalState.Control.ErrorCount != 0 {
		t.Errorf("expected error count reset after ignore, got %d", finalState.Control.ErrorCount)
	}
}

func TestEngineResumesFromCompletedPhases(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "none"},                                   // resolveUnknowns
		{Text: cleanPlan},                                 // planPrompt
		{Text: "## Entities\n\nUser, Session\n"},          // dataModelPrompt
		{Text: "## Quickstart\n\nRun the login flow.\n"},  // quickstartPrompt
		{Text: "1. handle login callback"},                // deriveTasks
		{Text: "package auth_test\n\nfunc TestLogin(t *testing.T) {}\n"},
		{Text: "package auth\n\nfunc Login() {}\n"},
	}}
	port := interaction.NewScripted()

	e, _ := newEngine(t, agent.NewChatModelAdapter(mock, ""), port, Config{})

	s := initialState()
	s.Spec.Spec = cleanSpec
	s.Spec.Clarifications = []runstate.Clarification{
		{Question: runstate.PreflightQuestion{Index: 1, Text: "providers?"}, Answer: "Google"},
	}
	s.Control.Phase = runstate.PhaseSpecify

	meta := runstate.NewRun(1, "Add a login feature", time.Now())
	meta = meta.WithPhaseCompleted(runstate.PhaseSpecify)
	meta.Status = runstate.StatusPaused
	meta.Phase = runstate.PhaseSpecify

	finalMeta, finalState, err := e.Run(context.Background(), s, meta)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if finalMeta.Status != runstate.StatusCompleted {
		t.Fatalf("expected completed, got %s", finalMeta.Status)
	}
	if finalState.Control.Phase != runstate.PhaseComplete {
		t.Fatalf("expected phase complete, got %s", finalState.Control.Phase)
	}
	found := false
	for _, a := range port.Announcements {
		if strings.Contains(a.Msg, "resuming") {
			found = true
		}
	}
	if !found {
		t.Error("expected a resume announcement to have been emitted")
	}
}
