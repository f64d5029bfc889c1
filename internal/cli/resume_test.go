package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/acpctl/acp/graph/model"
	"github.com/acpctl/acp/internal/agent"
	"github.com/acpctl/acp/internal/artifact"
	"github.com/acpctl/acp/internal/checkpoint"
	"github.com/acpctl/acp/internal/constitution"
	"github.com/acpctl/acp/internal/governance"
	"github.com/acpctl/acp/internal/interaction"
	"github.com/acpctl/acp/internal/runstate"
)

const cleanSpecText = "# Spec\n\n## User Scenarios\nUser logs in.\n\n" +
	"## Requirements\nStore user session data for later retrieval.\n\n" +
	"## Success Criteria\nUser can log in successfully.\n"

const cleanPlanText = "## Technical Context\n\nPersist each session record in a table for later lookups.\n\n" +
	"## Phases\n\nPhase 1: implement login.\n"

// newIntegrationApp builds an App wired with a mock LLM and a real
// constitution/artifact/checkpoint store rooted at t.TempDir(), mirroring
// internal/workflow's newEngine test helper but at the cli layer.
func newIntegrationApp(t *testing.T, mock *model.MockChatModel) *App {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(root+"/.acp/templates", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(root+"/.acp/templates/constitution.md", []byte(constitution.Starter), 0o644); err != nil {
		t.Fatalf("write constitution: %v", err)
	}

	return &App{
		Root:        root,
		LLM:         agent.NewChatModelAdapter(mock, ""),
		Port:        interaction.NewScripted(),
		Artifacts:   artifact.New(root),
		Checkpoints: checkpoint.New(root),
		Validator:   governance.New(),
	}
}

func TestResumeCmd_ContinuesPausedRunToCompletion(t *testing.T) {
	specifyMock := &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "1. Which identity providers?"},
		{Text: cleanSpecText},
	}}
	app := newIntegrationApp(t, specifyMock)
	port := interaction.NewScripted()
	port.Answers = [][]runstate.Answer{{"Google and GitHub"}}
	app.Port = port

	specifyCmd := NewSpecifyCmd()
	specifyCmd.SetContext(WithApp(context.Background(), app))
	specifyCmd.SetOut(&bytes.Buffer{})
	if err := specifyCmd.RunE(specifyCmd, []string{"Add OAuth2 authentication"}); err != nil {
		t.Fatalf("specify: %v", err)
	}

	runID, ok := app.Checkpoints.Latest()
	if !ok {
		t.Fatal("expected a checkpointed run after specify")
	}
	meta, _, err := app.Checkpoints.ByID(runID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if meta.Status != runstate.StatusPaused {
		t.Fatalf("expected paused after specify, got %s", meta.Status)
	}

	// Swap in a fresh mock carrying responses for plan + implement, since
	// resume drives the run all the way to completion.
	app.LLM = agent.NewChatModelAdapter(&model.MockChatModel{Responses: []model.ChatOut{
		{Text: "none"},
		{Text: cleanPlanText},
		{Text: "## Entities\n\nUser, Session\n"},
		{Text: "## Quickstart\n\nRun the login flow.\n"},
		{Text: "1. handle login callback"},
		{Text: "package auth_test\n\nfunc TestLogin(t *testing.T) {}\n"},
		{Text: "package auth\n\nfunc Login() {}\n"},
	}}, "")
	app.Port = interaction.NewScripted()

	resumeCmd := NewResumeCmd()
	resumeCmd.SetContext(WithApp(context.Background(), app))
	var buf bytes.Buffer
	resumeCmd.SetOut(&buf)
	if err := resumeCmd.RunE(resumeCmd, nil); err != nil {
		t.Fatalf("resume: %v", err)
	}

	finalMeta, _, err := app.Checkpoints.ByID(runID)
	if err != nil {
		t.Fatalf("ByID after resume: %v", err)
	}
	if finalMeta.Status != runstate.StatusCompleted {
		t.Fatalf("expected completed after resume, got %s", finalMeta.Status)
	}
}

func TestResumeCmd_NoRunsFoundErrors(t *testing.T) {
	app, _ := newTestApp(t)

	cmd := NewResumeCmd()
	cmd.SetContext(WithApp(context.Background(), app))
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatal("expected error when no runs exist")
	}
}
