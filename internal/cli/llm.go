package cli

import (
	"fmt"
	"os"

	"github.com/acpctl/acp/graph"
	"github.com/acpctl/acp/graph/model"
	"github.com/acpctl/acp/graph/model/anthropic"
	"github.com/acpctl/acp/graph/model/google"
	"github.com/acpctl/acp/graph/model/openai"
	"github.com/acpctl/acp/internal/agent"
)

// buildLLM resolves a model.ChatModel from an explicit --provider flag (or,
// if empty, the first provider whose API key environment variable is set)
// and wraps it in an agent.LLMClient. Per spec.md §6, a mock binding with no
// credentials configured is a supported fallback, used in tests and in any
// environment lacking provider credentials. cost, if non-nil, is attached to
// the adapter so every Complete call is recorded against it.
func buildLLM(provider, modelName string, cost *graph.CostTracker) (agent.LLMClient, error) {
	chat, err := buildChatModel(provider, modelName)
	if err != nil {
		return nil, err
	}
	adapter := agent.NewChatModelAdapter(chat, "")
	adapter.Cost = cost
	return adapter, nil
}

func buildChatModel(provider, modelName string) (model.ChatModel, error) {
	switch provider {
	case "anthropic":
		return anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), modelName), nil
	case "openai":
		return openai.NewChatModel(os.Getenv("OPENAI_API_KEY"), modelName), nil
	case "google":
		return google.NewChatModel(os.Getenv("GOOGLE_API_KEY"), modelName), nil
	case "mock":
		return &model.MockChatModel{}, nil
	case "":
		return autodetectChatModel(modelName), nil
	default:
		return nil, fmt.Errorf("cli: unknown --provider %q (want anthropic, openai, google, or mock)", provider)
	}
}

// autodetectChatModel picks the first provider with an API key present in
// the environment, falling back to the mock binding when none is
// configured.
func autodetectChatModel(modelName string) model.ChatModel {
	switch {
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		return anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), modelName)
	case os.Getenv("OPENAI_API_KEY") != "":
		return openai.NewChatModel(os.Getenv("OPENAI_API_KEY"), modelName)
	case os.Getenv("GOOGLE_API_KEY") != "":
		return google.NewChatModel(os.Getenv("GOOGLE_API_KEY"), modelName)
	default:
		return &model.MockChatModel{}
	}
}
