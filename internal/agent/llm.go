package agent

import (
	"context"
	"fmt"

	"github.com/acpctl/acp/graph"
	"github.com/acpctl/acp/graph/model"
)

// LLMClient is the narrow collaborator spec.md §6 names: "an LLM client
// that returns a string for a prompt". It is deliberately narrower than the
// full model.ChatModel surface (messages + tools in, ChatOut out) so agents
// stay provider-agnostic and don't accidentally depend on tool-calling
// semantics the engine never uses.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatModelAdapter adapts any model.ChatModel (mock, Anthropic, OpenAI,
// Google) to LLMClient by wrapping the prompt in a single user message and
// returning only the text of the reply.
type ChatModelAdapter struct {
	Model  model.ChatModel
	System string

	// Cost, if set, receives a RecordLLMCall for every Complete call,
	// keyed by the node id the graph engine stamped onto ctx.
	Cost *graph.CostTracker
}

// NewChatModelAdapter returns an LLMClient backed by m, optionally seeded
// with a system prompt shared by every Complete call.
func NewChatModelAdapter(m model.ChatModel, system string) *ChatModelAdapter {
	return &ChatModelAdapter{Model: m, System: system}
}

// Complete sends prompt as a single-turn conversation and returns the
// model's text response.
func (a *ChatModelAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	var messages []model.Message
	if a.System != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: a.System})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: prompt})

	out, err := a.Model.Chat(ctx, messages, nil)
	if err != nil {
		return "", fmt.Errorf("agent: llm call failed: %w", err)
	}

	if a.Cost != nil {
		nodeID, _ := ctx.Value(graph.NodeIDKey).(string)
		inTok := estimateTokens(a.System) + estimateTokens(prompt)
		outTok := estimateTokens(out.Text)
		_ = a.Cost.RecordLLMCall(a.Model.Name(), inTok, outTok, nodeID)
	}

	return out.Text, nil
}

// estimateTokens approximates token count at four characters per token, the
// rule of thumb OpenAI's own tokenizer docs give for English text. No
// provider in graph/model surfaces real usage counts on ChatOut, so this is
// the best available input for cost tracking.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}
