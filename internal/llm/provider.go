// Package llm is the abstract LLM Provider boundary of §6: a narrow
// invoke(agent_spec, inputs, timeout) contract backed by concrete eino chat
// models, with retry/backoff and opaque token/cost accounting.
package llm

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

// Usage is the opaque token/cost accounting the orchestrator logs, per §6.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// Response is one invoke() result: free text plus the usage the caller logs.
type Response struct {
	Message *schema.Message
	Usage   Usage
}

// Provider is the abstract LLM boundary. Concrete chat models (DeepSeek,
// OpenAI) are adapted to this interface in this package's provider_*.go
// files.
type Provider interface {
	Invoke(ctx context.Context, messages []*schema.Message, timeout time.Duration) (Response, error)
	Name() string
}

// InvokeText is the shared system/user-prompt-pair call shape every caller
// of a Provider uses, returning plain text instead of the raw message.
func InvokeText(ctx context.Context, provider Provider, timeout time.Duration, system, user string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	resp, err := provider.Invoke(ctx, msgs, timeout)
	if err != nil {
		return "", err
	}
	if resp.Message == nil {
		return "", nil
	}
	return resp.Message.Content, nil
}
