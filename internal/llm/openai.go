package llm

import (
	"context"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"

	"github.com/hanriver/tradepilot/internal/errs"
)

// OpenAIProvider adapts eino-ext's OpenAI chat model to Provider.
type OpenAIProvider struct {
	model *openai.ChatModel
}

func NewOpenAIProvider(ctx context.Context, apiKey string) (*OpenAIProvider, error) {
	maxTokens := 4096
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:    apiKey,
		Model:     "gpt-4o-mini",
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, errs.ConfigError("create openai chat model", err)
	}
	return &OpenAIProvider{model: m}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Invoke(ctx context.Context, messages []*schema.Message, timeout time.Duration) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := p.model.Generate(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, errs.Transient("openai generate timed out", err)
		}
		return Response{}, errs.Transient("openai generate failed", err)
	}
	return Response{Message: msg}, nil
}

// New selects a Provider per cfg.LLMProvider, mirroring CortexGo's
// single-provider-at-a-time selection in its own config.
func New(ctx context.Context, provider, deepSeekKey, openAIKey string) (Provider, error) {
	switch provider {
	case "openai":
		return NewOpenAIProvider(ctx, openAIKey)
	default:
		return NewDeepSeekProvider(ctx, deepSeekKey)
	}
}
