package llm

import (
	"context"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino/schema"

	"github.com/hanriver/tradepilot/internal/errs"
)

// DeepSeekProvider adapts eino-ext's DeepSeek chat model to Provider.
type DeepSeekProvider struct {
	model *deepseek.ChatModel
}

func NewDeepSeekProvider(ctx context.Context, apiKey string) (*DeepSeekProvider, error) {
	m, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:    apiKey,
		Model:     "deepseek-chat",
		MaxTokens: 2000,
	})
	if err != nil {
		return nil, errs.ConfigError("create deepseek chat model", err)
	}
	return &DeepSeekProvider{model: m}, nil
}

func (p *DeepSeekProvider) Name() string { return "deepseek" }

func (p *DeepSeekProvider) Invoke(ctx context.Context, messages []*schema.Message, timeout time.Duration) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := p.model.Generate(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, errs.Transient("deepseek generate timed out", err)
		}
		return Response{}, errs.Transient("deepseek generate failed", err)
	}
	return Response{Message: msg}, nil
}
