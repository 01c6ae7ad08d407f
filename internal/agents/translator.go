package agents

import (
	"context"
	"fmt"

	"github.com/hanriver/tradepilot/internal/llm"
)

// TranslatorAgent is the optional, per-target-language translator of §4.3:
// it preserves numbers, tickers, proper nouns, and section structure.
type TranslatorAgent struct {
	provider llm.Provider
}

func NewTranslatorAgent(provider llm.Provider) *TranslatorAgent { return &TranslatorAgent{provider: provider} }

func (a *TranslatorAgent) Translate(ctx context.Context, in Input, text, targetLanguage string) (string, error) {
	system := fmt.Sprintf(`Translate the given text to %s. Preserve numbers, ticker
symbols, proper nouns, and the original section structure exactly. Do not
add commentary.`, targetLanguage)

	return invokeLLM(ctx, a.provider, in.Timeout, system, text)
}
