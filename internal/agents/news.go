package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/hanriver/tradepilot/internal/llm"
)

// NewsAnalyst is the news_analysis section of §4.3: recent catalysts,
// disclosures, macro ties. It calls the search tool service to pull
// headlines and snippets (pages are not fetched) before handing them to
// the model, the same pattern
// CortexGo's news_analyst.go uses with its scraper tool.
type NewsAnalyst struct {
	provider llm.Provider
}

func (a *NewsAnalyst) Invoke(ctx context.Context, in Input) (string, error) {
	query := fmt.Sprintf("%s %s news", in.Ticker.Code, in.Meta.Name)
	results, err := in.Tools.Search(ctx, query)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, r := range results {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&sb, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
	}
	if sb.Len() == 0 {
		sb.WriteString("no recent news results retrieved\n")
	}

	system := `You are a news analyst. Summarize recent catalysts, disclosures,
and macro developments relevant to the ticker's near-term price action.
Distinguish confirmed facts from speculation.`

	user := fmt.Sprintf("Ticker: %s\nRecent headlines:\n%s", in.Ticker, sb.String())

	return invokeLLM(ctx, a.provider, in.Timeout, system, user)
}
