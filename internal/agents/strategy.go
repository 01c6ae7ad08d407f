package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/models"
)

// StrategyAgent consumes all six section outputs plus report metadata and
// emits an integrated strategy segmented by investor horizon (§4.3).
// Strategy synthesis observes only sections that completed by the time it
// runs; missing ones are placeholders, per §5's ordering guarantee.
type StrategyAgent struct {
	provider llm.Provider
}

func NewStrategyAgent(provider llm.Provider) *StrategyAgent { return &StrategyAgent{provider: provider} }

func (a *StrategyAgent) Invoke(ctx context.Context, in Input) (string, error) {
	var sb strings.Builder
	for _, id := range models.SectionOrder {
		out, ok := in.PriorSections[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n%s\n\n", id, out.Content)
	}

	system := `You are the lead strategist synthesizing six analytical sections
into one integrated trading strategy. Segment your recommendation by
investor horizon: short-term (days), mid-term (weeks), long-term (months).
Note which sections were unavailable and lower your confidence accordingly.`

	user := fmt.Sprintf("Ticker: %s\nReference date: %s\n\n%s",
		in.Ticker, in.ReferenceDate.Format("2006-01-02"), sb.String())

	return invokeLLM(ctx, a.provider, in.Timeout, system, user)
}
