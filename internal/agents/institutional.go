package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/hanriver/tradepilot/internal/llm"
)

// InstitutionalHoldersAnalyst is the institutional_holdings_analysis
// section of §4.3: holder concentration and changes.
type InstitutionalHoldersAnalyst struct {
	provider llm.Provider
}

func (a *InstitutionalHoldersAnalyst) Invoke(ctx context.Context, in Input) (string, error) {
	var sb strings.Builder
	total := 0.0
	for _, h := range in.Holders {
		fmt.Fprintf(&sb, "%s: %.2f%% (%d shares)\n", h.Holder, h.PctHeld, h.Shares)
		total += h.PctHeld
	}
	if len(in.Holders) == 0 {
		sb.WriteString("no institutional holder data available\n")
	}

	system := `You are an institutional-ownership analyst. Summarize holder
concentration, notable position changes, and what they imply for float and
potential volatility.`

	user := fmt.Sprintf(
		"Ticker: %s\nTop holders (total %.2f%% held):\n%s",
		in.Ticker, total, sb.String(),
	)

	return invokeLLM(ctx, a.provider, in.Timeout, system, user)
}
