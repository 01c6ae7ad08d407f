package agents

import (
	"context"
	"fmt"

	"github.com/hanriver/tradepilot/internal/llm"
)

// CompanyStatusAnalyst is the company_status section of §4.3: valuation,
// targets, consensus.
type CompanyStatusAnalyst struct {
	provider llm.Provider
}

func (a *CompanyStatusAnalyst) Invoke(ctx context.Context, in Input) (string, error) {
	system := `You are an equity valuation analyst. Assess the company's current
valuation (relative to sector peers where inferable), analyst consensus
targets if implied by the provided data, and whether the current price
looks stretched or cheap.`

	user := fmt.Sprintf(
		"Ticker: %s (%s)\nSector: %s | Industry: %s\nMarket cap: %.0f %s\nLatest close: %.2f\n",
		in.Ticker, in.Meta.Name, in.Meta.Sector, in.Meta.Industry,
		in.Meta.MarketCap, in.Ticker.Realm.Currency(), in.Snapshot.Close,
	)

	return invokeLLM(ctx, a.provider, in.Timeout, system, user)
}
