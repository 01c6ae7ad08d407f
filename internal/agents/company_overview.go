package agents

import (
	"context"
	"fmt"

	"github.com/hanriver/tradepilot/internal/llm"
)

// CompanyOverviewAnalyst is the company_overview section of §4.3: business
// model, competition, growth drivers.
type CompanyOverviewAnalyst struct {
	provider llm.Provider
}

func (a *CompanyOverviewAnalyst) Invoke(ctx context.Context, in Input) (string, error) {
	system := `You are a business analyst. Describe the company's business model,
competitive position, and growth drivers in plain terms suitable for a
daily trading report reader, not a research-desk audience.`

	user := fmt.Sprintf("Ticker: %s\nCompany: %s\nSector: %s\nIndustry: %s\n",
		in.Ticker, in.Meta.Name, in.Meta.Sector, in.Meta.Industry)

	return invokeLLM(ctx, a.provider, in.Timeout, system, user)
}
