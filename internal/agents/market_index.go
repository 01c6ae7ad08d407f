package agents

import (
	"context"
	"fmt"

	"github.com/hanriver/tradepilot/internal/llm"
)

// MarketIndexAnalyst is the market_index_analysis section of §4.3: regime
// and macro context. Its output is cached per (realm, session) by the
// pipeline runner and reused across every ticker of that session — the
// agent itself is stateless and does not know about the cache.
type MarketIndexAnalyst struct {
	provider llm.Provider
}

func (a *MarketIndexAnalyst) Invoke(ctx context.Context, in Input) (string, error) {
	system := `You are a macro strategist. Characterize the current market
regime (bull/bear/sideways), index-level momentum, and macro factors that
should color how a trader weighs single-stock setups today.`

	user := fmt.Sprintf("Realm: %s\nReference date: %s\n", in.Ticker.Realm, in.ReferenceDate.Format("2006-01-02"))

	return invokeLLM(ctx, a.provider, in.Timeout, system, user)
}
