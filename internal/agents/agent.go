// Package agents implements the §4.3 agent pipeline: six analytical
// sections run sequentially, a strategy synthesis step, and a
// optimizer/evaluator summary loop, all stateless between invocations.
package agents

import (
	"context"
	"time"

	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/models"
	"github.com/hanriver/tradepilot/internal/tools"
)

// Input is the common envelope every agent in this package receives.
// Agents are stateless: everything they need travels in Input, nothing
// survives between invocations.
type Input struct {
	Ticker        models.Ticker
	Meta          models.CompanyMeta
	ReferenceDate time.Time
	Language      string

	Snapshot models.Snapshot
	Bars     []models.Bar
	Holders  []models.Holder

	// PriorSections carries already-computed section text for agents that
	// consume earlier output (the strategy agent needs all six; later
	// sections never need earlier ones per §4.3, but the field is common
	// plumbing for both).
	PriorSections map[models.SectionID]models.SectionOutput

	Provider llm.Provider
	Tools    tools.Services
	Timeout  time.Duration
}

// Agent is the polymorphic interface every section/strategy/summary agent
// implements — "an explicit registry mapping section_id -> agent factory
// and a polymorphic agent interface", per spec §9's Design Notes (replacing
// dynamic, string-keyed dispatch with enumerated variants).
type Agent interface {
	Invoke(ctx context.Context, in Input) (string, error)
}

// Factory builds a fresh Agent instance. Agents carry no state between
// invocations, so a Factory is free to return a singleton when the
// underlying agent has no per-call mutable fields.
type Factory func(provider llm.Provider) Agent

// Registry is the explicit section_id -> agent factory mapping spec §9
// calls for.
var Registry = map[models.SectionID]Factory{
	models.SectionPriceVolume:          func(p llm.Provider) Agent { return &PriceVolumeAnalyst{provider: p} },
	models.SectionInstitutionalHolders: func(p llm.Provider) Agent { return &InstitutionalHoldersAnalyst{provider: p} },
	models.SectionCompanyStatus:        func(p llm.Provider) Agent { return &CompanyStatusAnalyst{provider: p} },
	models.SectionCompanyOverview:      func(p llm.Provider) Agent { return &CompanyOverviewAnalyst{provider: p} },
	models.SectionNews:                 func(p llm.Provider) Agent { return &NewsAnalyst{provider: p} },
	models.SectionMarketIndex:          func(p llm.Provider) Agent { return &MarketIndexAnalyst{provider: p} },
}

// invokeLLM is the shared helper every analytical agent uses to call its
// bound provider with a system/user message pair and return plain text.
func invokeLLM(ctx context.Context, provider llm.Provider, timeout time.Duration, system, user string) (string, error) {
	return llm.InvokeText(ctx, provider, timeout, system, user)
}
