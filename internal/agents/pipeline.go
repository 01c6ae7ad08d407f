package agents

import (
	"context"
	"time"

	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/models"
	"github.com/hanriver/tradepilot/internal/tools"
)

// sectionStrategyKey is the pseudo-section-id the strategy agent's output
// is stored under in PriorSections, so StrategyAgent/OptimizerAgent can
// read it the same way they read the six named sections.
const sectionStrategyKey = models.SectionID("strategy")

// Pipeline runs the full per-ticker agent workflow of §4.3: the six
// analytical sections sequentially, then strategy synthesis, then the
// optimizer/evaluator summary loop.
type Pipeline struct {
	Provider             llm.Provider
	Tools                tools.Services
	MarketSession        *market.Session
	InterSectionPause    time.Duration
	MaxSectionRetries    int
	MaxEvaluatorRounds   int
	Timeout              time.Duration
}

// Run produces a Report for one ticker. Per §4.3/§5, sections run
// sequentially with a fixed inter-section pause; a section that still fails
// after retries degrades to a placeholder and the pipeline continues.
func (p *Pipeline) Run(ctx context.Context, ticker models.Ticker, meta models.CompanyMeta, snap models.Snapshot, bars []models.Bar, holders []models.Holder, referenceDate time.Time, language string) (models.Report, error) {
	report := models.Report{
		Ticker:        ticker,
		ReferenceDate: referenceDate,
		Language:      language,
		Sections:      make(map[models.SectionID]models.SectionOutput, len(models.SectionOrder)),
		GeneratedAt:   time.Now(),
	}

	in := Input{
		Ticker: ticker, Meta: meta, ReferenceDate: referenceDate, Language: language,
		Snapshot: snap, Bars: bars, Holders: holders,
		PriorSections: report.Sections,
		Provider:      p.Provider,
		Tools:         p.Tools,
		Timeout:       p.Timeout,
	}

	for i, sectionID := range models.SectionOrder {
		out := p.runSection(ctx, sectionID, in)
		report.Sections[sectionID] = out

		if i < len(models.SectionOrder)-1 && p.InterSectionPause > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(p.InterSectionPause):
			}
		}
	}

	strategy, err := NewStrategyAgent(p.Provider).Invoke(ctx, in)
	if err != nil {
		strategy = models.PlaceholderContent(sectionStrategyKey)
	}
	report.Strategy = strategy
	in.PriorSections[sectionStrategyKey] = models.SectionOutput{Section: sectionStrategyKey, Content: strategy}

	summary, rating, err := RunSummaryLoop(ctx, NewOptimizerAgent(p.Provider), NewEvaluatorAgent(p.Provider), in, p.evaluatorRounds())
	if err != nil && summary == "" {
		summary = "Summary unavailable"
	}
	report.Summary = summary
	report.SummaryRating = string(rating)

	if language != "" && language != "en" {
		translated, terr := NewTranslatorAgent(p.Provider).Translate(ctx, in, summary, language)
		if terr == nil {
			report.Translated = map[string]string{language: translated}
		}
	}

	return report, nil
}

// runSection handles market_index_analysis's per-session cache and every
// section's retry-then-placeholder degradation.
func (p *Pipeline) runSection(ctx context.Context, sectionID models.SectionID, in Input) models.SectionOutput {
	if sectionID == models.SectionMarketIndex && p.MarketSession != nil {
		cacheKey := string(in.Ticker.Realm)
		if cached, ok := p.MarketSession.CachedMarketIndex(cacheKey); ok {
			return models.SectionOutput{Section: sectionID, Content: cached}
		}
		content, failed, errMsg := p.invokeWithRetry(ctx, sectionID, in)
		if !failed {
			p.MarketSession.StoreMarketIndex(cacheKey, content)
		}
		return models.SectionOutput{Section: sectionID, Content: content, Failed: failed, Err: errMsg}
	}

	content, failed, errMsg := p.invokeWithRetry(ctx, sectionID, in)
	return models.SectionOutput{Section: sectionID, Content: content, Failed: failed, Err: errMsg}
}

// invokeWithRetry retries a Transient section failure up to MaxSectionRetries
// times with exponential backoff, then degrades to a placeholder (§4.3/§7).
func (p *Pipeline) invokeWithRetry(ctx context.Context, sectionID models.SectionID, in Input) (content string, failed bool, errMsg string) {
	factory, ok := Registry[sectionID]
	if !ok {
		return models.PlaceholderContent(sectionID), true, "no agent registered"
	}
	agent := factory(p.Provider)

	var lastErr error
	backoff := 2 * time.Second
	for attempt := 0; attempt <= p.maxRetries(); attempt++ {
		out, err := agent.Invoke(ctx, in)
		if err == nil {
			return out, false, ""
		}
		lastErr = err
		if !errs.IsRetryable(err) || attempt == p.maxRetries() {
			break
		}
		select {
		case <-ctx.Done():
			return models.PlaceholderContent(sectionID), true, ctx.Err().Error()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return models.PlaceholderContent(sectionID), true, lastErr.Error()
}

func (p *Pipeline) maxRetries() int {
	if p.MaxSectionRetries > 0 {
		return p.MaxSectionRetries
	}
	return 2
}

func (p *Pipeline) evaluatorRounds() int {
	if p.MaxEvaluatorRounds > 0 {
		return p.MaxEvaluatorRounds
	}
	return 3
}
