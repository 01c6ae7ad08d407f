// Package orchestrator is the thin session coordinator of §4.6: it threads
// screen -> report -> decide -> persist -> (emit) end to end for one
// (realm, mode) session, isolating per-ticker failures.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hanriver/tradepilot/internal/agents"
	"github.com/hanriver/tradepilot/internal/broker"
	"github.com/hanriver/tradepilot/internal/decision"
	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/logging"
	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/memory"
	"github.com/hanriver/tradepilot/internal/messaging"
	"github.com/hanriver/tradepilot/internal/models"
	"github.com/hanriver/tradepilot/internal/screener"
	"github.com/hanriver/tradepilot/internal/tools"
)

// Options parameterize one run_session call.
type Options struct {
	Language           string
	BroadcastLanguages []string
	MessagingEnabled   bool
	DryRun             bool
	TradingMode        broker.Mode
}

// Orchestrator owns the collaborators one session needs: a market client,
// an LLM provider, tool services, a trading-memory store, a messaging
// sink, and a broker adapter. It is constructed once per realm for one CLI
// invocation, runs that invocation's sessions, and is then discarded;
// there is no process-wide singleton (§9).
type Orchestrator struct {
	Client   market.Client
	Provider llm.Provider
	Tools    tools.Services
	Store    *memory.Store
	Sink     messaging.Sink
	Broker   broker.Adapter
	Log      zerolog.Logger

	InterSectionPause  time.Duration
	MaxSectionRetries  int
	MaxEvaluatorRounds int
	SectionTimeout     time.Duration

	// MaxParallelTickers bounds how many tickers' agent pipelines run at
	// once (§5's concurrency open question); 0 or 1 means sequential, and
	// values above 3 are capped at 3.
	MaxParallelTickers int
}

// RunSession implements run_session(mode, realm, language, options), §4.6.
func (o *Orchestrator) RunSession(ctx context.Context, realm models.Realm, session models.Session, opts Options) (models.SessionSummary, error) {
	now := time.Now()
	summary := models.SessionSummary{Realm: realm, Mode: session, StartedAt: now}

	calendar := o.Client.Calendar()
	if !calendar.IsTradingDay(now) {
		summary.NoOp = true
		summary.FinishedAt = time.Now()
		o.Log.Info().Str("realm", string(realm)).Msg("not a trading day, no-op")
		return summary, nil
	}

	referenceDate := calendar.NearestPastTradingDay(now)
	tradingDay := referenceDate.Format("2006-01-02")
	summary.TradingDay = tradingDay

	sessionLog := logging.ForSession(string(realm), string(session), tradingDay)
	o.Log = sessionLog

	marketSession := market.NewSession(o.Client)
	defer marketSession.Dispose()

	result, err := screener.Screen(ctx, marketSession, realm, session, tradingDay)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("screen: %v", err))
		summary.FinishedAt = time.Now()
		return summary, err
	}
	summary.Triggers = result.TriggerHits
	summary.Selected = result.Selected

	if opts.MessagingEnabled && !opts.DryRun {
		if err := o.Sink.SendText(ctx, "session-alerts", formatTriggerAlert(realm, session, result)); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("session-start alert: %v", err))
		}
	}

	pipeline := &agents.Pipeline{
		Provider:           o.Provider,
		Tools:              o.Tools,
		MarketSession:      marketSession,
		InterSectionPause:  o.InterSectionPause,
		MaxSectionRetries:  o.MaxSectionRetries,
		MaxEvaluatorRounds: o.MaxEvaluatorRounds,
		Timeout:            o.SectionTimeout,
	}

	bestHitByTicker := indexBestHit(result.TriggerHits)
	results := o.processTickers(ctx, pipeline, marketSession, realm, result.Selected, bestHitByTicker, referenceDate, opts)
	for _, res := range results {
		summary.Results = append(summary.Results, res)
		if res.Outcome == models.OutcomeFailed {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", res.Ticker, res.Reason))
		}
	}

	sellResults := o.runSellSweep(ctx, realm, referenceDate, opts)
	summary.Results = append(summary.Results, sellResults...)

	summary.FinishedAt = time.Now()
	return summary, nil
}

// processTickers runs processTicker over every selected ticker, bounded to
// MaxParallelTickers concurrent pipelines. Results preserve the input
// order regardless of completion order.
func (o *Orchestrator) processTickers(ctx context.Context, pipeline *agents.Pipeline, marketSession *market.Session,
	realm models.Realm, selected []models.Ticker, bestHitByTicker map[models.Ticker]models.TriggerHit,
	referenceDate time.Time, opts Options) []models.SessionResult {

	limit := o.MaxParallelTickers
	if limit <= 0 {
		limit = 1
	}
	if limit > 3 {
		limit = 3
	}

	results := make([]models.SessionResult, len(selected))
	semaphore := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, ticker := range selected {
		wg.Add(1)
		go func(idx int, ticker models.Ticker) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			results[idx] = o.processTicker(ctx, pipeline, marketSession, realm, ticker, bestHitByTicker[ticker], referenceDate, opts)
		}(i, ticker)
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) processTicker(ctx context.Context, pipeline *agents.Pipeline, marketSession *market.Session,
	realm models.Realm, ticker models.Ticker, hit models.TriggerHit, referenceDate time.Time, opts Options) models.SessionResult {

	res := models.SessionResult{Ticker: ticker}
	tickerLog := logging.ForTicker(o.Log, ticker.String())

	meta, err := o.Client.CompanyMeta(ctx, ticker)
	if err != nil {
		res.Outcome = models.OutcomeFailed
		res.Reason = fmt.Sprintf("company_meta: %v", err)
		return res
	}

	tradingDay := referenceDate.Format("2006-01-02")
	snaps, err := marketSession.Snapshot(ctx, tradingDay)
	if err != nil {
		res.Outcome = models.OutcomeFailed
		res.Reason = fmt.Sprintf("snapshot: %v", err)
		return res
	}
	snap := snaps[ticker]

	start := referenceDate.AddDate(0, 0, -20).Format("2006-01-02")
	bars, err := o.Client.OHLCV(ctx, ticker, start, tradingDay)
	if err != nil {
		tickerLog.Warn().Err(err).Msg("ohlcv fetch failed, continuing with empty bars")
	}
	holders, err := o.Client.InstitutionalHolders(ctx, ticker)
	if err != nil {
		tickerLog.Warn().Err(err).Msg("holders fetch failed, continuing without them")
	}

	report, err := pipeline.Run(ctx, ticker, meta, snap, bars, holders, referenceDate, opts.Language)
	if err != nil {
		res.Outcome = models.OutcomeFailed
		res.Reason = fmt.Sprintf("agent pipeline: %v", err)
		return res
	}

	if opts.MessagingEnabled && !opts.DryRun {
		if err := o.Sink.SendText(ctx, "reports", report.Summary); err != nil {
			tickerLog.Warn().Err(err).Msg("broadcast failed")
		}
		for _, lang := range opts.BroadcastLanguages {
			if translated, ok := report.Translated[lang]; ok {
				if err := o.Sink.SendText(ctx, "reports-"+lang, translated); err != nil {
					tickerLog.Warn().Err(err).Str("language", lang).Msg("translated broadcast failed")
				}
			}
		}
	}

	if opts.DryRun {
		res.Outcome = models.OutcomeSkipped
		res.Reason = "dry run"
		return res
	}

	portfolio, err := o.currentPortfolio(ctx, realm)
	if err != nil {
		res.Outcome = models.OutcomeFailed
		res.Reason = fmt.Sprintf("load portfolio: %v", err)
		return res
	}

	regime := decision.ClassifyRegime(report.Sections[models.SectionMarketIndex].Content)

	buyDecision, err := decision.Buy(ctx, o.Provider, o.SectionTimeout, o.Store, ticker, report, hit, meta.Sector, portfolio, regime, referenceDate)
	if err != nil {
		res.Outcome = models.OutcomeFailed
		res.Reason = fmt.Sprintf("buy workflow: %v", err)
		return res
	}

	switch buyDecision.Outcome {
	case models.OutcomeBought:
		if err := o.Store.UpsertHolding(ctx, buyDecision.Holding); err != nil {
			res.Outcome = models.OutcomeFailed
			res.Reason = fmt.Sprintf("persist holding: %v", err)
			return res
		}
	default:
		if buyDecision.Watchlist.Ticker.Valid() {
			if err := o.Store.UpsertWatchlistEntry(ctx, buyDecision.Watchlist); err != nil {
				tickerLog.Warn().Err(err).Msg("persist watchlist entry failed")
			}
		}
	}

	res.Outcome = buyDecision.Outcome
	res.Reason = buyDecision.Reason
	return res
}

func (o *Orchestrator) currentPortfolio(ctx context.Context, realm models.Realm) (models.Portfolio, error) {
	holdings, err := o.Store.Holdings(ctx, realm)
	if err != nil {
		return models.Portfolio{}, err
	}
	return models.Portfolio{Holdings: holdings}, nil
}

func indexBestHit(triggerHits map[string][]models.TriggerHit) map[models.Ticker]models.TriggerHit {
	best := make(map[models.Ticker]models.TriggerHit)
	for _, hits := range triggerHits {
		for _, h := range hits {
			if existing, ok := best[h.Ticker]; !ok || h.FinalScore > existing.FinalScore {
				best[h.Ticker] = h
			}
		}
	}
	return best
}

func formatTriggerAlert(realm models.Realm, session models.Session, result screener.Result) string {
	return fmt.Sprintf("session start: %s/%s — %d tickers selected", realm, session, len(result.Selected))
}
