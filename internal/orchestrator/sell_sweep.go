package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/hanriver/tradepilot/internal/decision"
	"github.com/hanriver/tradepilot/internal/models"
)

// runSellSweep implements §4.6 step 6's sell sweep: evaluate every existing
// Holding for realm independent of what the screener surfaced this
// session. Sells complete fully before the next ticker is considered (§5).
func (o *Orchestrator) runSellSweep(ctx context.Context, realm models.Realm, referenceDate time.Time, opts Options) []models.SessionResult {
	holdings, err := o.Store.Holdings(ctx, realm)
	if err != nil {
		return []models.SessionResult{{Outcome: models.OutcomeFailed, Reason: fmt.Sprintf("load holdings: %v", err)}}
	}

	var results []models.SessionResult
	for _, h := range holdings {
		res := models.SessionResult{Ticker: h.Ticker}

		price, err := o.currentPrice(ctx, h.Ticker, referenceDate)
		if err != nil {
			res.Outcome = models.OutcomeFailed
			res.Reason = fmt.Sprintf("price refresh: %v", err)
			results = append(results, res)
			continue
		}

		if opts.DryRun {
			res.Outcome = models.OutcomeHeld
			res.Reason = "dry run"
			results = append(results, res)
			continue
		}

		disposition, err := decision.Sell(ctx, o.Provider, o.SectionTimeout, o.Store, h, price, referenceDate)
		if err != nil {
			res.Outcome = models.OutcomeFailed
			res.Reason = fmt.Sprintf("sell workflow: %v", err)
			results = append(results, res)
			continue
		}

		switch disposition.Outcome {
		case models.OutcomeSold:
			if err := o.Store.InsertTrade(ctx, disposition.Trade); err != nil {
				res.Outcome = models.OutcomeFailed
				res.Reason = fmt.Sprintf("persist trade: %v", err)
				results = append(results, res)
				continue
			}
			if err := o.Store.DeleteHolding(ctx, h.ID); err != nil {
				o.Log.Warn().Err(err).Str("holding", h.ID).Msg("delete holding after sell failed")
			}
			if _, err := o.Store.WriteJournal(ctx, o.Provider, o.SectionTimeout, disposition.Trade,
				h.Scenario.Rationale, disposition.Reason); err != nil {
				o.Log.Warn().Err(err).Str("ticker", h.Ticker.String()).Msg("write_journal failed")
			}
			res.Outcome = models.OutcomeSold
			res.Reason = disposition.Reason
		default:
			if err := o.Store.UpsertHolding(ctx, disposition.UpdatedHolding); err != nil {
				o.Log.Warn().Err(err).Str("holding", h.ID).Msg("persist held-position update failed")
			}
			res.Outcome = models.OutcomeHeld
			res.Reason = disposition.Reason
		}
		results = append(results, res)
	}
	return results
}

func (o *Orchestrator) currentPrice(ctx context.Context, ticker models.Ticker, referenceDate time.Time) (float64, error) {
	tradingDay := referenceDate.Format("2006-01-02")
	snaps, err := o.Client.Snapshot(ctx, tradingDay)
	if err != nil {
		return 0, err
	}
	snap, ok := snaps[ticker]
	if !ok {
		return 0, fmt.Errorf("no current snapshot for %s", ticker)
	}
	return snap.Close, nil
}
