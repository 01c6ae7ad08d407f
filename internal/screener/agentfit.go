package screener

import (
	"context"

	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/models"
)

// topNByComposite returns the top n hits by composite score (already
// sorted descending by Evaluate).
func topNByComposite(hits []models.TriggerHit, n int) []models.TriggerHit {
	if len(hits) <= n {
		return hits
	}
	return hits[:n]
}

// ScoreAgentFit fills in each candidate's stop/target/risk-reward/agent-fit
// fields per §4.2 step 4, using a 10-day OHLCV window fetched per ticker.
func ScoreAgentFit(ctx context.Context, sess *market.Session, hits []models.TriggerHit, tradingDay string) []models.TriggerHit {
	top := topNByComposite(hits, 10)
	out := make([]models.TriggerHit, 0, len(top))

	for _, h := range top {
		policy, ok := models.Policies[h.TriggerName]
		if !ok {
			continue
		}

		bars, err := sess.Client().OHLCV(ctx, h.Ticker, windowStart(tradingDay, 10), tradingDay)
		if err != nil || len(bars) == 0 {
			// an upstream failure for one candidate isolates to that
			// candidate, per §4.2 failure semantics.
			continue
		}
		if len(bars) > 10 {
			bars = bars[len(bars)-10:]
		}

		current := bars[len(bars)-1].Close
		highMax := bars[0].High
		for _, b := range bars {
			if b.High > highMax {
				highMax = b.High
			}
		}

		stop := current * (1 - policy.SLMax)
		target := highMax
		if floor := current * 1.15; target < floor {
			target = floor
		}

		risk := current - stop
		riskReward := 0.0
		if risk > 0 {
			riskReward = (target - current) / risk
		}
		rrScore := riskReward / policy.RRTarget
		if rrScore > 1.0 {
			rrScore = 1.0
		}
		slScore := 1.0
		agentFit := 0.6*rrScore + 0.4*slScore

		h.StopLossPrice = stop
		h.TargetPrice = target
		h.RiskReward = riskReward
		h.AgentFitScore = agentFit
		h.FinalScore = 0.3*h.CompositeScore + 0.7*agentFit
		out = append(out, h)
	}
	return out
}

// windowStart returns a date string days*2 *calendar* days before
// tradingDay, enough to cover days trading days across weekends; the
// OHLCV client itself trims to the realm's actual listing range.
func windowStart(tradingDay string, days int) string {
	t, err := parseDay(tradingDay)
	if err != nil {
		return tradingDay
	}
	return t.AddDate(0, 0, -days*2).Format("2006-01-02") // *2 to absorb weekends
}
