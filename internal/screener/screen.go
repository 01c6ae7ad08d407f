package screener

import (
	"context"

	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/models"
)

// MaxSelected is the hard cap on a session's final selected set (§4.2,
// §8: |selected_tickers| <= 3).
const MaxSelected = 3

// Result is one session's full screening output: every trigger's ordered
// hits, plus the final deduplicated selection.
type Result struct {
	TriggerHits map[string][]models.TriggerHit
	Selected    []models.Ticker
}

// Screen runs the full §4.2 pipeline for one session: absolute filters,
// liquidity tail cut, trigger evaluation, agent-fit scoring, and final
// selection with cross-trigger dedup.
func Screen(ctx context.Context, sess *market.Session, realm models.Realm, session models.Session, tradingDay string) (Result, error) {
	snaps, err := sess.Snapshot(ctx, tradingDay)
	if err != nil {
		return Result{}, err
	}
	prevSnaps, err := sess.PreviousSnapshot(ctx, tradingDay)
	if err != nil {
		return Result{}, err
	}
	merged := mergePrevVolume(snaps, prevSnaps)

	candidates := absoluteFilters(realm, merged)

	triggers := TriggersFor(session)
	hitsByTrigger := make(map[string][]models.TriggerHit, len(triggers))
	for _, t := range triggers {
		hits := t.Evaluate(tradingDay, candidates)
		if len(hits) == 0 {
			continue // a trigger with zero candidates does not fail the session
		}
		scored := ScoreAgentFit(ctx, sess, hits, tradingDay)
		hitsByTrigger[t.Name] = sortByFinalDesc(scored)
	}

	selected := selectFinal(triggers, hitsByTrigger, MaxSelected)

	return Result{TriggerHits: hitsByTrigger, Selected: selected}, nil
}

// mergePrevVolume folds previous-day volume into today's snapshots so
// VolumeRatioVsPrev is computable; the Market Data Client returns the two
// snapshots independently (§4.1).
func mergePrevVolume(today, prev map[models.Ticker]models.Snapshot) map[models.Ticker]models.Snapshot {
	out := make(map[models.Ticker]models.Snapshot, len(today))
	for tk, s := range today {
		if p, ok := prev[tk]; ok {
			s.PrevVolume = p.Volume
			if s.PrevClose == 0 {
				s.PrevClose = p.Close
			}
		}
		out[tk] = s
	}
	return out
}

func sortByFinalDesc(hits []models.TriggerHit) []models.TriggerHit {
	out := make([]models.TriggerHit, len(hits))
	copy(out, hits)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].FinalScore > out[j-1].FinalScore; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// selectFinal picks the top-1 candidate per trigger, merges across triggers
// with first-occurrence dedup, and backfills from next-best candidates
// until maxSelected distinct tickers are chosen or candidates are
// exhausted, per §4.2 step 6.
func selectFinal(triggers []Trigger, hitsByTrigger map[string][]models.TriggerHit, maxSelected int) []models.Ticker {
	seen := make(map[models.Ticker]bool)
	selected := make([]models.Ticker, 0, maxSelected)

	take := func(t models.Ticker) bool {
		if seen[t] || len(selected) >= maxSelected {
			return false
		}
		seen[t] = true
		selected = append(selected, t)
		return true
	}

	// Pass 1: top-1 per trigger, in the trigger's declared order.
	for _, t := range triggers {
		hits := hitsByTrigger[t.Name]
		if len(hits) == 0 {
			continue
		}
		take(hits[0].Ticker)
	}

	// Pass 2: backfill from next-best candidates across all triggers until
	// full or exhausted.
	if len(selected) < maxSelected {
		rank := 1
		progress := true
		for len(selected) < maxSelected && progress {
			progress = false
			for _, t := range triggers {
				hits := hitsByTrigger[t.Name]
				if rank >= len(hits) {
					continue
				}
				if take(hits[rank].Ticker) {
					progress = true
				}
			}
			rank++
		}
	}

	return selected
}
