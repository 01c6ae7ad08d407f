package memory

import (
	"context"

	"github.com/hanriver/tradepilot/internal/models"
)

// minSampleSize is the n the spec requires before PerformanceStats
// publishes a result (§4.4): below this, a tiny sample would be noise.
const minSampleSize = 3

// PerformanceStats implements performance_stats(trigger_type) over the
// closed trades of the trigger, present only when at least minSampleSize
// of them exist. WinRate is the share of trades with a positive realized
// profit; Avg7D/Avg14D/Avg30D are the mean realized profit rate of the
// trades held at least 7/14/30 calendar days. The performance_tracker
// rows are not read.
func (s *Store) PerformanceStats(ctx context.Context, realm models.Realm, triggerType string) (models.PerformanceStats, bool, error) {
	trades, err := s.TradesByTriggerType(ctx, realm, triggerType)
	if err != nil {
		return models.PerformanceStats{}, false, err
	}
	if len(trades) < minSampleSize {
		return models.PerformanceStats{}, false, nil
	}

	wins := 0
	var sum7, sum14, sum30 float64
	var n7, n14, n30 int
	for _, t := range trades {
		if t.ProfitRate > 0 {
			wins++
		}
		days := t.HoldingDays
		switch {
		case days >= 30:
			sum30 += t.ProfitRate
			n30++
			fallthrough
		case days >= 14:
			sum14 += t.ProfitRate
			n14++
			fallthrough
		case days >= 7:
			sum7 += t.ProfitRate
			n7++
		}
	}

	stats := models.PerformanceStats{
		N:       len(trades),
		WinRate: float64(wins) / float64(len(trades)),
	}
	if n7 > 0 {
		stats.Avg7D = sum7 / float64(n7)
	}
	if n14 > 0 {
		stats.Avg14D = sum14 / float64(n14)
	}
	if n30 > 0 {
		stats.Avg30D = sum30 / float64(n30)
	}
	return stats, true, nil
}
