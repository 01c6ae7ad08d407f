package screener

import "github.com/hanriver/tradepilot/internal/models"

// Trigger is an independent predicate + composite scoring function over a
// session's filtered candidate set, per §4.2 step 3.
type Trigger struct {
	Name    string
	Session models.Session
	Predicate func(s models.Snapshot) bool
	// Score computes the composite score given the pre-normalized metric
	// columns for the whole candidate set; idx is this snapshot's index
	// into those columns.
	Score func(cols triggerColumns, idx int) float64
}

// triggerColumns holds the min-max normalized metric columns shared by a
// trigger's Score function, computed once per trigger evaluation.
type triggerColumns struct {
	normVolumeRatio []float64
	normVolume      []float64
	normGapRate     []float64
	normIntraday    []float64
	normTradedValue []float64
	normValueToCap  []float64
	normChangeRate  []float64
	normClosingStr  []float64
}

func buildColumns(snaps []models.Snapshot) triggerColumns {
	n := len(snaps)
	volRatio := make([]float64, n)
	vol := make([]float64, n)
	gap := make([]float64, n)
	intraday := make([]float64, n)
	tradedValue := make([]float64, n)
	valueToCap := make([]float64, n)
	changeRate := make([]float64, n)
	closingStr := make([]float64, n)

	for i, s := range snaps {
		volRatio[i] = s.VolumeRatioVsPrev()
		vol[i] = float64(s.Volume)
		gap[i] = s.GapRate()
		intraday[i] = s.IntradayRate()
		tradedValue[i] = s.TradedValue
		valueToCap[i] = s.ValueToCapRatio()
		changeRate[i] = s.ChangeRate()
		closingStr[i] = s.ClosingStrength()
	}

	return triggerColumns{
		normVolumeRatio: norm(volRatio),
		normVolume:      norm(vol),
		normGapRate:     norm(gap),
		normIntraday:    norm(intraday),
		normTradedValue: norm(tradedValue),
		normValueToCap:  norm(valueToCap),
		normChangeRate:  norm(changeRate),
		normClosingStr:  norm(closingStr),
	}
}

// MorningTriggers is the fixed set of morning-session triggers (§4.2).
var MorningTriggers = []Trigger{
	{
		Name:    "volume_surge",
		Session: models.SessionMorning,
		Predicate: func(s models.Snapshot) bool {
			return s.VolumeRatioVsPrev() >= 1.3 && s.Close > s.Open
		},
		Score: func(c triggerColumns, i int) float64 {
			return 0.6*c.normVolumeRatio[i] + 0.4*c.normVolume[i]
		},
	},
	{
		Name:    "gap_up_momentum",
		Session: models.SessionMorning,
		Predicate: func(s models.Snapshot) bool {
			return s.GapRate() >= 0.01 && s.Close > s.Open
		},
		Score: func(c triggerColumns, i int) float64 {
			return 0.5*c.normGapRate[i] + 0.3*c.normIntraday[i] + 0.2*c.normTradedValue[i]
		},
	},
	{
		Name:    "value_to_cap",
		Session: models.SessionMorning,
		Predicate: func(s models.Snapshot) bool {
			return s.Close > s.Open
		},
		Score: func(c triggerColumns, i int) float64 {
			return 0.5*c.normValueToCap[i] + 0.3*c.normTradedValue[i] + 0.2*c.normIntraday[i]
		},
	},
}

// AfternoonTriggers is the fixed set of afternoon-session triggers (§4.2).
var AfternoonTriggers = []Trigger{
	{
		Name:    "intraday_rise",
		Session: models.SessionAfternoon,
		Predicate: func(s models.Snapshot) bool {
			cr := s.ChangeRate()
			return cr >= 0.03 && cr <= 0.20
		},
		Score: func(c triggerColumns, i int) float64 {
			return 0.6*c.normChangeRate[i] + 0.4*c.normTradedValue[i]
		},
	},
	{
		Name:    "closing_strength",
		Session: models.SessionAfternoon,
		Predicate: func(s models.Snapshot) bool {
			return s.VolumeRatioVsPrev() > 1.0 && s.Close > s.Open
		},
		Score: func(c triggerColumns, i int) float64 {
			return 0.5*c.normClosingStr[i] + 0.3*c.normVolumeRatio[i] + 0.2*c.normTradedValue[i]
		},
	},
	{
		Name:    "volume_surge_sideways",
		Session: models.SessionAfternoon,
		Predicate: func(s models.Snapshot) bool {
			cr := s.ChangeRate()
			return s.VolumeRatioVsPrev() >= 1.5 && cr <= 0.05 && cr >= -0.05
		},
		Score: func(c triggerColumns, i int) float64 {
			return 0.6*c.normVolumeRatio[i] + 0.4*c.normTradedValue[i]
		},
	},
}

// TriggersFor returns the fixed trigger set for a session.
func TriggersFor(session models.Session) []Trigger {
	if session == models.SessionMorning {
		return MorningTriggers
	}
	return AfternoonTriggers
}

// Evaluate runs one trigger over the filtered candidate set, returning hits
// ordered by composite score descending. A trigger with zero matches
// contributes nothing and does not fail the session (§4.2 failure
// semantics).
func (t Trigger) Evaluate(tradingDay string, snaps []models.Snapshot) []models.TriggerHit {
	matched := make([]models.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if t.Predicate(s) {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	cols := buildColumns(matched)
	hits := make([]models.TriggerHit, len(matched))
	for i, s := range matched {
		hits[i] = models.TriggerHit{
			TriggerName:    t.Name,
			Ticker:         s.Ticker,
			TradingDay:     tradingDay,
			CompositeScore: t.Score(cols, i),
			Metrics: map[string]float64{
				"change_rate":          s.ChangeRate(),
				"gap_rate":             s.GapRate(),
				"intraday_rate":        s.IntradayRate(),
				"volume_ratio_vs_prev": s.VolumeRatioVsPrev(),
				"value_to_cap_ratio":   s.ValueToCapRatio(),
				"closing_strength":     s.ClosingStrength(),
				"traded_value":         s.TradedValue,
			},
		}
	}
	sortHitsDesc(hits, func(h models.TriggerHit) float64 { return h.CompositeScore })
	return hits
}

func sortHitsDesc(hits []models.TriggerHit, key func(models.TriggerHit) float64) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && key(hits[j]) > key(hits[j-1]); j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}
