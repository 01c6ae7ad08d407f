package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hanriver/tradepilot/internal/models"
)

func hit(code string, final float64) models.TriggerHit {
	return models.TriggerHit{Ticker: models.Ticker{Realm: models.RealmUS, Code: code}, FinalScore: final}
}

func TestSortByFinalDescIsMonotonicAndLeavesInputUntouched(t *testing.T) {
	in := []models.TriggerHit{hit("A", 0.3), hit("B", 0.9), hit("C", 0.6)}
	out := sortByFinalDesc(in)

	assert.Equal(t, []float64{0.9, 0.6, 0.3}, []float64{out[0].FinalScore, out[1].FinalScore, out[2].FinalScore})
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].FinalScore, out[i].FinalScore)
	}
	// input slice is untouched
	assert.Equal(t, 0.3, in[0].FinalScore)
}

func TestSortByFinalDescEmptyAndSingle(t *testing.T) {
	assert.Empty(t, sortByFinalDesc(nil))
	single := sortByFinalDesc([]models.TriggerHit{hit("A", 1)})
	assert.Len(t, single, 1)
}

func TestSelectFinalDedupsAcrossTriggers(t *testing.T) {
	triggers := []Trigger{{Name: "volume_surge"}, {Name: "gap_up_momentum"}}
	hits := map[string][]models.TriggerHit{
		"volume_surge":    {hit("A", 0.9), hit("B", 0.5)},
		"gap_up_momentum": {hit("A", 0.8), hit("C", 0.4)},
	}

	selected := selectFinal(triggers, hits, MaxSelected)

	assert.LessOrEqual(t, len(selected), MaxSelected)
	seen := make(map[models.Ticker]bool)
	for _, tk := range selected {
		assert.False(t, seen[tk], "duplicate ticker %v in selection", tk)
		seen[tk] = true
	}
	// "A" is each trigger's top pick so it must be first.
	assert.Equal(t, models.Ticker{Realm: models.RealmUS, Code: "A"}, selected[0])
}

func TestSelectFinalNeverExceedsMax(t *testing.T) {
	triggers := []Trigger{{Name: "t1"}, {Name: "t2"}, {Name: "t3"}, {Name: "t4"}}
	hits := map[string][]models.TriggerHit{
		"t1": {hit("A", 1), hit("B", 0.9)},
		"t2": {hit("C", 1), hit("D", 0.9)},
		"t3": {hit("E", 1), hit("F", 0.9)},
		"t4": {hit("G", 1), hit("H", 0.9)},
	}

	selected := selectFinal(triggers, hits, MaxSelected)
	assert.Len(t, selected, MaxSelected)
}

func TestSelectFinalHandlesEmptyHits(t *testing.T) {
	triggers := []Trigger{{Name: "volume_surge"}}
	selected := selectFinal(triggers, map[string][]models.TriggerHit{}, MaxSelected)
	assert.Empty(t, selected)
}
