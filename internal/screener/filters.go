package screener

import (
	"sort"

	"github.com/hanriver/tradepilot/internal/models"
)

// RealmFloors are the realm-specific V_min/C_min parameters of §4.2 step 1.
type RealmFloors struct {
	MinTradedValue float64
	MinMarketCap   float64
}

var Floors = map[models.Realm]RealmFloors{
	models.RealmKR: {MinTradedValue: 10_000_000_000.0, MinMarketCap: 500_000_000_000.0},
	models.RealmUS: {MinTradedValue: 100_000_000.0, MinMarketCap: 5_000_000_000.0},
}

// absoluteFilters applies §4.2 step 1's shared predicates plus the step-2
// liquidity tail cut (drop the bottom 20% by volume), returning the
// surviving candidate snapshots.
func absoluteFilters(realm models.Realm, snaps map[models.Ticker]models.Snapshot) []models.Snapshot {
	floors := Floors[realm]

	volumes := make([]float64, 0, len(snaps))
	for _, s := range snaps {
		volumes = append(volumes, float64(s.Volume))
	}
	marketMeanVolume := mean(volumes)

	candidates := make([]models.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if s.TradedValue < floors.MinTradedValue {
			continue
		}
		if float64(s.Volume) < 0.2*marketMeanVolume {
			continue
		}
		if s.MarketCap < floors.MinMarketCap {
			continue
		}
		cr := s.ChangeRate()
		if cr > 0.20 || cr < -0.20 {
			continue
		}
		candidates = append(candidates, s)
	}

	return liquidityTailCut(candidates)
}

// liquidityTailCut drops the bottom 20% by volume (§4.2 step 2).
func liquidityTailCut(candidates []models.Snapshot) []models.Snapshot {
	if len(candidates) == 0 {
		return candidates
	}
	sorted := make([]models.Snapshot, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Volume < sorted[j].Volume })

	cut := len(sorted) / 5 // bottom 20%
	return sorted[cut:]
}
