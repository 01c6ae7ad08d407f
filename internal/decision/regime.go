package decision

import (
	"strings"

	"github.com/hanriver/tradepilot/internal/models"
)

// ClassifyRegime derives a coarse market regime from the market_index_
// analysis section text. The section's own prose is the only macro signal
// the pipeline produces, so the decision gate reads directly off it rather
// than modeling a second, independent regime detector.
func ClassifyRegime(marketIndexAnalysis string) models.Regime {
	lower := strings.ToLower(marketIndexAnalysis)
	bullish := strings.Count(lower, "bull") + strings.Count(lower, "uptrend") + strings.Count(lower, "rally")
	bearish := strings.Count(lower, "bear") + strings.Count(lower, "downtrend") + strings.Count(lower, "selloff")

	switch {
	case bullish > bearish:
		return models.RegimeBull
	case bearish > bullish:
		return models.RegimeBear
	default:
		return models.RegimeSideways
	}
}
