// Package screener transforms a full-market snapshot into an ordered
// shortlist of at most three tickers, per §4.2.
package screener

import "gonum.org/v1/gonum/stat"

// norm is the trigger-internal min-max normalization of §4.2/GLOSSARY.
// An empty set normalizes everything to 0; a single-element set also
// normalizes to 0 (there is no spread to measure), matching the Boundary
// Behaviors of §8.
func norm(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) <= 1 {
		return out // all zero
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return out // constant set => 0 for all, per §8
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// mean is exposed for market_mean_volume (§4.2 step 1) via gonum/stat so the
// "absolute filters" threshold is computed the same way aristath-sentinel
// computes its rolling statistics.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
