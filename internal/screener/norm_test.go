package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormBoundaryBehaviors(t *testing.T) {
	t.Run("empty set normalizes to empty", func(t *testing.T) {
		got := norm(nil)
		assert.Empty(t, got)
	})

	t.Run("single-element set normalizes to zero", func(t *testing.T) {
		got := norm([]float64{42})
		assert.Equal(t, []float64{0}, got)
	})

	t.Run("constant set normalizes all to zero", func(t *testing.T) {
		got := norm([]float64{7, 7, 7})
		assert.Equal(t, []float64{0, 0, 0}, got)
	})

	t.Run("spread values normalize to [0,1]", func(t *testing.T) {
		got := norm([]float64{0, 5, 10})
		assert.Equal(t, []float64{0, 0.5, 1}, got)
	})

	t.Run("unordered values normalize relative to min/max", func(t *testing.T) {
		got := norm([]float64{10, 0, 20})
		assert.Equal(t, []float64{0.5, 0, 1}, got)
	})
}

func TestMeanBoundaryBehaviors(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 0.0, mean([]float64{}))
	assert.Equal(t, 5.0, mean([]float64{5}))
	assert.InDelta(t, 2.0, mean([]float64{1, 2, 3}), 1e-9)
}
