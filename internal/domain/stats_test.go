package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean_Basic(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
}

func TestMean_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
}

func TestStdDev_Constant(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{5, 5, 5}))
}

func TestStdDev_TooFewPoints(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{1}))
}

func TestSumAbsDelta_Basic(t *testing.T) {
	// |0.52-0.50| + |0.49-0.52| = 0.02 + 0.03
	assert.InDelta(t, 0.05, SumAbsDelta([]float64{0.50, 0.52, 0.49}), 1e-9)
}

func TestSumAbsDelta_SinglePoint(t *testing.T) {
	assert.Equal(t, 0.0, SumAbsDelta([]float64{0.50}))
}

// --- Correlation ---

func TestCorrelation_Perfect(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{2, 4, 6, 8}
	assert.InDelta(t, 1.0, Correlation(xs, ys), 1e-9)
}

func TestCorrelation_Inverse(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{8, 6, 4, 2}
	assert.InDelta(t, -1.0, Correlation(xs, ys), 1e-9)
}

func TestCorrelation_ZeroVariance(t *testing.T) {
	assert.Equal(t, 0.0, Correlation([]float64{1, 2, 3}, []float64{5, 5, 5}))
}

func TestCorrelation_TooFewPoints(t *testing.T) {
	assert.Equal(t, 0.0, Correlation([]float64{1}, []float64{2}))
}

func TestCorrelation_LengthMismatch(t *testing.T) {
	assert.Equal(t, 0.0, Correlation([]float64{1, 2}, []float64{1, 2, 3}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.01, Clamp(-0.5, 0.01, 0.99))
	assert.Equal(t, 0.99, Clamp(1.2, 0.01, 0.99))
	assert.Equal(t, 0.42, Clamp(0.42, 0.01, 0.99))
}
