package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitExact(t *testing.T) {
	samples := make([]Sample, 0, 20)
	for i := 0; i < 20; i++ {
		eff, hour := float64(i), float64((i*7)%24)
		samples = append(samples, Sample{Effective: eff, Hour: hour, Green: 12 + 0.8*eff + 0.25*hour})
	}
	r := NewRegression(1)
	require.NoError(t, r.Fit(samples))
	b0, b1, b2, err := r.Coefficients()
	require.NoError(t, err)
	assert.InDelta(t, 12., b0, 1e-6)
	assert.InDelta(t, 0.8, b1, 1e-6)
	assert.InDelta(t, 0.25, b2, 1e-6)
}

func TestFitNotEnoughSamples(t *testing.T) {
	r := NewRegression(1)
	assert.ErrorIs(t, r.Fit([]Sample{{1, 2, 3}}), ErrNotEnoughSamples)
	_, _, _, err := r.Coefficients()
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestTrainSynthetic(t *testing.T) {
	samples := SyntheticSamples(42)
	assert.Len(t, samples, 100)
	for _, s := range samples {
		assert.GreaterOrEqual(t, s.Effective, 0.)
		assert.Less(t, s.Effective, 30.)
		assert.Equal(t, float64(int(s.Effective)), s.Effective)
		assert.GreaterOrEqual(t, s.Hour, 0.)
		assert.Less(t, s.Hour, 24.)
	}
	// 相同种子可复现
	assert.Equal(t, samples, SyntheticSamples(42))

	r := NewRegression(42)
	require.NoError(t, r.TrainSynthetic())
	b0, b1, _, err := r.Coefficients()
	require.NoError(t, err)
	assert.InDelta(t, 10., b0, 3)
	assert.InDelta(t, 0.5, b1, 0.15)
}

func TestPredictLazyTrainAndClamp(t *testing.T) {
	r := NewRegression(7)
	assert.False(t, r.Trained())
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.Local)

	got := r.PredictOptimalGreen(10, now)
	assert.True(t, r.Trained())
	assert.InDelta(t, 16., got, 4)

	assert.Equal(t, MaxGreen, r.PredictOptimalGreen(1000, now))
	assert.Equal(t, MinGreen, r.PredictOptimalGreen(-1000, now))
}
