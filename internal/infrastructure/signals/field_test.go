package signals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
)

func fixedNoise(v float64) Noise {
	return func(float64) float64 { return v }
}

func TestCrowdDensity(t *testing.T) {
	tests := []struct {
		name  string
		point geo.Coordinate
		noise Noise
		want  float64
	}{
		{"at centre", geo.NewCoordinate(41.8818, -87.6231), NoNoise, 2.2},
		{"at centre with noise", geo.NewCoordinate(41.8818, -87.6231), fixedNoise(0.2), 2.4},
		{"0.01 deg away", geo.NewCoordinate(41.8918, -87.6231), NoNoise, 0.7},
		{"far away floors at base", geo.NewCoordinate(42.5, -88.0), NoNoise, 0.2},
		{"far away clamps at minimum", geo.NewCoordinate(42.5, -88.0), fixedNoise(-0.2), 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewCrowdDensity(tt.noise).Value(context.Background(), tt.point)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, v, 1e-9)
		})
	}
}

func TestCrimeRisk(t *testing.T) {
	tests := []struct {
		name  string
		point geo.Coordinate
		noise Noise
		want  float64
	}{
		{"at hotspot", geo.NewCoordinate(41.879, -87.630), NoNoise, 0.9},
		{"at hotspot capped", geo.NewCoordinate(41.879, -87.630), fixedNoise(0.15), 1.0},
		{"0.005 deg away", geo.NewCoordinate(41.884, -87.630), NoNoise, 0.3},
		{"far away", geo.NewCoordinate(42.5, -88.0), fixedNoise(-0.1), 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewCrimeRisk(tt.noise).Value(context.Background(), tt.point)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, v, 1e-9)
		})
	}
}

func TestUniformNoise_DeterministicAndBounded(t *testing.T) {
	a, b := UniformNoise(42), UniformNoise(42)
	for i := 0; i < 100; i++ {
		x := a(0.2)
		assert.Equal(t, x, b(0.2))
		assert.LessOrEqual(t, x, 0.2)
		assert.GreaterOrEqual(t, x, -0.2)
	}
}

func TestRandomNoise_Bounded(t *testing.T) {
	for i := 0; i < 100; i++ {
		x := RandomNoise(0.1)
		assert.LessOrEqual(t, x, 0.1)
		assert.GreaterOrEqual(t, x, -0.1)
	}
}

func TestField_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCrimeRisk(NoNoise).Value(ctx, geo.NewCoordinate(41.879, -87.630))
	assert.ErrorIs(t, err, context.Canceled)
}
