package signals

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
)

// Noise は[-amplitude, amplitude]の値を返すノイズ源
type Noise func(amplitude float64) float64

// NoNoise はノイズを加えない（テスト用）
func NoNoise(float64) float64 { return 0 }

// UniformNoise は一様分布のノイズ源を返す。seedが同じなら同じ系列になる。
func UniformNoise(seed uint64) Noise {
	var mu sync.Mutex
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func(amplitude float64) float64 {
		mu.Lock()
		defer mu.Unlock()
		return (r.Float64()*2 - 1) * amplitude
	}
}

// RandomNoise はプロセス共有の乱数源を使うノイズ源
func RandomNoise(amplitude float64) float64 {
	return (rand.Float64()*2 - 1) * amplitude
}

// Field は中心点からの距離で減衰する擬似的な信号。
// 値は peak - 距離(度)*falloff を baseFloor で下支えし、ノイズを加えて[min, max]に収め、小数2桁に丸める。
type Field struct {
	Center    geo.Coordinate
	Peak      float64
	Falloff   float64
	BaseFloor float64
	Min       float64
	Max       float64
	Amplitude float64
	Noise     Noise
}

// Value は地点の信号値を返す
func (f *Field) Value(ctx context.Context, point geo.Coordinate) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dist := math.Hypot(point.Lat-f.Center.Lat, point.Lng-f.Center.Lng)
	base := math.Max(f.BaseFloor, f.Peak-dist*f.Falloff)

	noise := f.Noise
	if noise == nil {
		noise = RandomNoise
	}

	v := math.Min(f.Max, math.Max(f.Min, base+noise(f.Amplitude)))
	return route.Round(v, 2), nil
}

// NewCrowdDensity はシカゴ中心部ほど混雑する人口密度（人/㎡、概ね0.1〜2.5）を返す
func NewCrowdDensity(noise Noise) *Field {
	return &Field{
		Center:    geo.NewCoordinate(41.8818, -87.6231),
		Peak:      2.2,
		Falloff:   150,
		BaseFloor: 0.2,
		Min:       0.1,
		Max:       math.Inf(1),
		Amplitude: 0.2,
		Noise:     noise,
	}
}

// NewCrimeRisk はホットスポットに近いほど高い犯罪リスク（0〜1、高いほど危険）を返す
func NewCrimeRisk(noise Noise) *Field {
	return &Field{
		Center:    geo.NewCoordinate(41.879, -87.630),
		Peak:      0.9,
		Falloff:   120,
		BaseFloor: 0.05,
		Min:       0.05,
		Max:       1.0,
		Amplitude: 0.1,
		Noise:     noise,
	}
}
