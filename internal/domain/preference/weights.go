package preference

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Name は選好の種類を表す型
type Name string

// 選好名の定数定義
const (
	Cafes         Name = "cafes"          // カフェなど立ち寄り先
	Parks         Name = "parks"          // 景観・緑地
	Safety        Name = "safety"         // 安全性
	LowCrowd      Name = "low_crowd"      // 静かな道
	ShortDistance Name = "short_distance" // 最短距離
)

var (
	// ErrEmptyWeights は選好が1件も無い場合のエラー
	ErrEmptyWeights = errors.New("preference weights must contain at least one entry")
	// ErrUnknownName は未定義の選好名のエラー
	ErrUnknownName = errors.New("unknown preference name")
	// ErrOutOfRange は重みが[0,1]外の場合のエラー
	ErrOutOfRange = errors.New("preference weight out of range [0,1]")
)

// Valid は定義済みの選好名かを判定
func (n Name) Valid() bool {
	switch n {
	case Cafes, Parks, Safety, LowCrowd, ShortDistance:
		return true
	}
	return false
}

// String は選好名の文字列表現を返す
func (n Name) String() string {
	return string(n)
}

// Weights は選好名から重み[0,1]への対応。
// キーが無い選好は「無関係」を意味し、0とは区別される。
type Weights map[Name]float64

// Validate は重みの妥当性を検証
func (w Weights) Validate() error {
	if len(w) == 0 {
		return ErrEmptyWeights
	}
	for _, n := range w.Names() {
		if !n.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownName, n)
		}
		v := w[n]
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%v", ErrOutOfRange, n, v)
		}
	}
	return nil
}

// Get は選好の重みと、その選好が関連するかを返す
func (w Weights) Get(n Name) (float64, bool) {
	v, ok := w[n]
	return v, ok
}

// Names は設定済みの選好名をソート順で返す
func (w Weights) Names() []Name {
	names := make([]Name, 0, len(w))
	for n := range w {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Clone はWeightsのコピーを返す
func (w Weights) Clone() Weights {
	if w == nil {
		return nil
	}
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
