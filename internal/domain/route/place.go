package route

import (
	"math"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
)

// Place はPOI検索結果の1件
type Place struct {
	PlaceID  string
	Name     string
	Location geo.Coordinate
	Rating   *float64
	Types    []string
	Address  string
}

// PlaceSummary はサンプル点からの距離付きのPOI要約
type PlaceSummary struct {
	PlaceID   string   `json:"place_id"`
	Name      string   `json:"name"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	DistanceM float64  `json:"distance_m"`
	Rating    *float64 `json:"rating,omitempty"`
	Types     []string `json:"types"`
	Address   string   `json:"address,omitempty"`
}

// Summarize はサンプル点からの距離（0.1m単位に丸め）付きの要約を作成
func (p Place) Summarize(distanceM float64) PlaceSummary {
	types := make([]string, len(p.Types))
	copy(types, p.Types)

	var rating *float64
	if p.Rating != nil {
		v := *p.Rating
		rating = &v
	}

	return PlaceSummary{
		PlaceID:   p.PlaceID,
		Name:      p.Name,
		Lat:       p.Location.Lat,
		Lng:       p.Location.Lng,
		DistanceM: Round(distanceM, 1),
		Rating:    rating,
		Types:     types,
		Address:   p.Address,
	}
}

// Key は重複排除用のキー。place_idが無い場合は名前と座標で代用する。
func (p Place) Key() string {
	if p.PlaceID != "" {
		return p.PlaceID
	}
	return p.Name + "@" + p.Location.String()
}

// Round はvalueを小数点以下digits桁に丸める
func Round(value float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(value*pow) / pow
}
