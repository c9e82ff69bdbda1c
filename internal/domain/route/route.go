package route

import (
	"fmt"
	"math"

	"googlemaps.github.io/maps"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
)

// Leg はルートの1区間（出発地から到着地、または経由地まで）
type Leg struct {
	StartAddress  string         `json:"start_address"`
	EndAddress    string         `json:"end_address"`
	StartLocation geo.Coordinate `json:"start_location"`
	EndLocation   geo.Coordinate `json:"end_location"`
	DistanceM     int            `json:"distance_m"`
	DistanceText  string         `json:"distance_text,omitempty"`
	DurationS     int            `json:"duration_s"`
	DurationText  string         `json:"duration_text,omitempty"`
}

// RawRoute はルートプロバイダーが返すジオメトリと区間メタデータ。
// Polyline（エンコード済みパス）がジオメトリの同一性を表す。
type RawRoute struct {
	Summary  string   `json:"summary"`
	Polyline string   `json:"polyline"`
	Legs     []Leg    `json:"legs"`
	Warnings []string `json:"warnings,omitempty"`
}

// FirstLeg は最初の区間を返す
func (r RawRoute) FirstLeg() (Leg, bool) {
	if len(r.Legs) == 0 {
		return Leg{}, false
	}
	return r.Legs[0], true
}

// DecodePath はエンコード済みポリラインを座標列に復号
func DecodePath(encoded string) ([]geo.Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	points, err := maps.DecodePolyline(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}

	coords := make([]geo.Coordinate, len(points))
	for i, p := range points {
		coords[i] = geo.NewCoordinate(p.Lat, p.Lng)
	}
	return coords, nil
}

// EncodePath は座標列をポリラインにエンコード（1e-5度単位で四捨五入）
func EncodePath(coords []geo.Coordinate) string {
	points := make([]maps.LatLng, len(coords))
	for i, c := range coords {
		// maps.Encode は0方向に切り捨てるので、半単位ずらして丸めにする
		points[i] = maps.LatLng{
			Lat: c.Lat + math.Copysign(polylineHalfUnit, c.Lat),
			Lng: c.Lng + math.Copysign(polylineHalfUnit, c.Lng),
		}
	}
	return maps.Encode(points)
}

const polylineHalfUnit = 0.5e-5

// Deduplicate はポリライン文字列でルートを一意化する。
// 最初に出現したものを残し、順序は保持する。
func Deduplicate(routes []RawRoute) []RawRoute {
	seen := make(map[string]struct{}, len(routes))
	unique := make([]RawRoute, 0, len(routes))

	for _, r := range routes {
		if _, ok := seen[r.Polyline]; ok {
			continue
		}
		seen[r.Polyline] = struct{}{}
		unique = append(unique, r)
	}

	return unique
}
