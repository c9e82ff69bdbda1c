package geo

import (
	"math"
	"strconv"
)

// EarthRadiusM は大円距離計算に使う地球半径（メートル）
const EarthRadiusM = 6371000.0

// MetersPerDegreeLat は緯度1度あたりのおおよその距離（メートル）
const MetersPerDegreeLat = 111000.0

// Coordinate は緯度経度の組を表す値オブジェクト
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinate は新しいCoordinateを作成
func NewCoordinate(lat, lng float64) Coordinate {
	return Coordinate{Lat: lat, Lng: lng}
}

// Valid は地表上の有効な範囲内かを判定
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Offset は緯度・経度に差分を加えた新しいCoordinateを返す
func (c Coordinate) Offset(dLat, dLng float64) Coordinate {
	return Coordinate{Lat: c.Lat + dLat, Lng: c.Lng + dLng}
}

// String は "lat,lng" 形式の文字列を返す（外部APIのパラメータ形式）
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Midpoint は2点の緯度経度の算術平均を返す
func Midpoint(a, b Coordinate) Coordinate {
	return Coordinate{
		Lat: (a.Lat + b.Lat) / 2,
		Lng: (a.Lng + b.Lng) / 2,
	}
}

// Haversine は2点間の大円距離（メートル）を返す
func Haversine(a, b Coordinate) float64 {
	phi1 := toRadians(a.Lat)
	phi2 := toRadians(b.Lat)
	dPhi := toRadians(b.Lat - a.Lat)
	dLambda := toRadians(b.Lng - a.Lng)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * EarthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundaryCircle は中心から半径radiusMの円周上にn点を等角度で配置する。
// 角度0から始まり、緯度方向はsin、経度方向はcosで展開する。
// 経度方向の半径はcos(緯度)で補正する。
func BoundaryCircle(center Coordinate, radiusM float64, n int) []Coordinate {
	if n <= 0 {
		return nil
	}

	latRadius := radiusM / MetersPerDegreeLat
	lngRadius := radiusM / (MetersPerDegreeLat * math.Cos(toRadians(center.Lat)))

	step := 360.0 / float64(n)
	points := make([]Coordinate, 0, n)
	for i := 0; i < n; i++ {
		rad := toRadians(step * float64(i))
		points = append(points, Coordinate{
			Lat: center.Lat + latRadius*math.Sin(rad),
			Lng: center.Lng + lngRadius*math.Cos(rad),
		})
	}
	return points
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
