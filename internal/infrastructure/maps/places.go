package maps

import (
	"context"
	"math"

	gmaps "googlemaps.github.io/maps"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
	"github.com/Nyukimin/loopwalk/internal/domain/provider"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
)

// Search は地点周辺のキーワード検索を行う。
// APIの半径指定は目安でしかないため、呼び出し側で距離を再検証すること。
func (c *Client) Search(ctx context.Context, point geo.Coordinate, keyword string, radiusM float64) ([]route.Place, error) {
	resp, err := c.api.NearbySearch(ctx, &gmaps.NearbySearchRequest{
		Location: &gmaps.LatLng{Lat: point.Lat, Lng: point.Lng},
		Radius:   uint(math.Ceil(radiusM)),
		Keyword:  keyword,
		Language: c.language,
	})
	if err != nil {
		return nil, provider.NewError(providerName, "nearby_search", err)
	}

	places := make([]route.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		p := route.Place{
			PlaceID:  r.PlaceID,
			Name:     r.Name,
			Location: geo.NewCoordinate(r.Geometry.Location.Lat, r.Geometry.Location.Lng),
			Types:    r.Types,
			Address:  r.Vicinity,
		}
		if r.Rating > 0 {
			rating := route.Round(float64(r.Rating), 1)
			p.Rating = &rating
		}
		places = append(places, p)
	}
	return places, nil
}
