package maps

import (
	"context"
	"fmt"

	gmaps "googlemaps.github.io/maps"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
	"github.com/Nyukimin/loopwalk/internal/domain/provider"
)

// Geocode は地名を座標に変換する。結果が無い場合はprovider.ErrNotFoundを包んで返す。
func (c *Client) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	results, err := c.api.Geocode(ctx, &gmaps.GeocodingRequest{
		Address:  address,
		Language: c.language,
	})
	if err != nil {
		return geo.Coordinate{}, provider.NewError(providerName, "geocode", err)
	}
	if len(results) == 0 {
		return geo.Coordinate{}, provider.NewError(providerName, "geocode", fmt.Errorf("%w: %q", provider.ErrNotFound, address))
	}

	loc := results[0].Geometry.Location
	coord := geo.NewCoordinate(loc.Lat, loc.Lng)
	if !coord.Valid() {
		return geo.Coordinate{}, provider.NewError(providerName, "geocode", fmt.Errorf("coordinate out of range: %s", coord))
	}
	return coord, nil
}
