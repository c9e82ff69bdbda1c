package maps

import (
	"context"
	"fmt"
	"math"
	"strings"

	gmaps "googlemaps.github.io/maps"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
	"github.com/Nyukimin/loopwalk/internal/domain/provider"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
)

// Route は徒歩ルートを取得する。viaがあれば経由地として指定する。
// ルートが見つからない場合（ZERO_RESULTS / NOT_FOUND）は空スライスを返す。
func (c *Client) Route(ctx context.Context, from, to geo.Coordinate, via *geo.Coordinate) ([]route.RawRoute, error) {
	// 経由地付きのリクエストでは代替ルートは返らない
	req := &gmaps.DirectionsRequest{
		Origin:       from.String(),
		Destination:  to.String(),
		Mode:         gmaps.TravelModeWalking,
		Language:     c.language,
		Alternatives: via == nil,
	}
	if via != nil {
		// "via:" を付けると経由地で区間が分かれず、1区間のルートになる
		req.Waypoints = []string{"via:" + via.String()}
	}

	routes, _, err := c.api.Directions(ctx, req)
	if err != nil {
		if isNoRoute(err) {
			return nil, nil
		}
		return nil, provider.NewError(providerName, "directions", err)
	}

	out := make([]route.RawRoute, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRawRoute(r))
	}
	return out, nil
}

// isNoRoute は「ルート無し」を表すステータスかを判定
func isNoRoute(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "NOT_FOUND") || strings.Contains(msg, "ZERO_RESULTS")
}

func toRawRoute(r gmaps.Route) route.RawRoute {
	legs := make([]route.Leg, 0, len(r.Legs))
	for _, l := range r.Legs {
		if l == nil {
			continue
		}
		legs = append(legs, route.Leg{
			StartAddress:  l.StartAddress,
			EndAddress:    l.EndAddress,
			StartLocation: geo.NewCoordinate(l.StartLocation.Lat, l.StartLocation.Lng),
			EndLocation:   geo.NewCoordinate(l.EndLocation.Lat, l.EndLocation.Lng),
			DistanceM:     l.Distance.Meters,
			DistanceText:  l.Distance.HumanReadable,
			DurationS:     int(l.Duration.Seconds()),
			DurationText:  durationText(l.Duration.Minutes()),
		})
	}

	return route.RawRoute{
		Summary:  r.Summary,
		Polyline: r.OverviewPolyline.Points,
		Legs:     legs,
		Warnings: r.Warnings,
	}
}

// durationText はDirections APIと同じ "N mins" 形式の表記を返す
func durationText(minutes float64) string {
	m := int(math.Round(minutes))
	if m == 1 {
		return "1 min"
	}
	return fmt.Sprintf("%d mins", m)
}
