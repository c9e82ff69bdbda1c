package maps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
	"github.com/Nyukimin/loopwalk/internal/domain/provider"
)

// newTestClient はモックサーバーに向けたClientを作成
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Language: "en"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestGeocode_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/geocode/json" {
			t.Errorf("Expected geocode path, got '%s'", r.URL.Path)
		}
		if got := r.URL.Query().Get("address"); got != "Millennium Park, Chicago" {
			t.Errorf("Expected address query, got '%s'", got)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("Expected API key, got '%s'", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":41.8826,"lng":-87.6226}}}]}`))
	})

	got, err := c.Geocode(context.Background(), "Millennium Park, Chicago")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if got != geo.NewCoordinate(41.8826, -87.6226) {
		t.Errorf("Expected Millennium Park coordinate, got %v", got)
	}
}

func TestGeocode_ZeroResultsIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	_, err := c.Geocode(context.Background(), "Atlantis")
	if !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if !provider.IsProviderError(err) {
		t.Errorf("Expected provider error, got %T", err)
	}
}

func TestGeocode_RequestDenied(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"invalid key"}`))
	})

	_, err := c.Geocode(context.Background(), "Union Station")
	if !provider.IsProviderError(err) {
		t.Fatalf("Expected provider error, got %v", err)
	}
}

func TestGeocode_OutOfRangeCoordinate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":91,"lng":-87.6226}}}]}`))
	})

	_, err := c.Geocode(context.Background(), "Nowhere")
	if !provider.IsProviderError(err) {
		t.Fatalf("Expected provider error, got %v", err)
	}
	if errors.Is(err, provider.ErrNotFound) {
		t.Errorf("Expected out-of-range error, got not found: %v", err)
	}
}

const directionsBody = `{
  "status": "OK",
  "routes": [{
    "summary": "E Randolph St",
    "overview_polyline": {"points": "abc"},
    "warnings": ["Walking directions are in beta."],
    "legs": [{
      "start_address": "Millennium Park, Chicago, IL",
      "end_address": "Union Station, Chicago, IL",
      "start_location": {"lat": 41.8826, "lng": -87.6226},
      "end_location": {"lat": 41.8787, "lng": -87.6403},
      "distance": {"text": "1.6 km", "value": 1623},
      "duration": {"text": "21 mins", "value": 1260}
    }]
  }]
}`

func TestRoute_Success(t *testing.T) {
	var waypoints, mode string
	var hasAlternatives bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/directions/json" {
			t.Errorf("Expected directions path, got '%s'", r.URL.Path)
		}
		waypoints = r.URL.Query().Get("waypoints")
		mode = r.URL.Query().Get("mode")
		_, hasAlternatives = r.URL.Query()["alternatives"]
		w.Write([]byte(directionsBody))
	})

	via := geo.NewCoordinate(41.881, -87.631)
	routes, err := c.Route(context.Background(), geo.NewCoordinate(41.8826, -87.6226), geo.NewCoordinate(41.8787, -87.6403), &via)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}

	if mode != "walking" {
		t.Errorf("Expected walking mode, got '%s'", mode)
	}
	if waypoints != "via:41.881,-87.631" {
		t.Errorf("Expected via waypoint, got '%s'", waypoints)
	}
	if hasAlternatives {
		t.Error("Expected no alternatives parameter with a via waypoint")
	}

	if len(routes) != 1 {
		t.Fatalf("Expected 1 route, got %d", len(routes))
	}
	r := routes[0]
	if r.Summary != "E Randolph St" || r.Polyline != "abc" {
		t.Errorf("Unexpected route: %+v", r)
	}
	leg, ok := r.FirstLeg()
	if !ok {
		t.Fatal("Expected a leg")
	}
	if leg.DistanceM != 1623 || leg.DistanceText != "1.6 km" {
		t.Errorf("Expected distance 1623 / '1.6 km', got %d / '%s'", leg.DistanceM, leg.DistanceText)
	}
	if leg.DurationS != 1260 || leg.DurationText != "21 mins" {
		t.Errorf("Expected duration 1260 / '21 mins', got %d / '%s'", leg.DurationS, leg.DurationText)
	}
	if leg.EndAddress != "Union Station, Chicago, IL" {
		t.Errorf("Expected end address, got '%s'", leg.EndAddress)
	}
}

func TestRoute_NoWaypointWithoutVia(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["waypoints"]; ok {
			t.Error("Expected no waypoints parameter")
		}
		if got := r.URL.Query().Get("alternatives"); got != "true" {
			t.Errorf("Expected alternatives=true, got '%s'", got)
		}
		w.Write([]byte(directionsBody))
	})

	if _, err := c.Route(context.Background(), geo.NewCoordinate(1, 1), geo.NewCoordinate(2, 2), nil); err != nil {
		t.Fatalf("Route failed: %v", err)
	}
}

func TestRoute_NoRouteIsEmpty(t *testing.T) {
	for _, status := range []string{"ZERO_RESULTS", "NOT_FOUND"} {
		t.Run(status, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"` + status + `","routes":[]}`))
			})

			routes, err := c.Route(context.Background(), geo.NewCoordinate(1, 1), geo.NewCoordinate(2, 2), nil)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(routes) != 0 {
				t.Errorf("Expected no routes, got %d", len(routes))
			}
		})
	}
}

func TestRoute_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","error_message":"quota"}`))
	})

	_, err := c.Route(context.Background(), geo.NewCoordinate(1, 1), geo.NewCoordinate(2, 2), nil)
	if !provider.IsProviderError(err) {
		t.Errorf("Expected provider error, got %v", err)
	}
}

func TestSearch_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/place/nearbysearch/json" {
			t.Errorf("Expected nearby search path, got '%s'", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("keyword") != "cafe" || q.Get("radius") != "50" || q.Get("location") != "41.88,-87.63" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"status":"OK","results":[
			{"place_id":"p1","name":"Intelligentsia","rating":4.3,"types":["cafe","food"],"vicinity":"53 E Randolph St",
			 "geometry":{"location":{"lat":41.8802,"lng":-87.6301}}},
			{"place_id":"p2","name":"No Rating","geometry":{"location":{"lat":41.8801,"lng":-87.6300}}}
		]}`))
	})

	places, err := c.Search(context.Background(), geo.NewCoordinate(41.88, -87.63), "cafe", 50)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("Expected 2 places, got %d", len(places))
	}

	p := places[0]
	if p.PlaceID != "p1" || p.Name != "Intelligentsia" || p.Address != "53 E Randolph St" {
		t.Errorf("Unexpected place: %+v", p)
	}
	if p.Rating == nil || *p.Rating != 4.3 {
		t.Errorf("Expected rating 4.3, got %v", p.Rating)
	}
	if places[1].Rating != nil {
		t.Errorf("Expected nil rating, got %v", *places[1].Rating)
	}
}

func TestSearch_ZeroResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	places, err := c.Search(context.Background(), geo.NewCoordinate(41.88, -87.63), "museum", 50)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(places) != 0 {
		t.Errorf("Expected no places, got %d", len(places))
	}
}
