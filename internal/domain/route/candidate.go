package route

import "fmt"

// Candidate は意思決定パイプラインに渡す候補ルート。
// RouteIDは列挙順の0始まりインデックスで、スコアと選択の唯一の参照キー。
type Candidate struct {
	RouteID      int                       `json:"route_id"`
	Summary      string                    `json:"summary"`
	StartAddress string                    `json:"start_address"`
	EndAddress   string                    `json:"end_address"`
	DistanceM    int                       `json:"distance_m"`
	DurationS    int                       `json:"duration_s"`
	POIs         map[string][]PlaceSummary `json:"pois"`
	CrowdAvg     float64                   `json:"crowd_avg"`
	CrowdMax     float64                   `json:"crowd_max"`
	SafetyAvg    float64                   `json:"safety_avg"`
	SafetyMax    float64                   `json:"safety_max"`
}

// DefaultSummary はサマリーが無いルートの表示名
func DefaultSummary(index int) string {
	return fmt.Sprintf("Route %d", index)
}

// BuildCandidate はエンリッチ済みルートから候補を作成する。
// queriesに含まれるキーワードは、POIが無くても空リストとして必ず含める。
func BuildCandidate(r EnrichedRoute, index int, queries []string) Candidate {
	c := Candidate{
		RouteID: index,
		Summary: r.Summary,
		POIs:    make(map[string][]PlaceSummary, len(queries)),
	}
	if c.Summary == "" {
		c.Summary = DefaultSummary(index)
	}

	if leg, ok := r.FirstLeg(); ok {
		c.StartAddress = leg.StartAddress
		c.EndAddress = leg.EndAddress
		c.DistanceM = leg.DistanceM
		c.DurationS = leg.DurationS
	}

	for _, q := range queries {
		c.POIs[q] = []PlaceSummary{}
	}
	for k, v := range r.POIs {
		list := make([]PlaceSummary, len(v))
		copy(list, v)
		c.POIs[k] = list
	}

	if r.Crowd != nil {
		c.CrowdAvg = r.Crowd.AvgDensity
		c.CrowdMax = r.Crowd.MaxDensity
	}
	if r.Safety != nil {
		c.SafetyAvg = r.Safety.AvgRisk
		c.SafetyMax = r.Safety.MaxRisk
	}

	return c
}

// BuildCandidates は列挙順にRouteIDを割り当てて候補一覧を作成
func BuildCandidates(routes []EnrichedRoute, queries []string) []Candidate {
	candidates := make([]Candidate, len(routes))
	for i, r := range routes {
		candidates[i] = BuildCandidate(r, i, queries)
	}
	return candidates
}
