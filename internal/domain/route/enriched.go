package route

// CrowdSummary は混雑度の集計値
type CrowdSummary struct {
	AvgDensity float64 `json:"avg_density"`
	MaxDensity float64 `json:"max_density"`
}

// SafetySummary は犯罪リスクの集計値
type SafetySummary struct {
	AvgRisk float64 `json:"avg_risk"`
	MaxRisk float64 `json:"max_risk"`
}

// EnrichedRoute はRawRouteにエンリッチメント結果を付与したもの。
// With系メソッドは常に新しい値を返し、受け取った値は変更しない。
type EnrichedRoute struct {
	RawRoute
	POIs   map[string][]PlaceSummary `json:"enrichment,omitempty"`
	Crowd  *CrowdSummary             `json:"crowd,omitempty"`
	Safety *SafetySummary            `json:"safety,omitempty"`
}

// NewEnrichedRoute はエンリッチメント無しのEnrichedRouteを作成
func NewEnrichedRoute(raw RawRoute) EnrichedRoute {
	return EnrichedRoute{RawRoute: raw}
}

// WithPOIs はPOI一覧を設定した新しいEnrichedRouteを返す
func (r EnrichedRoute) WithPOIs(pois map[string][]PlaceSummary) EnrichedRoute {
	r.POIs = clonePOIs(pois)
	return r
}

// WithCrowd は混雑度集計を設定した新しいEnrichedRouteを返す
func (r EnrichedRoute) WithCrowd(c CrowdSummary) EnrichedRoute {
	r.Crowd = &c
	return r
}

// WithSafety は安全性集計を設定した新しいEnrichedRouteを返す
func (r EnrichedRoute) WithSafety(s SafetySummary) EnrichedRoute {
	r.Safety = &s
	return r
}

func clonePOIs(in map[string][]PlaceSummary) map[string][]PlaceSummary {
	if in == nil {
		return nil
	}
	out := make(map[string][]PlaceSummary, len(in))
	for k, v := range in {
		list := make([]PlaceSummary, len(v))
		copy(list, v)
		out[k] = list
	}
	return out
}
