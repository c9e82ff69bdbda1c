package enrich

import (
	"sort"
	"sync"

	"github.com/Nyukimin/loopwalk/internal/domain/route"
)

type sighting struct {
	summary  route.PlaceSummary
	distance float64
	sample   int
}

// poiAccumulator はルート1本分のPOIをキーワードごとに重複排除して蓄積する。
// 同じ場所が複数のサンプル点で見つかった場合は、最も近い（同距離なら若いサンプル点の）
// ものを残すので、結果は検索の完了順に依存しない。
type poiAccumulator struct {
	mu        sync.Mutex
	queries   []string
	byKeyword map[string]map[string]sighting
}

func newPOIAccumulator(queries []string) *poiAccumulator {
	acc := &poiAccumulator{
		queries:   queries,
		byKeyword: make(map[string]map[string]sighting, len(queries)),
	}
	for _, q := range queries {
		acc.byKeyword[q] = make(map[string]sighting)
	}
	return acc
}

func (a *poiAccumulator) add(keyword string, sample int, distance float64, p route.Place) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen, ok := a.byKeyword[keyword]
	if !ok {
		seen = make(map[string]sighting)
		a.byKeyword[keyword] = seen
	}

	key := p.Key()
	if prev, ok := seen[key]; ok {
		if prev.distance < distance || (prev.distance == distance && prev.sample <= sample) {
			return
		}
	}
	seen[key] = sighting{summary: p.Summarize(distance), distance: distance, sample: sample}
}

// ranked はキーワードごとに距離の昇順（同距離はplace_id順）で上位topN件を返す
func (a *poiAccumulator) ranked(topN int) map[string][]route.PlaceSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string][]route.PlaceSummary, len(a.byKeyword))
	for keyword, seen := range a.byKeyword {
		list := make([]sighting, 0, len(seen))
		for _, s := range seen {
			list = append(list, s)
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].distance != list[j].distance {
				return list[i].distance < list[j].distance
			}
			return list[i].summary.PlaceID < list[j].summary.PlaceID
		})
		if len(list) > topN {
			list = list[:topN]
		}

		summaries := make([]route.PlaceSummary, len(list))
		for i, s := range list {
			summaries[i] = s.summary
		}
		out[keyword] = summaries
	}
	return out
}
