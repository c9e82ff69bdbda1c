package enrich

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
	"github.com/Nyukimin/loopwalk/internal/domain/provider"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/metrics"
	"github.com/Nyukimin/loopwalk/pkg/logger"
)

// Config はEngineの設定
type Config struct {
	Stride         int           // パスの何点ごとにサンプルするか
	RadiusM        float64       // POI検索半径（メートル）
	TopN           int           // キーワードごとに残すPOI数
	Concurrency    int           // POI検索の同時実行数（ルートごと）
	RoutesInFlight int           // 同時にエンリッチするルート数
	RatePerSecond  float64       // POI検索のレート上限（0なら無制限）
	CallTimeout    time.Duration // 外部呼び出し1回あたりのタイムアウト
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Stride:         20,
		RadiusM:        50,
		TopN:           5,
		Concurrency:    8,
		RoutesInFlight: 4,
		CallTimeout:    10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Stride <= 0 {
		c.Stride = d.Stride
	}
	if c.RadiusM <= 0 {
		c.RadiusM = d.RadiusM
	}
	if c.TopN <= 0 {
		c.TopN = d.TopN
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.RoutesInFlight <= 0 {
		c.RoutesInFlight = d.RoutesInFlight
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = d.CallTimeout
	}
	return c
}

// Engine はルートのパスをサンプリングし、POI・混雑度・安全性を付与する
type Engine struct {
	places  provider.PlaceSearcher
	crowd   provider.SignalProvider
	safety  provider.SignalProvider
	cfg     Config
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// NewEngine は新しいEngineを作成。limiterは全ルートで共有される。
func NewEngine(places provider.PlaceSearcher, crowd, safety provider.SignalProvider, cfg Config, m *metrics.Metrics) *Engine {
	cfg = cfg.withDefaults()

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Engine{
		places:  places,
		crowd:   crowd,
		safety:  safety,
		cfg:     cfg,
		limiter: limiter,
		metrics: m,
	}
}

// SamplePath はstride点ごとに座標を取り出す（先頭を含む）
func SamplePath(coords []geo.Coordinate, stride int) []geo.Coordinate {
	if stride <= 0 {
		stride = 1
	}
	sampled := make([]geo.Coordinate, 0, (len(coords)+stride-1)/stride)
	for i := 0; i < len(coords); i += stride {
		sampled = append(sampled, coords[i])
	}
	return sampled
}

// samples はルートのパスを復号してサンプル点を返す。復号できないパスはサンプル0件として扱う。
func (e *Engine) samples(r route.EnrichedRoute) []geo.Coordinate {
	coords, err := route.DecodePath(r.Polyline)
	if err != nil {
		logger.WarnCF("enrich", "enrich.decode_failed", map[string]interface{}{
			"summary": r.Summary,
			"error":   err,
		})
		return nil
	}
	return SamplePath(coords, e.cfg.Stride)
}

// EnrichAll はPOI、混雑度、安全性の順にエンリッチする
func (e *Engine) EnrichAll(ctx context.Context, raw route.RawRoute, queries []string) (route.EnrichedRoute, error) {
	r, err := e.Enrich(ctx, route.NewEnrichedRoute(raw), queries)
	if err != nil {
		return route.EnrichedRoute{}, err
	}
	if r, err = e.EnrichWithCrowd(ctx, r); err != nil {
		return route.EnrichedRoute{}, err
	}
	if r, err = e.EnrichWithSafety(ctx, r); err != nil {
		return route.EnrichedRoute{}, err
	}
	return r, nil
}

// EnrichRoutes は複数ルートを並列にエンリッチする。結果は入力と同じ順序。
func (e *Engine) EnrichRoutes(ctx context.Context, routes []route.RawRoute, queries []string) ([]route.EnrichedRoute, error) {
	out := make([]route.EnrichedRoute, len(routes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.RoutesInFlight)

	for i, raw := range routes {
		g.Go(func() error {
			r, err := e.EnrichAll(gctx, raw, queries)
			if err != nil {
				return fmt.Errorf("enrich route %d: %w", i, err)
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Enrich はサンプル点×キーワードごとにPOIを検索し、キーワードごとに上位TopN件を付与する。
// 個々の検索失敗はそのサンプル点の寄与を0件にするだけで、全体は中断しない。
func (e *Engine) Enrich(ctx context.Context, r route.EnrichedRoute, queries []string) (route.EnrichedRoute, error) {
	points := e.samples(r)
	acc := newPOIAccumulator(queries)

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)

	for si, p := range points {
		for _, q := range queries {
			g.Go(func() error {
				e.searchPoint(ctx, acc, si, p, q)
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return route.EnrichedRoute{}, fmt.Errorf("poi enrichment cancelled: %w", err)
	}

	return r.WithPOIs(acc.ranked(e.cfg.TopN)), nil
}

// searchPoint はサンプル点1件・キーワード1件の検索を行い、半径内の結果だけを蓄積する
func (e *Engine) searchPoint(ctx context.Context, acc *poiAccumulator, sample int, point geo.Coordinate, keyword string) {
	if err := e.limiter.Wait(ctx); err != nil {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	places, err := e.places.Search(callCtx, point, keyword, e.cfg.RadiusM)
	e.metrics.ObserveProviderCall("places", "search", err)
	if err != nil {
		logger.WarnCF("enrich", "enrich.poi_search_failed", map[string]interface{}{
			"sample":  sample,
			"keyword": keyword,
			"error":   err,
		})
		return
	}

	for _, p := range places {
		// 半径は大円距離で再検証する
		d := geo.Haversine(point, p.Location)
		if d > e.cfg.RadiusM {
			continue
		}
		acc.add(keyword, sample, d, p)
	}
}

// EnrichWithCrowd はサンプル点ごとの混雑度を集計して付与する
func (e *Engine) EnrichWithCrowd(ctx context.Context, r route.EnrichedRoute) (route.EnrichedRoute, error) {
	agg, err := e.aggregate(ctx, "crowd", e.crowd, e.samples(r))
	if err != nil {
		return route.EnrichedRoute{}, err
	}
	return r.WithCrowd(route.CrowdSummary{AvgDensity: agg.avg, MaxDensity: agg.max}), nil
}

// EnrichWithSafety はサンプル点ごとの犯罪リスクを集計して付与する
func (e *Engine) EnrichWithSafety(ctx context.Context, r route.EnrichedRoute) (route.EnrichedRoute, error) {
	agg, err := e.aggregate(ctx, "safety", e.safety, e.samples(r))
	if err != nil {
		return route.EnrichedRoute{}, err
	}
	return r.WithSafety(route.SafetySummary{AvgRisk: agg.avg, MaxRisk: agg.max}), nil
}

type aggregate struct {
	avg float64
	max float64
}

// aggregate はサンプル点の値の平均（小数2桁）と最大を求める。値が1件も無ければ0を返す。
func (e *Engine) aggregate(ctx context.Context, name string, p provider.SignalProvider, points []geo.Coordinate) (aggregate, error) {
	var values []float64
	for i, pt := range points {
		if err := ctx.Err(); err != nil {
			return aggregate{}, fmt.Errorf("%s enrichment cancelled: %w", name, err)
		}

		callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		v, err := p.Value(callCtx, pt)
		cancel()
		e.metrics.ObserveProviderCall(name, "value", err)
		if err != nil {
			logger.WarnCF("enrich", "enrich.signal_failed", map[string]interface{}{
				"signal": name,
				"sample": i,
				"error":  err,
			})
			continue
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return aggregate{}, nil
	}

	sum, max := 0.0, values[0]
	for _, v := range values {
		sum += v
		if v > max {
			max = v
		}
	}
	return aggregate{avg: route.Round(sum/float64(len(values)), 2), max: max}, nil
}
