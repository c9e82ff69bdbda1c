package synth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
	"github.com/Nyukimin/loopwalk/internal/domain/provider"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/metrics"
	"github.com/Nyukimin/loopwalk/pkg/logger"
)

// ErrNoCandidates は全リクエスト後も一意なルートが1件も無い場合のエラー
var ErrNoCandidates = errors.New("no candidate routes")

// WalkingSpeedMPerMin は平均徒歩速度（メートル/分）
const WalkingSpeedMPerMin = 80.0

const (
	defaultConcurrency = 8
	defaultCallTimeout = 15 * time.Second
)

// Offset は中間点に加える緯度経度の差分
type Offset struct {
	DLat float64
	DLng float64
}

// DefaultOffsets は経由地を散らしてルートの多様性を出すための固定オフセット列
var DefaultOffsets = []Offset{
	{0.006, 0},
	{-0.006, 0},
	{0, 0.006},
	{0, -0.006},
	{0.008, 0.004},
	{-0.008, -0.004},
	{0.01, -0.003},
	{-0.01, 0.003},
}

// Option はSynthesizerの設定関数
type Option func(*Synthesizer)

// WithOffsets は経由地オフセット列を差し替える
func WithOffsets(offsets []Offset) Option {
	return func(s *Synthesizer) {
		s.offsets = append([]Offset(nil), offsets...)
	}
}

// WithConcurrency はルート取得の同時実行数の上限を設定
func WithConcurrency(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCallTimeout はルート取得1回あたりのタイムアウトを設定
func WithCallTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithMetrics はメトリクスを設定
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synthesizer) {
		s.metrics = m
	}
}

// Synthesizer は目的地指定または所要時間指定で多様な候補ルートを生成する
type Synthesizer struct {
	geocoder    provider.Geocoder
	routes      provider.RouteProvider
	offsets     []Offset
	concurrency int
	callTimeout time.Duration
	metrics     *metrics.Metrics
}

// NewSynthesizer は新しいSynthesizerを作成
func NewSynthesizer(geocoder provider.Geocoder, routes provider.RouteProvider, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		geocoder:    geocoder,
		routes:      routes,
		offsets:     DefaultOffsets,
		concurrency: defaultConcurrency,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// request はルートプロバイダーへの1回分のリクエスト
type request struct {
	from geo.Coordinate
	to   geo.Coordinate
	via  *geo.Coordinate
}

// WalkingRadiusM は所要時間（分）から徒歩半径（メートル）を求める
func WalkingRadiusM(minutes int) float64 {
	return float64(minutes) * WalkingSpeedMPerMin
}

// ByDestination は出発地から目的地までの候補ルートを生成する。
// 直行リクエスト1件と、中間点にオフセットを加えた経由地ごとのリクエストを発行する。
func (s *Synthesizer) ByDestination(ctx context.Context, origin, destination string, maxVariations int) ([]route.RawRoute, error) {
	from, err := s.geocode(ctx, origin)
	if err != nil {
		return nil, err
	}
	to, err := s.geocode(ctx, destination)
	if err != nil {
		return nil, err
	}

	return s.collect(ctx, destinationRequests(from, to, s.offsets, maxVariations))
}

// ByDuration は出発地から徒歩半径の円周上の点までの候補ルートを生成する
func (s *Synthesizer) ByDuration(ctx context.Context, origin string, minutes, maxVariations int) ([]route.RawRoute, error) {
	from, err := s.geocode(ctx, origin)
	if err != nil {
		return nil, err
	}

	return s.collect(ctx, durationRequests(from, minutes, maxVariations))
}

// DirectByDestination は経由地無しの直行リクエスト1件だけでルートを取得する
func (s *Synthesizer) DirectByDestination(ctx context.Context, origin, destination string) ([]route.RawRoute, error) {
	from, err := s.geocode(ctx, origin)
	if err != nil {
		return nil, err
	}
	to, err := s.geocode(ctx, destination)
	if err != nil {
		return nil, err
	}

	return s.collect(ctx, destinationRequests(from, to, nil, 0))
}

// DirectByDuration は角度0の境界点1件だけでルートを取得する
func (s *Synthesizer) DirectByDuration(ctx context.Context, origin string, minutes int) ([]route.RawRoute, error) {
	from, err := s.geocode(ctx, origin)
	if err != nil {
		return nil, err
	}

	return s.collect(ctx, durationRequests(from, minutes, 1))
}

// destinationRequests は直行リクエストを先頭に、オフセット順の経由地リクエストを並べる
func destinationRequests(from, to geo.Coordinate, offsets []Offset, maxVariations int) []request {
	n := maxVariations
	if n > len(offsets) {
		n = len(offsets)
	}
	if n < 0 {
		n = 0
	}

	mid := geo.Midpoint(from, to)
	reqs := make([]request, 0, n+1)
	reqs = append(reqs, request{from: from, to: to})
	for _, off := range offsets[:n] {
		via := mid.Offset(off.DLat, off.DLng)
		reqs = append(reqs, request{from: from, to: to, via: &via})
	}
	return reqs
}

// durationRequests は境界点の角度順にリクエストを並べる
func durationRequests(from geo.Coordinate, minutes, maxVariations int) []request {
	points := geo.BoundaryCircle(from, WalkingRadiusM(minutes), maxVariations)

	reqs := make([]request, 0, len(points))
	for _, p := range points {
		reqs = append(reqs, request{from: from, to: p})
	}
	return reqs
}

// collect はリクエストを並列に発行し、リクエスト順に連結してから一意化する。
// 結果の順序は完了順に依存しない。
func (s *Synthesizer) collect(ctx context.Context, reqs []request) ([]route.RawRoute, error) {
	results := make([][]route.RawRoute, len(reqs))

	var g errgroup.Group
	limit := s.concurrency
	if len(reqs) < limit {
		limit = len(reqs)
	}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, r := range reqs {
		g.Go(func() error {
			results[i] = s.fetch(ctx, i, r)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("route synthesis cancelled: %w", err)
	}

	var pool []route.RawRoute
	for _, rs := range results {
		pool = append(pool, rs...)
	}

	unique := route.Deduplicate(pool)
	s.metrics.ObserveCandidates(len(unique))

	logger.DebugCF("synth", "synth.collected", map[string]interface{}{
		"requests": len(reqs),
		"raw":      len(pool),
		"unique":   len(unique),
	})

	if len(unique) == 0 {
		return nil, ErrNoCandidates
	}
	return unique, nil
}

// fetch はリクエスト1件を実行する。失敗はそのリクエストの寄与を0件にするだけで、
// 兄弟リクエストは中断しない。
func (s *Synthesizer) fetch(ctx context.Context, index int, r request) []route.RawRoute {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	routes, err := s.routes.Route(callCtx, r.from, r.to, r.via)
	s.metrics.ObserveProviderCall("routes", "route", err)
	if err != nil {
		fields := map[string]interface{}{
			"request": index,
			"to":      r.to.String(),
			"error":   err,
		}
		if r.via != nil {
			fields["via"] = r.via.String()
		}
		logger.WarnCF("synth", "synth.route_failed", fields)
		return nil
	}
	return routes
}

// geocode は住所を解決し、失敗をプロバイダーエラーとして返す
func (s *Synthesizer) geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	c, err := s.geocoder.Geocode(callCtx, address)
	s.metrics.ObserveProviderCall("geocoder", "geocode", err)
	if err != nil {
		if provider.IsProviderError(err) {
			return geo.Coordinate{}, err
		}
		return geo.Coordinate{}, provider.NewError("geocoder", "geocode", fmt.Errorf("%q: %w", address, err))
	}
	return c, nil
}
