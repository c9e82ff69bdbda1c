package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nyukimin/loopwalk/internal/application/synth"
	"github.com/Nyukimin/loopwalk/internal/domain/pipeline"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/metrics"
	"github.com/Nyukimin/loopwalk/pkg/logger"
)

// 計画モード（メトリクスのラベルにも使う）
const (
	ModeDestination = "destination"
	ModeDuration    = "duration"
)

// DegradedNotice は縮退運転時の説明文の先頭に付く定型文
const DegradedNotice = "Personalized route selection is temporarily unavailable, so the first available route was chosen."

// DefaultKeywords はキーワードが1つも決まらない場合のエンリッチメントクエリ
var DefaultKeywords = []string{"cafe"}

// Request は目的地指定の計画リクエスト
type Request struct {
	Origin            string
	Destination       string
	Query             string
	EnrichmentQueries []string
}

// DurationRequest は所要時間指定の計画リクエスト
type DurationRequest struct {
	Origin            string
	Minutes           int
	Query             string
	EnrichmentQueries []string
}

// Result は計画結果
type Result struct {
	RunID       string              `json:"run_id"`
	RouteID     int                 `json:"route_id"`
	Summary     string              `json:"summary"`
	Explanation string              `json:"explanation"`
	Route       route.EnrichedRoute `json:"route"`
	Degraded    bool                `json:"degraded"`
	Stage       pipeline.Stage      `json:"stage"`
}

// Synthesizer はルート候補の生成を担当
type Synthesizer interface {
	ByDestination(ctx context.Context, origin, destination string, maxVariations int) ([]route.RawRoute, error)
	ByDuration(ctx context.Context, origin string, minutes, maxVariations int) ([]route.RawRoute, error)
	DirectByDestination(ctx context.Context, origin, destination string) ([]route.RawRoute, error)
	DirectByDuration(ctx context.Context, origin string, minutes int) ([]route.RawRoute, error)
}

// Enricher はルートへのPOI・混雑度・安全性の付与を担当
type Enricher interface {
	EnrichRoutes(ctx context.Context, routes []route.RawRoute, queries []string) ([]route.EnrichedRoute, error)
}

// DecisionPipeline は意思決定パイプラインを担当
type DecisionPipeline interface {
	Run(ctx context.Context, state pipeline.State) (pipeline.State, error)
}

// KeywordSource は要望テキストからエンリッチメントクエリを導出する
type KeywordSource interface {
	Keywords(query string) []string
}

// Config はPlannerの設定
type Config struct {
	DestinationVariations int
	DurationVariations    int
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		DestinationVariations: 3,
		DurationVariations:    8,
	}
}

// Planner は合成 → エンリッチ → 意思決定（失敗時はフォールバック）を統括
type Planner struct {
	synthesizer Synthesizer
	enricher    Enricher
	decision    DecisionPipeline
	keywords    KeywordSource
	cfg         Config
	metrics     *metrics.Metrics
}

// NewPlanner は新しいPlannerを作成。keywordsはnilでもよい。
func NewPlanner(
	synthesizer Synthesizer,
	enricher Enricher,
	decision DecisionPipeline,
	keywords KeywordSource,
	cfg Config,
	m *metrics.Metrics,
) *Planner {
	return &Planner{
		synthesizer: synthesizer,
		enricher:    enricher,
		decision:    decision,
		keywords:    keywords,
		cfg:         cfg,
		metrics:     m,
	}
}

// plan は1回の計画で使う入力をまとめたもの
type plan struct {
	mode        string
	origin      string
	destination string
	query       string
	queries     []string
	synthesize  func(ctx context.Context) ([]route.RawRoute, error)
	direct      func(ctx context.Context) ([]route.RawRoute, error)
}

// PlanRoute は出発地から目的地までのルートを計画する
func (p *Planner) PlanRoute(ctx context.Context, req Request) (Result, error) {
	return p.run(ctx, plan{
		mode:        ModeDestination,
		origin:      req.Origin,
		destination: req.Destination,
		query:       req.Query,
		queries:     p.resolveQueries(req.Query, req.EnrichmentQueries),
		synthesize: func(ctx context.Context) ([]route.RawRoute, error) {
			return p.synthesizer.ByDestination(ctx, req.Origin, req.Destination, p.cfg.DestinationVariations)
		},
		direct: func(ctx context.Context) ([]route.RawRoute, error) {
			return p.synthesizer.DirectByDestination(ctx, req.Origin, req.Destination)
		},
	})
}

// PlanRouteByDuration は出発地から指定時間で歩けるルートを計画する
func (p *Planner) PlanRouteByDuration(ctx context.Context, req DurationRequest) (Result, error) {
	return p.run(ctx, plan{
		mode:        ModeDuration,
		origin:      req.Origin,
		destination: fmt.Sprintf("%d minute walk", req.Minutes),
		query:       req.Query,
		queries:     p.resolveQueries(req.Query, req.EnrichmentQueries),
		synthesize: func(ctx context.Context) ([]route.RawRoute, error) {
			return p.synthesizer.ByDuration(ctx, req.Origin, req.Minutes, p.cfg.DurationVariations)
		},
		direct: func(ctx context.Context) ([]route.RawRoute, error) {
			return p.synthesizer.DirectByDuration(ctx, req.Origin, req.Minutes)
		},
	})
}

func (p *Planner) run(ctx context.Context, pl plan) (Result, error) {
	start := time.Now()
	runID := pipeline.NewRunID()

	res, err := p.execute(ctx, runID, pl)

	outcome := metrics.OutcomePipeline
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
	case res.Degraded:
		outcome = metrics.OutcomeFallback
	}
	p.metrics.ObservePlan(pl.mode, outcome, time.Since(start))

	if err != nil {
		logger.ErrorCF("planner", "planner.failed", map[string]interface{}{
			"run_id": runID.String(),
			"mode":   pl.mode,
			"error":  err,
		})
		return Result{}, err
	}

	logger.InfoCF("planner", "planner.completed", map[string]interface{}{
		"run_id":   runID.String(),
		"mode":     pl.mode,
		"route_id": res.RouteID,
		"degraded": res.Degraded,
		"elapsed":  time.Since(start).String(),
	})
	return res, nil
}

func (p *Planner) execute(ctx context.Context, runID pipeline.RunID, pl plan) (Result, error) {
	// 1. 候補ルートの合成
	raws, err := pl.synthesize(ctx)
	if err != nil {
		return p.fallback(ctx, runID, pl, nil, err)
	}

	// 2. エンリッチメント
	enriched, err := p.enricher.EnrichRoutes(ctx, raws, pl.queries)
	if err != nil {
		return p.fallback(ctx, runID, pl, unenriched(raws), err)
	}

	// 3. 候補の構築と意思決定パイプライン
	candidates := route.BuildCandidates(enriched, pl.queries)
	state := pipeline.NewState(runID, pl.origin, pl.destination, pl.query, candidates)

	final, err := p.decision.Run(ctx, state)
	if err != nil {
		return p.fallback(ctx, runID, pl, enriched, err)
	}

	chosen, ok := final.ChosenRouteID()
	if !ok || chosen < 0 || chosen >= len(enriched) {
		return p.fallback(ctx, runID, pl, enriched, fmt.Errorf("%w: chosen route_id out of range", pipeline.ErrSelection))
	}
	explanation, _ := final.Explanation()
	c, _ := final.Candidate(chosen)

	return Result{
		RunID:       runID.String(),
		RouteID:     chosen,
		Summary:     c.Summary,
		Explanation: explanation,
		Route:       enriched[chosen],
		Degraded:    false,
		Stage:       final.Stage(),
	}, nil
}

// fallback は縮退パス。候補プールの先頭（無ければ直行ルートを1回だけ取得）を選び、
// 定型文に失敗理由を添えた説明を返す。直行ルートも取れない場合のみエラーになる。
func (p *Planner) fallback(ctx context.Context, runID pipeline.RunID, pl plan, pool []route.EnrichedRoute, reason error) (Result, error) {
	logger.WarnCF("planner", "planner.fallback", map[string]interface{}{
		"run_id": runID.String(),
		"mode":   pl.mode,
		"pool":   len(pool),
		"reason": reason,
	})

	if len(pool) == 0 {
		raws, err := pl.direct(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("fallback after %v: %w", reason, err)
		}
		if len(raws) == 0 {
			return Result{}, fmt.Errorf("fallback after %v: %w", reason, synth.ErrNoCandidates)
		}
		pool = unenriched(raws)
	}

	first := pool[0]
	summary := first.Summary
	if summary == "" {
		summary = route.DefaultSummary(0)
	}

	return Result{
		RunID:       runID.String(),
		RouteID:     0,
		Summary:     summary,
		Explanation: DegradedExplanation(reason),
		Route:       first,
		Degraded:    true,
		Stage:       pipeline.StageFallback,
	}, nil
}

// DegradedExplanation は縮退運転の説明文を返す
func DegradedExplanation(reason error) string {
	if reason == nil {
		return DegradedNotice
	}
	return fmt.Sprintf("%s (reason: %s)", DegradedNotice, reasonText(reason))
}

func reasonText(err error) string {
	var oe *pipeline.OracleError
	if errors.As(err, &oe) {
		return fmt.Sprintf("%s stage failed: %s", oe.Stage, oe.Reason)
	}
	return err.Error()
}

// resolveQueries はリクエストのクエリが空なら要望テキストから導出し、それも無ければ既定値を返す
func (p *Planner) resolveQueries(query string, queries []string) []string {
	if len(queries) > 0 {
		return queries
	}
	if p.keywords != nil {
		if kw := p.keywords.Keywords(query); len(kw) > 0 {
			return kw
		}
	}
	return append([]string(nil), DefaultKeywords...)
}

func unenriched(raws []route.RawRoute) []route.EnrichedRoute {
	out := make([]route.EnrichedRoute, len(raws))
	for i, r := range raws {
		out[i] = route.NewEnrichedRoute(r)
	}
	return out
}
