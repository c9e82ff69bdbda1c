package decision

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Nyukimin/loopwalk/internal/domain/pipeline"
	"github.com/Nyukimin/loopwalk/internal/domain/preference"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
)

// PreferenceOracle はユーザーの要望テキストから選好の重みを推論する
type PreferenceOracle interface {
	Infer(ctx context.Context, query string) (preference.Weights, error)
}

// ScoringOracle は全候補にマッチスコアを付ける
type ScoringOracle interface {
	Score(ctx context.Context, query string, prefs preference.Weights, candidates []route.Candidate) ([]pipeline.RouteScore, error)
}

// ExplanationOracle は選ばれた候補の説明文を生成する
type ExplanationOracle interface {
	Explain(ctx context.Context, query string, chosen route.Candidate) (string, error)
}

// Infer は選好推論段階。オラクルの出力が不正な場合は重みを補完せずOracleErrorを返す。
func Infer(ctx context.Context, oracle PreferenceOracle, query string) (preference.Weights, error) {
	w, err := oracle.Infer(ctx, query)
	if err != nil {
		return nil, asOracleError(pipeline.StageInferred, "preference inference failed", err)
	}
	if err := w.Validate(); err != nil {
		return nil, pipeline.NewOracleError(pipeline.StageInferred, "invalid preference weights", err)
	}
	return w, nil
}

// Score は採点段階。候補一覧を絞り込まずに渡し、全てのRouteIDがちょうど1回ずつ
// 採点されていることを検証する。
func Score(ctx context.Context, oracle ScoringOracle, query string, prefs preference.Weights, candidates []route.Candidate) ([]pipeline.RouteScore, error) {
	scores, err := oracle.Score(ctx, query, prefs, candidates)
	if err != nil {
		return nil, asOracleError(pipeline.StageScored, "scoring failed", err)
	}
	if err := ValidateScores(scores, candidates); err != nil {
		return nil, pipeline.NewOracleError(pipeline.StageScored, "invalid route scores", err)
	}
	return scores, nil
}

// ValidateScores はスコア集合が候補のRouteIDを過不足なく1回ずつ含み、
// 各スコアが[0,1]に収まることを検証する
func ValidateScores(scores []pipeline.RouteScore, candidates []route.Candidate) error {
	want := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		want[c.RouteID] = true
	}

	seen := make(map[int]bool, len(scores))
	for _, s := range scores {
		if !want[s.RouteID] {
			return fmt.Errorf("unknown route_id %d", s.RouteID)
		}
		if seen[s.RouteID] {
			return fmt.Errorf("duplicate route_id %d", s.RouteID)
		}
		if math.IsNaN(s.Score) || s.Score < 0 || s.Score > 1 {
			return fmt.Errorf("score %v for route_id %d out of range [0,1]", s.Score, s.RouteID)
		}
		seen[s.RouteID] = true
	}

	for _, c := range candidates {
		if !seen[c.RouteID] {
			return fmt.Errorf("missing route_id %d", c.RouteID)
		}
	}
	return nil
}

// Select は選択段階。最大スコアのRouteIDを返し、同点の場合は先に現れたものを選ぶ。
func Select(scores []pipeline.RouteScore) (int, error) {
	if len(scores) == 0 {
		return 0, pipeline.ErrSelection
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best.RouteID, nil
}

// Explain は説明段階。前後の空白を除くだけで、長さは制限しない。
func Explain(ctx context.Context, oracle ExplanationOracle, query string, chosen route.Candidate) (string, error) {
	text, err := oracle.Explain(ctx, query, chosen)
	if err != nil {
		return "", asOracleError(pipeline.StageExplained, "explanation failed", err)
	}
	return strings.TrimSpace(text), nil
}

// asOracleError はオラクル自身が返したOracleErrorはそのまま通し、それ以外を包む
func asOracleError(stage pipeline.Stage, reason string, err error) error {
	if pipeline.IsOracleError(err) {
		return err
	}
	return pipeline.NewOracleError(stage, reason, err)
}
