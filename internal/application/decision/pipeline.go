package decision

import (
	"context"
	"fmt"

	"github.com/Nyukimin/loopwalk/internal/domain/pipeline"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/metrics"
	"github.com/Nyukimin/loopwalk/pkg/logger"
)

// Pipeline は推論 → 採点 → 選択 → 説明の4段階を順に実行する。
// どこかの段階が失敗した時点で中断し、途中の結果を再利用した再試行は行わない。
type Pipeline struct {
	prefs   PreferenceOracle
	scoring ScoringOracle
	explain ExplanationOracle
	metrics *metrics.Metrics
}

// NewPipeline は新しいPipelineを作成
func NewPipeline(prefs PreferenceOracle, scoring ScoringOracle, explain ExplanationOracle, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		prefs:   prefs,
		scoring: scoring,
		explain: explain,
		metrics: m,
	}
}

// Run はSTART状態のStateを受け取り、EXPLAINED状態のStateを返す
func (p *Pipeline) Run(ctx context.Context, state pipeline.State) (pipeline.State, error) {
	if state.Stage() != pipeline.StageStart {
		return state, fmt.Errorf("%w: run must begin at %s, got %s", pipeline.ErrStageOrder, pipeline.StageStart, state.Stage())
	}

	// 1. 選好推論
	w, err := Infer(ctx, p.prefs, state.Query())
	if err != nil {
		return state, p.fail(state, pipeline.StageInferred, err)
	}
	if state, err = state.WithPreferences(w); err != nil {
		return state, err
	}

	// 2. 採点
	scores, err := Score(ctx, p.scoring, state.Query(), w, state.Routes())
	if err != nil {
		return state, p.fail(state, pipeline.StageScored, err)
	}
	if state, err = state.WithScores(scores); err != nil {
		return state, err
	}

	// 3. 選択
	chosen, err := Select(scores)
	if err != nil {
		return state, p.fail(state, pipeline.StageSelected, err)
	}
	if state, err = state.WithChosenRouteID(chosen); err != nil {
		return state, err
	}

	candidate, ok := state.Candidate(chosen)
	if !ok {
		return state, p.fail(state, pipeline.StageSelected, fmt.Errorf("%w: chosen route_id %d not among candidates", pipeline.ErrSelection, chosen))
	}

	// 4. 説明
	text, err := Explain(ctx, p.explain, state.Query(), candidate)
	if err != nil {
		return state, p.fail(state, pipeline.StageExplained, err)
	}
	if state, err = state.WithExplanation(text); err != nil {
		return state, err
	}

	logger.InfoCF("decision", "decision.completed", map[string]interface{}{
		"run_id":     state.RunID().String(),
		"candidates": len(state.Routes()),
		"chosen":     chosen,
	})
	return state, nil
}

func (p *Pipeline) fail(state pipeline.State, stage pipeline.Stage, err error) error {
	p.metrics.ObserveStageFailure(stage.String())
	logger.WarnCF("decision", "decision.stage_failed", map[string]interface{}{
		"run_id": state.RunID().String(),
		"stage":  stage.String(),
		"error":  err,
	})
	return err
}
