package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyukimin/loopwalk/internal/domain/pipeline"
	"github.com/Nyukimin/loopwalk/internal/domain/preference"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/metrics"
)

func newState(n int) pipeline.State {
	return pipeline.NewState(pipeline.NewRunID(), "Millennium Park", "Union Station", "coffee and quiet streets", candidates(n))
}

func TestPipeline_Run_HappyPath(t *testing.T) {
	prefs := &mockPrefs{weights: preference.Weights{preference.Cafes: 0.8, preference.LowCrowd: 0.6}}
	scoring := &mockScoring{scores: []pipeline.RouteScore{{RouteID: 0, Score: 0.4}, {RouteID: 1, Score: 0.95}, {RouteID: 2, Score: 0.6}}}
	explain := &mockExplain{text: " Route 1 has the most cafes. "}

	p := NewPipeline(prefs, scoring, explain, nil)
	final, err := p.Run(context.Background(), newState(3))
	require.NoError(t, err)

	assert.Equal(t, pipeline.StageExplained, final.Stage())

	id, ok := final.ChosenRouteID()
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, 1, explain.chosen.RouteID)

	text, ok := final.Explanation()
	require.True(t, ok)
	assert.Equal(t, "Route 1 has the most cafes.", text)

	w, ok := final.Preferences()
	require.True(t, ok)
	assert.Equal(t, 0.8, w[preference.Cafes])
}

func TestPipeline_Run_AbortsOnFirstFailure(t *testing.T) {
	prefs := &mockPrefs{weights: preference.Weights{preference.Safety: 1}}
	scoring := &mockScoring{err: errors.New("malformed json")}
	explain := &mockExplain{text: "unused"}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	p := NewPipeline(prefs, scoring, explain, m)
	_, err := p.Run(context.Background(), newState(2))
	require.Error(t, err)
	assert.True(t, pipeline.IsOracleError(err))

	assert.Equal(t, 1, prefs.calls)
	assert.Equal(t, 1, scoring.calls)
	assert.Equal(t, 0, explain.calls)
	n, err := testutil.GatherAndCount(reg, "loopwalk_pipeline_stage_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPipeline_Run_InferenceFailureSkipsLaterStages(t *testing.T) {
	prefs := &mockPrefs{weights: preference.Weights{}}
	scoring := &mockScoring{}
	explain := &mockExplain{}

	p := NewPipeline(prefs, scoring, explain, nil)
	_, err := p.Run(context.Background(), newState(2))
	require.Error(t, err)

	var oe *pipeline.OracleError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, pipeline.StageInferred, oe.Stage)
	assert.Equal(t, 0, scoring.calls)
	assert.Equal(t, 0, explain.calls)
}

func TestPipeline_Run_NoCandidatesIsSelectionError(t *testing.T) {
	prefs := &mockPrefs{weights: preference.Weights{preference.Parks: 0.5}}
	scoring := &mockScoring{scores: nil}

	p := NewPipeline(prefs, scoring, &mockExplain{}, nil)
	_, err := p.Run(context.Background(), newState(0))
	assert.ErrorIs(t, err, pipeline.ErrSelection)
}

func TestPipeline_Run_RequiresStartState(t *testing.T) {
	s, err := newState(1).WithPreferences(preference.Weights{preference.Parks: 0.5})
	require.NoError(t, err)

	p := NewPipeline(&mockPrefs{}, &mockScoring{}, &mockExplain{}, nil)
	_, err = p.Run(context.Background(), s)
	assert.ErrorIs(t, err, pipeline.ErrStageOrder)
}
