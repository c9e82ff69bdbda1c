package pipeline

import (
	"fmt"

	"github.com/Nyukimin/loopwalk/internal/domain/preference"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
)

// RouteScore は候補1件のマッチスコア
type RouteScore struct {
	RouteID int     `json:"route_id"`
	Score   float64 `json:"score"`
}

// State は意思決定パイプラインを流れる状態を表す値オブジェクト。
// 各段階は自分の出力フィールドを1つだけ追加でき、With系メソッドは
// 直前の段階にいる場合のみ新しいStateを返す。
type State struct {
	runID       RunID
	origin      string
	destination string
	query       string
	routes      []route.Candidate

	preferences preference.Weights
	scores      []RouteScore
	chosenID    *int
	explanation *string

	stage Stage
}

// NewState はSTART状態のStateを作成
func NewState(runID RunID, origin, destination, query string, routes []route.Candidate) State {
	rs := make([]route.Candidate, len(routes))
	copy(rs, routes)

	return State{
		runID:       runID,
		origin:      origin,
		destination: destination,
		query:       query,
		routes:      rs,
		stage:       StageStart,
	}
}

// RunID は実行IDを返す
func (s State) RunID() RunID {
	return s.runID
}

// Origin は出発地の記述を返す
func (s State) Origin() string {
	return s.origin
}

// Destination は目的地の記述を返す
func (s State) Destination() string {
	return s.destination
}

// Query はユーザーの要望テキストを返す
func (s State) Query() string {
	return s.query
}

// Routes は候補一覧のコピーを返す
func (s State) Routes() []route.Candidate {
	out := make([]route.Candidate, len(s.routes))
	copy(out, s.routes)
	return out
}

// Candidate はRouteIDに対応する候補を返す
func (s State) Candidate(id int) (route.Candidate, bool) {
	for _, c := range s.routes {
		if c.RouteID == id {
			return c, true
		}
	}
	return route.Candidate{}, false
}

// Stage は現在の状態を返す
func (s State) Stage() Stage {
	return s.stage
}

// Preferences は推論済みの選好を返す
func (s State) Preferences() (preference.Weights, bool) {
	if s.preferences == nil {
		return nil, false
	}
	return s.preferences.Clone(), true
}

// Scores は採点結果を返す
func (s State) Scores() ([]RouteScore, bool) {
	if s.scores == nil {
		return nil, false
	}
	out := make([]RouteScore, len(s.scores))
	copy(out, s.scores)
	return out, true
}

// ChosenRouteID は選択されたRouteIDを返す
func (s State) ChosenRouteID() (int, bool) {
	if s.chosenID == nil {
		return 0, false
	}
	return *s.chosenID, true
}

// Explanation は説明文を返す
func (s State) Explanation() (string, bool) {
	if s.explanation == nil {
		return "", false
	}
	return *s.explanation, true
}

// WithPreferences は選好を設定した INFERRED 状態の新しいStateを返す
func (s State) WithPreferences(w preference.Weights) (State, error) {
	if err := s.expect(StageStart); err != nil {
		return s, err
	}
	s.preferences = w.Clone()
	s.stage = StageInferred
	return s, nil
}

// WithScores は採点結果を設定した SCORED 状態の新しいStateを返す
func (s State) WithScores(scores []RouteScore) (State, error) {
	if err := s.expect(StageInferred); err != nil {
		return s, err
	}
	s.scores = make([]RouteScore, len(scores))
	copy(s.scores, scores)
	s.stage = StageScored
	return s, nil
}

// WithChosenRouteID は選択結果を設定した SELECTED 状態の新しいStateを返す
func (s State) WithChosenRouteID(id int) (State, error) {
	if err := s.expect(StageScored); err != nil {
		return s, err
	}
	s.chosenID = &id
	s.stage = StageSelected
	return s, nil
}

// WithExplanation は説明文を設定した EXPLAINED 状態の新しいStateを返す
func (s State) WithExplanation(text string) (State, error) {
	if err := s.expect(StageSelected); err != nil {
		return s, err
	}
	s.explanation = &text
	s.stage = StageExplained
	return s, nil
}

func (s State) expect(stage Stage) error {
	if s.stage != stage {
		return fmt.Errorf("%w: at %s, want %s", ErrStageOrder, s.stage, stage)
	}
	return nil
}
