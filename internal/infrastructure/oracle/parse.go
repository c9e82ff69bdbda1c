package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Nyukimin/loopwalk/internal/domain/pipeline"
	"github.com/Nyukimin/loopwalk/internal/domain/preference"
)

var (
	// ErrNoJSON はモデル出力にJSONが見つからない場合のエラー
	ErrNoJSON = errors.New("no JSON value in model output")
	// ErrMalformed はJSONの形が期待と異なる場合のエラー
	ErrMalformed = errors.New("malformed model output")
)

// extractJSON はモデル出力から最初に完結するJSON値を取り出す。コードフェンスや前後の文章は無視する。
func extractJSON(content string) (string, error) {
	found := false
	for i := 0; i < len(content); i++ {
		if content[i] != '{' && content[i] != '[' {
			continue
		}
		found = true

		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(content[i:])).Decode(&raw); err != nil {
			continue
		}
		return string(raw), nil
	}

	if !found {
		return "", ErrNoJSON
	}
	return "", fmt.Errorf("%w: invalid JSON", ErrMalformed)
}

// parseWeights は {"name": weight, ...} を選好の重みに変換する。nullの項目は「無関係」として除く。
func parseWeights(content string) (preference.Weights, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	obj := gjson.Parse(raw)
	if !obj.IsObject() {
		return nil, fmt.Errorf("%w: expected an object of weights", ErrMalformed)
	}

	w := preference.Weights{}
	var perr error
	obj.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.Null:
			return true
		case gjson.Number:
			w[preference.Name(key.String())] = value.Float()
			return true
		default:
			perr = fmt.Errorf("%w: weight for %q is not a number", ErrMalformed, key.String())
			return false
		}
	})
	if perr != nil {
		return nil, perr
	}
	return w, nil
}

// parseScores は {"scores": [...]} または [...] をスコア一覧に変換する
func parseScores(content string) ([]pipeline.RouteScore, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	list := gjson.Parse(raw)
	if list.IsObject() {
		list = list.Get("scores")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: expected a list of scores", ErrMalformed)
	}

	items := list.Array()
	scores := make([]pipeline.RouteScore, 0, len(items))
	for i, item := range items {
		id := item.Get("route_id")
		score := item.Get("score")
		if id.Type != gjson.Number || score.Type != gjson.Number {
			return nil, fmt.Errorf("%w: score entry %d needs numeric route_id and score", ErrMalformed, i)
		}
		if id.Float() != math.Trunc(id.Float()) {
			return nil, fmt.Errorf("%w: route_id %v is not an integer", ErrMalformed, id.Float())
		}
		scores = append(scores, pipeline.RouteScore{RouteID: int(id.Int()), Score: score.Float()})
	}
	return scores, nil
}
