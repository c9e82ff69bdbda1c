package pipeline

// Stage はパイプラインの状態
type Stage int

// 状態の定数定義（START から EXPLAINED まで一直線に遷移する）
const (
	StageStart Stage = iota
	StageInferred
	StageScored
	StageSelected
	StageExplained
	StageFallback
)

// String はStageの文字列表現を返す
func (s Stage) String() string {
	switch s {
	case StageStart:
		return "START"
	case StageInferred:
		return "INFERRED"
	case StageScored:
		return "SCORED"
	case StageSelected:
		return "SELECTED"
	case StageExplained:
		return "EXPLAINED"
	case StageFallback:
		return "FALLBACK"
	default:
		return "UNKNOWN"
	}
}

// MarshalText はJSON出力用のテキスト表現を返す
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
