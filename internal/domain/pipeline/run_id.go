package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunID は1回のパイプライン実行の識別子を表す値オブジェクト
type RunID struct {
	value string
}

// NewRunID は新しいRunIDを生成
func NewRunID() RunID {
	// フォーマット: YYYYMMDD-HHMMSS-{UUID先頭8文字}
	now := time.Now()
	datePrefix := now.Format("20060102-150405")
	uuidStr := uuid.New().String()[:8]

	return RunID{
		value: fmt.Sprintf("%s-%s", datePrefix, uuidStr),
	}
}

// String はRunIDの文字列表現を返す
func (r RunID) String() string {
	return r.value
}

// IsZero はRunIDがゼロ値かを判定
func (r RunID) IsZero() bool {
	return r.value == ""
}
