package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrSelection はスコアが空のまま選択段階に到達した場合のエラー
	ErrSelection = errors.New("selection: no route scores")
	// ErrStageOrder は段階の順序が守られなかった場合のエラー
	ErrStageOrder = errors.New("pipeline stage applied out of order")
)

// OracleError は推論オラクルの呼び出し失敗、または出力不正を表す
type OracleError struct {
	Stage  Stage
	Reason string
	Err    error
}

// NewOracleError は新しいOracleErrorを作成
func NewOracleError(stage Stage, reason string, err error) *OracleError {
	return &OracleError{Stage: stage, Reason: reason, Err: err}
}

// Error はエラーメッセージを返す
func (e *OracleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle error at %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("oracle error at %s: %s", e.Stage, e.Reason)
}

// Unwrap は元のエラーを返す
func (e *OracleError) Unwrap() error {
	return e.Err
}

// IsOracleError はerrがOracleErrorを含むかを判定
func IsOracleError(err error) bool {
	var oe *OracleError
	return errors.As(err, &oe)
}
