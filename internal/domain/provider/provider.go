package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nyukimin/loopwalk/internal/domain/geo"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
)

// Geocoder は地名を座標に解決する
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)
}

// RouteProvider は2点（と任意の経由地）間の徒歩ルートを返す。
// 空のスライスは「ルート無し」を意味し、エラーではない。
type RouteProvider interface {
	Route(ctx context.Context, from, to geo.Coordinate, via *geo.Coordinate) ([]route.RawRoute, error)
}

// PlaceSearcher は地点周辺のPOIを検索する。
// 半径による絞り込みは参考値であり、呼び出し側で再検証する。
type PlaceSearcher interface {
	Search(ctx context.Context, point geo.Coordinate, keyword string, radiusM float64) ([]route.Place, error)
}

// SignalProvider は地点ごとの正規化されたスカラー値（混雑度・犯罪リスク）を返す
type SignalProvider interface {
	Value(ctx context.Context, point geo.Coordinate) (float64, error)
}

// ErrNotFound は住所が解決できない場合のエラー
var ErrNotFound = errors.New("not found")

// Error は外部プロバイダー呼び出しの失敗を表す
type Error struct {
	Provider string
	Op       string
	Err      error
}

// NewError は新しいErrorを作成
func NewError(provider, op string, err error) *Error {
	return &Error{Provider: provider, Op: op, Err: err}
}

// Error はエラーメッセージを返す
func (e *Error) Error() string {
	return fmt.Sprintf("provider %s %s failed: %v", e.Provider, e.Op, e.Err)
}

// Unwrap は元のエラーを返す
func (e *Error) Unwrap() error {
	return e.Err
}

// IsProviderError はerrがErrorを含むかを判定
func IsProviderError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}
