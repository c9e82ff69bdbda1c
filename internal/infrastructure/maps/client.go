package maps

import (
	"fmt"
	"net/http"
	"time"

	gmaps "googlemaps.github.io/maps"
)

// providerName はprovider.Errorに記録するプロバイダー名
const providerName = "google"

// Config はGoogle Maps クライアントの設定
type Config struct {
	APIKey    string
	BaseURL   string        // 空なら本番エンドポイント
	Language  string        // 住所表記の言語（例: "en"）
	RateLimit int           // 1秒あたりのリクエスト数（0ならライブラリ既定値）
	Timeout   time.Duration // HTTPタイムアウト
}

// Client はGeocoder、RouteProvider、PlaceSearcherを1つのAPIキーで提供する
type Client struct {
	api      *gmaps.Client
	language string
}

// NewClient は新しいClientを作成
func NewClient(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := []gmaps.ClientOption{
		gmaps.WithAPIKey(cfg.APIKey),
		gmaps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, gmaps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, gmaps.WithRateLimit(cfg.RateLimit))
	}

	api, err := gmaps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return &Client{api: api, language: cfg.Language}, nil
}
