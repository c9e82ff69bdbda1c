package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Maps     MapsConfig     `yaml:"maps"`
	Oracle   OracleConfig   `yaml:"oracle"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Claude   ClaudeConfig   `yaml:"claude"`
	DeepSeek DeepSeekConfig `yaml:"deepseek"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Planner  PlannerConfig  `yaml:"planner"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port            int           `yaml:"port" env:"LOOPWALK_PORT"`
	Host            string        `yaml:"host" env:"LOOPWALK_HOST"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MapsConfig はGoogle Maps設定
type MapsConfig struct {
	APIKey    string        `yaml:"api_key" env:"GOOGLE_MAPS_API_KEY"` // 環境変数から読み込み推奨
	BaseURL   string        `yaml:"base_url"`
	Language  string        `yaml:"language"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit int           `yaml:"rate_limit"` // 1秒あたりのリクエスト数（0で無制限）
}

// OracleConfig は選好推論・採点・説明に使うLLMの設定
type OracleConfig struct {
	Provider    string        `yaml:"provider" env:"LOOPWALK_ORACLE_PROVIDER"` // openai | claude | deepseek | ollama
	// 未指定なら0.2。0は明示値として扱う
	Temperature *float64      `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey string `yaml:"api_key" env:"OPENAI_API_KEY"` // 環境変数から読み込み推奨
	Model  string `yaml:"model"`
}

// ClaudeConfig はClaude API設定
type ClaudeConfig struct {
	APIKey string `yaml:"api_key" env:"ANTHROPIC_API_KEY"` // 環境変数から読み込み推奨
	Model  string `yaml:"model"`
}

// DeepSeekConfig はDeepSeek API設定
type DeepSeekConfig struct {
	APIKey string `yaml:"api_key" env:"DEEPSEEK_API_KEY"` // 環境変数から読み込み推奨
	Model  string `yaml:"model"`
}

// OllamaConfig はOllama設定
type OllamaConfig struct {
	BaseURL string `yaml:"base_url" env:"OLLAMA_BASE_URL"`
	Model   string `yaml:"model"`
}

// PlannerConfig は候補生成とエンリッチメントの設定
type PlannerConfig struct {
	DestinationVariations int     `yaml:"destination_variations"`
	DurationVariations    int     `yaml:"duration_variations"`
	SampleStride          int     `yaml:"sample_stride"`
	POIRadiusM            float64 `yaml:"poi_radius_m"`
	POITopN               int     `yaml:"poi_top_n"`
	POIConcurrency        int     `yaml:"poi_concurrency"`
	POIRatePerSecond      float64 `yaml:"poi_rate_per_second"`
	Seed                  uint64  `yaml:"seed"` // 0以外なら模擬シグナルのノイズを固定
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string `yaml:"level" env:"LOOPWALK_LOG_LEVEL"`
	Format string `yaml:"format"`
}

// LoadConfig は設定ファイルを読み込む
func LoadConfig(path string) (*Config, error) {
	// ファイル読み込み
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// YAMLパース
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// デフォルト値設定
	cfg.setDefaults()

	// 環境変数で上書き（APIキーはファイルに平文保存しない）
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// バリデーション
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults はデフォルト値を設定
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Maps.Timeout == 0 {
		c.Maps.Timeout = 10 * time.Second
	}
	if c.Maps.RateLimit == 0 {
		c.Maps.RateLimit = 50
	}

	if c.Oracle.Provider == "" {
		c.Oracle.Provider = "openai"
	}
	if c.Oracle.Temperature == nil {
		t := 0.2
		c.Oracle.Temperature = &t
	}
	if c.Oracle.MaxTokens == 0 {
		c.Oracle.MaxTokens = 1024
	}
	if c.Oracle.Timeout == 0 {
		c.Oracle.Timeout = 60 * time.Second
	}

	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o"
	}
	if c.Claude.Model == "" {
		c.Claude.Model = "claude-sonnet-4-20250514"
	}
	if c.DeepSeek.Model == "" {
		c.DeepSeek.Model = "deepseek-chat"
	}
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama3.1"
	}

	if c.Planner.DestinationVariations == 0 {
		c.Planner.DestinationVariations = 3
	}
	if c.Planner.DurationVariations == 0 {
		c.Planner.DurationVariations = 8
	}
	if c.Planner.SampleStride == 0 {
		c.Planner.SampleStride = 20
	}
	if c.Planner.POIRadiusM == 0 {
		c.Planner.POIRadiusM = 50
	}
	if c.Planner.POITopN == 0 {
		c.Planner.POITopN = 5
	}
	if c.Planner.POIConcurrency == 0 {
		c.Planner.POIConcurrency = 8
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate は設定の妥当性を検証
func (c *Config) Validate() error {
	// サーバー設定検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}

	// Maps設定検証
	if c.Maps.APIKey == "" {
		return fmt.Errorf("maps api_key is required (set GOOGLE_MAPS_API_KEY)")
	}
	if c.Maps.RateLimit < 0 {
		return fmt.Errorf("maps rate_limit must not be negative")
	}

	// オラクル設定検証
	switch c.Oracle.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai api_key is required (set OPENAI_API_KEY)")
		}
	case "claude":
		if c.Claude.APIKey == "" {
			return fmt.Errorf("claude api_key is required (set ANTHROPIC_API_KEY)")
		}
	case "deepseek":
		if c.DeepSeek.APIKey == "" {
			return fmt.Errorf("deepseek api_key is required (set DEEPSEEK_API_KEY)")
		}
	case "ollama":
		if c.Ollama.BaseURL == "" {
			return fmt.Errorf("ollama base_url is required")
		}
	default:
		return fmt.Errorf("unknown oracle provider: %q (must be openai, claude, deepseek or ollama)", c.Oracle.Provider)
	}
	if t := c.Oracle.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("oracle temperature must be within [0, 2], got %v", *t)
	}

	// プランナー設定検証
	p := c.Planner
	if p.DestinationVariations < 1 || p.DurationVariations < 1 {
		return fmt.Errorf("planner variations must be positive")
	}
	if p.SampleStride < 1 || p.POITopN < 1 || p.POIConcurrency < 1 {
		return fmt.Errorf("planner sample_stride, poi_top_n and poi_concurrency must be positive")
	}
	if p.POIRadiusM <= 0 {
		return fmt.Errorf("planner poi_radius_m must be positive")
	}
	if p.POIRatePerSecond < 0 {
		return fmt.Errorf("planner poi_rate_per_second must not be negative")
	}

	return nil
}
