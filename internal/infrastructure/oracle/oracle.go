package oracle

import (
	"context"
	"time"

	"github.com/Nyukimin/loopwalk/internal/domain/llm"
	"github.com/Nyukimin/loopwalk/internal/domain/pipeline"
	"github.com/Nyukimin/loopwalk/internal/domain/preference"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/metrics"
	"github.com/Nyukimin/loopwalk/pkg/logger"
)

// Config はLLMオラクルの設定
type Config struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Temperature: 0.2,
		MaxTokens:   1024,
		Timeout:     60 * time.Second,
	}
}

// LLMOracle はLLMProviderを使って選好推論・採点・説明を行う
type LLMOracle struct {
	provider llm.LLMProvider
	cfg      Config
	metrics  *metrics.Metrics
}

// NewLLMOracle は新しいLLMOracleを作成
func NewLLMOracle(provider llm.LLMProvider, cfg Config, m *metrics.Metrics) *LLMOracle {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &LLMOracle{provider: provider, cfg: cfg, metrics: m}
}

// Infer は要望テキストから選好の重みを推論する
func (o *LLMOracle) Infer(ctx context.Context, query string) (preference.Weights, error) {
	content, err := o.generate(ctx, "infer", preferenceSystemPrompt, preferencePrompt(query), true)
	if err != nil {
		return nil, pipeline.NewOracleError(pipeline.StageInferred, "preference model call failed", err)
	}

	w, err := parseWeights(content)
	if err != nil {
		return nil, pipeline.NewOracleError(pipeline.StageInferred, "unparseable preference weights", err)
	}
	return w, nil
}

// Score は全候補を採点する
func (o *LLMOracle) Score(ctx context.Context, query string, prefs preference.Weights, candidates []route.Candidate) ([]pipeline.RouteScore, error) {
	prompt, err := scoringPrompt(query, prefs, candidates)
	if err != nil {
		return nil, pipeline.NewOracleError(pipeline.StageScored, "failed to build scoring prompt", err)
	}

	content, err := o.generate(ctx, "score", scoringSystemPrompt, prompt, true)
	if err != nil {
		return nil, pipeline.NewOracleError(pipeline.StageScored, "scoring model call failed", err)
	}

	scores, err := parseScores(content)
	if err != nil {
		return nil, pipeline.NewOracleError(pipeline.StageScored, "unparseable route scores", err)
	}
	return scores, nil
}

// Explain は選ばれた候補の説明文を生成する
func (o *LLMOracle) Explain(ctx context.Context, query string, chosen route.Candidate) (string, error) {
	prompt, err := explanationPrompt(query, chosen)
	if err != nil {
		return "", pipeline.NewOracleError(pipeline.StageExplained, "failed to build explanation prompt", err)
	}

	content, err := o.generate(ctx, "explain", explanationSystemPrompt, prompt, false)
	if err != nil {
		return "", pipeline.NewOracleError(pipeline.StageExplained, "explanation model call failed", err)
	}
	return content, nil
}

func (o *LLMOracle) generate(ctx context.Context, op, systemPrompt, content string, jsonOutput bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	req := llm.UserPrompt(systemPrompt, content).WithTemperature(o.cfg.Temperature)
	req.MaxTokens = o.cfg.MaxTokens
	req.JSONOutput = jsonOutput

	start := time.Now()
	resp, err := o.provider.Generate(ctx, req)
	o.metrics.ObserveProviderCall("llm", op, err)
	if err != nil {
		return "", err
	}

	logger.DebugCF("oracle", "oracle.generated", map[string]interface{}{
		"op":       op,
		"provider": o.provider.Name(),
		"tokens":   resp.TokensUsed,
		"elapsed":  time.Since(start).String(),
	})
	return resp.Content, nil
}
