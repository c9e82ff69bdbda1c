package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Nyukimin/loopwalk/internal/adapter/config"
	"github.com/Nyukimin/loopwalk/internal/adapter/httpapi"
	"github.com/Nyukimin/loopwalk/internal/application/decision"
	"github.com/Nyukimin/loopwalk/internal/application/enrich"
	"github.com/Nyukimin/loopwalk/internal/application/planner"
	"github.com/Nyukimin/loopwalk/internal/application/synth"
	"github.com/Nyukimin/loopwalk/internal/domain/llm"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/keywords"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/llm/claude"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/llm/deepseek"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/llm/ollama"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/llm/openai"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/maps"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/metrics"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/oracle"
	"github.com/Nyukimin/loopwalk/internal/infrastructure/signals"
	"github.com/Nyukimin/loopwalk/pkg/health"
	"github.com/Nyukimin/loopwalk/pkg/logger"
)

func main() {
	// 設定ファイルパス
	configPath := getConfigPath()

	// 設定読み込み
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.InfoCF("main", "config.loaded", map[string]interface{}{
		"path":   configPath,
		"oracle": cfg.Oracle.Provider,
	})

	// 依存関係構築
	deps, err := buildDependencies(cfg)
	if err != nil {
		logger.ErrorCF("main", "wiring.failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// HTTPサーバー起動
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      deps.server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.InfoCF("main", "server.starting", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.ErrorCF("main", "server.failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCF("main", "server.shutdown_failed", map[string]interface{}{"error": err.Error()})
		return
	}
	logger.InfoCF("main", "server.stopped", nil)
}

// Dependencies はアプリケーション依存関係
type Dependencies struct {
	server *httpapi.Server
}

// buildDependencies は依存関係を構築
func buildDependencies(cfg *config.Config) (*Dependencies, error) {
	// 1. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 2. Google Maps（Geocoder / RouteProvider / PlaceSearcher）
	mapsClient, err := maps.NewClient(maps.Config{
		APIKey:    cfg.Maps.APIKey,
		BaseURL:   cfg.Maps.BaseURL,
		Language:  cfg.Maps.Language,
		RateLimit: cfg.Maps.RateLimit,
		Timeout:   cfg.Maps.Timeout,
	})
	if err != nil {
		return nil, err
	}

	// 3. 模擬シグナル（混雑度・犯罪リスク）
	crowdNoise, riskNoise := signals.Noise(signals.RandomNoise), signals.Noise(signals.RandomNoise)
	if cfg.Planner.Seed != 0 {
		crowdNoise = signals.UniformNoise(cfg.Planner.Seed)
		riskNoise = signals.UniformNoise(cfg.Planner.Seed + 1)
	}

	// 4. Oracle LLM
	checker := health.NewChecker()
	provider, err := buildOracleProvider(cfg, checker)
	if err != nil {
		return nil, err
	}
	o := oracle.NewLLMOracle(provider, oracle.Config{
		Temperature: *cfg.Oracle.Temperature,
		MaxTokens:   cfg.Oracle.MaxTokens,
		Timeout:     cfg.Oracle.Timeout,
	}, m)

	// 5. Application
	synthesizer := synth.NewSynthesizer(mapsClient, mapsClient,
		synth.WithCallTimeout(cfg.Maps.Timeout),
		synth.WithMetrics(m),
	)
	enricher := enrich.NewEngine(
		mapsClient,
		signals.NewCrowdDensity(crowdNoise),
		signals.NewCrimeRisk(riskNoise),
		enrich.Config{
			Stride:        cfg.Planner.SampleStride,
			RadiusM:       cfg.Planner.POIRadiusM,
			TopN:          cfg.Planner.POITopN,
			Concurrency:   cfg.Planner.POIConcurrency,
			RatePerSecond: cfg.Planner.POIRatePerSecond,
			CallTimeout:   cfg.Maps.Timeout,
		},
		m,
	)
	pipe := decision.NewPipeline(o, o, o, m)
	p := planner.NewPlanner(synthesizer, enricher, pipe, keywords.NewDictionary(), planner.Config{
		DestinationVariations: cfg.Planner.DestinationVariations,
		DurationVariations:    cfg.Planner.DurationVariations,
	}, m)

	// 6. Adapter (HTTP)
	logger.InfoCF("main", "wiring.complete", map[string]interface{}{"oracle_model": provider.Name()})
	return &Dependencies{server: httpapi.NewServer(p, checker, reg)}, nil
}

// buildOracleProvider は設定されたLLMプロバイダーを作成
func buildOracleProvider(cfg *config.Config, checker *health.Checker) (llm.LLMProvider, error) {
	switch cfg.Oracle.Provider {
	case "openai":
		return openai.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model), nil
	case "claude":
		return claude.NewClaudeProvider(cfg.Claude.APIKey, cfg.Claude.Model), nil
	case "deepseek":
		return deepseek.NewDeepSeekProvider(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model), nil
	case "ollama":
		checker.Register("ollama", health.OllamaCheck(cfg.Ollama.BaseURL, 3*time.Second))
		checker.Register("ollama_model", health.OllamaModelCheck(cfg.Ollama.BaseURL, 3*time.Second, cfg.Ollama.Model))
		return ollama.NewOllamaProvider(cfg.Ollama.BaseURL, cfg.Ollama.Model), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %q", cfg.Oracle.Provider)
	}
}

// getConfigPath は設定ファイルパスを取得
func getConfigPath() string {
	if path := os.Getenv("LOOPWALK_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}
