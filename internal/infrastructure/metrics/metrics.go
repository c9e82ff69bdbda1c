package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "loopwalk"

// 計画結果のラベル値
const (
	OutcomePipeline = "pipeline"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

// Metrics はLoopWalkのPrometheusメトリクス。
// nilレシーバでも安全に呼び出せるため、テストでは省略できる。
type Metrics struct {
	providerCalls  *prometheus.CounterVec
	plans          *prometheus.CounterVec
	stageFailures  *prometheus.CounterVec
	planDuration   *prometheus.HistogramVec
	candidateCount prometheus.Histogram
}

// New は新しいMetricsを作成し、regに登録する（regがnilなら登録しない）
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "External provider calls by provider, operation and outcome.",
		}, []string{"provider", "op", "outcome"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Route plans by mode and outcome.",
		}, []string{"mode", "outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_failures_total",
			Help:      "Decision pipeline aborts by stage.",
		}, []string{"stage"}),
		planDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "End-to-end plan latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"mode", "outcome"}),
		candidateCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_routes",
			Help:      "Unique candidate routes after synthesis.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.providerCalls, m.plans, m.stageFailures, m.planDuration, m.candidateCount)
	}
	return m
}

// ObserveProviderCall は外部プロバイダー呼び出しを記録
func (m *Metrics) ObserveProviderCall(provider, op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.providerCalls.WithLabelValues(provider, op, outcome).Inc()
}

// ObservePlan は計画1件の結果と所要時間を記録
func (m *Metrics) ObservePlan(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(mode, outcome).Inc()
	m.planDuration.WithLabelValues(mode, outcome).Observe(elapsed.Seconds())
}

// ObserveStageFailure はパイプライン段階の失敗を記録
func (m *Metrics) ObserveStageFailure(stage string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(stage).Inc()
}

// ObserveCandidates は合成後の候補数を記録
func (m *Metrics) ObserveCandidates(n int) {
	if m == nil {
		return
	}
	m.candidateCount.Observe(float64(n))
}
