// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordScrapeSuccess(targetID string)
	RecordScrapeFailure(targetID string, reason string)
	RecordPipelineRun(phase string)
	RecordLLMCall(operation string)
	RecordLLMFailure(operation string)
	RecordScrapeLatency(duration time.Duration)
	RecordInsightsCreated(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	scrapeSuccess   prometheus.Counter
	scrapeFail      prometheus.Counter
	pipelineRuns    *prometheus.CounterVec
	llmCalls        *prometheus.CounterVec
	llmFailures     *prometheus.CounterVec
	scrapeLatency   prometheus.Histogram
	insightsCreated prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		scrapeSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chiper_scrape_success_total",
			Help: "スクレイプ成功の合計数",
		}),
		scrapeFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chiper_scrape_fail_total",
			Help: "スクレイプ失敗の合計数",
		}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chiper_pipeline_runs_total",
			Help: "パイプライン実行の最終状態別の合計数",
		}, []string{"phase"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chiper_llm_calls_total",
			Help: "LLM API呼び出しの操作別の合計数",
		}, []string{"operation"}),
		llmFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chiper_llm_failures_total",
			Help: "LLM API呼び出し失敗の操作別の合計数",
		}, []string{"operation"}),
		scrapeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chiper_scrape_latency_seconds",
			Help:    "スクレイプのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		insightsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chiper_insights_created_total",
			Help: "作成されたインサイトの合計数",
		}),
	}

	reg.MustRegister(
		c.scrapeSuccess,
		c.scrapeFail,
		c.pipelineRuns,
		c.llmCalls,
		c.llmFailures,
		c.scrapeLatency,
		c.insightsCreated,
	)

	return c
}

// RecordScrapeSuccess はスクレイプ成功を記録する。
func (c *Collector) RecordScrapeSuccess(targetID string) {
	c.scrapeSuccess.Inc()
}

// RecordScrapeFailure はスクレイプ失敗を記録する。
func (c *Collector) RecordScrapeFailure(targetID string, reason string) {
	c.scrapeFail.Inc()
}

// RecordPipelineRun はパイプライン実行の最終状態を記録する。
func (c *Collector) RecordPipelineRun(phase string) {
	c.pipelineRuns.WithLabelValues(phase).Inc()
}

// RecordLLMCall はLLM API呼び出しを記録する。
func (c *Collector) RecordLLMCall(operation string) {
	c.llmCalls.WithLabelValues(operation).Inc()
}

// RecordLLMFailure はLLM API呼び出しの失敗を記録する。
func (c *Collector) RecordLLMFailure(operation string) {
	c.llmFailures.WithLabelValues(operation).Inc()
}

// RecordScrapeLatency はスクレイプのレイテンシを記録する。
func (c *Collector) RecordScrapeLatency(duration time.Duration) {
	c.scrapeLatency.Observe(duration.Seconds())
}

// RecordInsightsCreated は作成されたインサイト数を記録する。
func (c *Collector) RecordInsightsCreated(count int) {
	c.insightsCreated.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
