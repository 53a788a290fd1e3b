// Package metrics はPrometheusメトリクスの収集と公開を提供する。
// モックサーバーのリクエスト数とレイテンシを記録する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// モックサーバーのハンドラーから利用する。
type MetricsCollector interface {
	RecordRequest(statusCode int)
	RecordRequestDuration(duration time.Duration)
	RecordAuthRejected()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	authRejected    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "noteman_mock_requests_total",
			Help: "HTTPステータスコード別のリクエスト数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "noteman_mock_request_duration_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "noteman_mock_auth_rejected_total",
			Help: "認証拒否（401）の合計数",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.authRejected,
	)

	return c
}

// RecordRequest はステータスコード別にリクエストを記録する。
func (c *Collector) RecordRequest(statusCode int) {
	c.requests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordAuthRejected は認証拒否を記録する。
func (c *Collector) RecordAuthRejected() {
	c.authRejected.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
