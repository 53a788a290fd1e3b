package middleware

import (
	"net/http"
	"time"
)

// RequestMetrics はリクエストメトリクス記録に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type RequestMetrics interface {
	RecordRequest(statusCode int)
	RecordRequestDuration(duration time.Duration)
}

// NewMetricsMiddleware はリクエストのステータスコードと処理時間を
// コレクタへ記録するミドルウェアを返す。
func NewMetricsMiddleware(collector RequestMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			collector.RecordRequest(rec.statusCode)
			collector.RecordRequestDuration(time.Since(start))
		})
	}
}
