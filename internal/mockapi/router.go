package mockapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/noteman/internal/metrics"
	"github.com/hitoshi/noteman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger      *slog.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成した
// chi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → RateLimit
//
// /healthz と /metrics は認証とレート制限の外に配置する。
func NewRouter(s *Server, deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	// 運用エンドポイント
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		// 認証不要のルート
		r.Post("/api/register", s.HandleRegister)
		r.Post("/api/login", s.HandleLogin)

		// 認証が必要なルート
		r.Group(func(r chi.Router) {
			var rejected authRejectedRecorder
			if deps.Metrics != nil {
				rejected = deps.Metrics
			}
			r.Use(requireToken(rejected))

			r.Route("/api/notes", func(r chi.Router) {
				r.Get("/", s.HandleList)
				r.Post("/", s.HandleCreate)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.HandleGet)
					r.Put("/", s.HandleUpdate)
					r.Patch("/", s.HandlePatch)
					r.Delete("/", s.HandleDelete)
				})
			})
		})
	})

	return r
}
