package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ampersand-AI/chiper/internal/metrics"
	"github.com/Ampersand-AI/chiper/internal/middleware"
)

// Pinger はヘルスチェック用のDB疎通確認インターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// ドメインサービス
	CompetitorService CompetitorServiceInterface
	InsightService    InsightServiceInterface
	TargetService     TargetServiceInterface
	ScraperService    ScraperServiceInterface

	// 生成物の読み取り
	ScraperCodeLister ScraperCodeLister
	AnalysisLister    AnalysisLister
	ReportLister      ReportLister

	// 設定
	SettingsStore SettingsStore
	APIKeyTester  APIKeyTester

	// 運用エンドポイント
	DB              Pinger              // nilの場合、/healthはDB疎通確認を省略する
	MetricsGatherer prometheus.Gatherer // nilの場合、/metricsは公開しない
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	competitorHandler := NewCompetitorHandler(deps.CompetitorService)
	insightHandler := NewInsightHandler(deps.InsightService)
	targetHandler := NewTargetHandler(deps.TargetService)
	sourceHandler := NewSourceHandler()
	scraperHandler := NewScraperHandler(deps.ScraperService, deps.ScraperCodeLister, deps.AnalysisLister, deps.ReportLister)
	settingsHandler := NewSettingsHandler(deps.SettingsStore, deps.APIKeyTester)

	// --- 運用エンドポイント（レート制限なし） ---

	r.Get("/health", healthHandler(deps.DB))

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.SetupMetricsRoute(deps.MetricsGatherer))
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 競合企業管理
		r.Route("/api/competitors", func(r chi.Router) {
			r.Post("/", competitorHandler.AddCompetitor)
			r.Get("/", competitorHandler.ListCompetitors)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", competitorHandler.GetCompetitor)
				r.Patch("/", competitorHandler.UpdateCompetitor)
				r.Delete("/", competitorHandler.DeleteCompetitor)

				// GET /api/competitors/{id}/insights - 競合企業ごとのインサイト一覧
				r.Get("/insights", insightHandler.ListByCompetitor)
			})
		})

		// インサイト管理
		r.Route("/api/insights", func(r chi.Router) {
			r.Post("/", insightHandler.AddInsight)
			r.Get("/", insightHandler.ListInsights)
		})

		// スクレイプ対象管理
		r.Route("/api/targets", func(r chi.Router) {
			r.Post("/", targetHandler.AddTarget)
			r.Get("/", targetHandler.ListTargets)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/toggle", targetHandler.ToggleTarget)
				r.Delete("/", targetHandler.DeleteTarget)
			})
		})

		// APIソースカタログ
		r.Get("/api/sources", sourceHandler.ListSources)

		// スクレイパー実行と生成物
		r.Route("/api/scraper", func(r chi.Router) {
			// POST /api/scraper/run - パイプライン実行（実行専用レート制限を追加）
			r.With(deps.RateLimiter.ScrapeMiddleware()).Post("/run", scraperHandler.RunScraper)
			r.Post("/generate", scraperHandler.GenerateScraper)
		})
		r.Get("/api/scrapers", scraperHandler.ListScraperCodes)
		r.Get("/api/analyses", scraperHandler.ListAnalyses)
		r.Get("/api/reports", scraperHandler.ListReports)

		// スクレイパー設定
		r.Route("/api/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.GetSettings)
			r.Put("/", settingsHandler.UpdateSettings)
			r.Post("/test-key", settingsHandler.TestAPIKey)
		})
	})

	return r
}

// healthHandler はヘルスチェックのハンドラーを返す。
// DBが指定されている場合は疎通確認を行い、失敗時は503を返す。
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
