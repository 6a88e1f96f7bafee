package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/Ampersand-AI/chiper/internal/competitor"
	"github.com/Ampersand-AI/chiper/internal/config"
	"github.com/Ampersand-AI/chiper/internal/database"
	"github.com/Ampersand-AI/chiper/internal/handler"
	"github.com/Ampersand-AI/chiper/internal/insight"
	"github.com/Ampersand-AI/chiper/internal/llm"
	"github.com/Ampersand-AI/chiper/internal/logger"
	"github.com/Ampersand-AI/chiper/internal/metrics"
	"github.com/Ampersand-AI/chiper/internal/middleware"
	"github.com/Ampersand-AI/chiper/internal/repository"
	"github.com/Ampersand-AI/chiper/internal/scraper"
	"github.com/Ampersand-AI/chiper/internal/security"
	"github.com/Ampersand-AI/chiper/internal/target"
	"github.com/Ampersand-AI/chiper/internal/worker/cleanup"
	scrapepkg "github.com/Ampersand-AI/chiper/internal/worker/scrape"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	competitorRepo := repository.NewPostgresCompetitorRepo(db)
	insightRepo := repository.NewPostgresInsightRepo(db)
	targetRepo := repository.NewPostgresScrapeTargetRepo(db)
	codeRepo := repository.NewPostgresScraperCodeRepo(db)
	analysisRepo := repository.NewPostgresAnalysisRepo(db)
	reportRepo := repository.NewPostgresReportRepo(db)
	settingsRepo := repository.NewPostgresSettingsRepo(db)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. ドメインサービスの初期化
	competitorService := competitor.NewService(competitorRepo, insightRepo, slog.Default())
	insightService := insight.NewService(insightRepo, competitorRepo, slog.Default())
	targetService := target.NewService(targetRepo, competitorRepo, ssrfGuard, slog.Default())

	fetcher := scraper.NewFetcher(ssrfGuard, sanitizer, cfg.ScrapeTimeout, cfg.ScrapeMaxSize)
	llmClient := llm.NewClient(
		&http.Client{Timeout: cfg.LLMTimeout},
		slog.Default(), cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMCoderModel,
	)
	scraperService := scraper.NewService(
		fetcher, llmClient,
		settingsRepo, insightRepo, analysisRepo, reportRepo, codeRepo, competitorRepo,
		ssrfGuard, cfg, slog.Default(),
	)

	// 5. デモデータの投入（競合企業が存在しない場合のみ）
	if err := competitorService.SeedDemoData(context.Background()); err != nil {
		slog.Warn("failed to seed demo data", slog.String("error", err.Error()))
	}

	// 6. メトリクスの初期化
	registry := prometheus.NewRegistry()
	metrics.NewCollector(registry)

	// 7. ルーターの構築
	// configのレート制限はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitScrape > 0 {
		rateLimiterCfg.ScrapeRate = rate.Limit(float64(cfg.RateLimitScrape) / 60.0)
		rateLimiterCfg.ScrapeBurst = cfg.RateLimitScrape
	}

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		Logger:            slog.Default(),

		CompetitorService: competitorService,
		InsightService:    insightService,
		TargetService:     targetService,
		ScraperService:    scraperService,

		ScraperCodeLister: codeRepo,
		AnalysisLister:    analysisRepo,
		ReportLister:      reportRepo,

		SettingsStore: settingsRepo,
		APIKeyTester:  scraperService,

		DB:              db,
		MetricsGatherer: registry,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、スクレイプスケジューラを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	competitorRepo := repository.NewPostgresCompetitorRepo(db)
	insightRepo := repository.NewPostgresInsightRepo(db)
	targetRepo := repository.NewPostgresScrapeTargetRepo(db)
	codeRepo := repository.NewPostgresScraperCodeRepo(db)
	analysisRepo := repository.NewPostgresAnalysisRepo(db)
	reportRepo := repository.NewPostgresReportRepo(db)
	settingsRepo := repository.NewPostgresSettingsRepo(db)

	// 3. セキュリティサービスとパイプラインの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	fetcher := scraper.NewFetcher(ssrfGuard, sanitizer, cfg.ScrapeTimeout, cfg.ScrapeMaxSize)
	llmClient := llm.NewClient(
		&http.Client{Timeout: cfg.LLMTimeout},
		slog.Default(), cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMCoderModel,
	)
	scraperService := scraper.NewService(
		fetcher, llmClient,
		settingsRepo, insightRepo, analysisRepo, reportRepo, codeRepo, competitorRepo,
		ssrfGuard, cfg, slog.Default(),
	)

	// 4. メトリクスコレクタの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ランナーとスケジューラの初期化
	runner := scrapepkg.NewRunner(targetRepo, scraperService, collector, slog.Default())
	scheduler := scrapepkg.NewScheduler(targetRepo, runner, slog.Default(), cfg.ScrapeMaxConcurrent)

	// 6. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	if cfg.RetentionDays > 0 {
		cleanupJob.RetentionDays = cfg.RetentionDays
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("scrape_interval", cfg.ScrapeInterval),
		slog.Int("max_concurrent", cfg.ScrapeMaxConcurrent),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// スクレイプスケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.ScrapeInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
