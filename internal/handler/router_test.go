package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ampersand-AI/chiper/internal/competitor"
	"github.com/Ampersand-AI/chiper/internal/middleware"
	"github.com/Ampersand-AI/chiper/internal/model"
	"github.com/Ampersand-AI/chiper/internal/scraper"
)

// mockPinger はPingerのモック実装。
type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

// newTestRouterDeps はテスト用のRouterDepsを生成するヘルパー。
func newTestRouterDeps() *RouterDeps {
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	return &RouterDeps{
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		CompetitorService: &mockCompetitorService{},
		InsightService:    &mockInsightService{},
		TargetService:     &mockTargetService{},
		ScraperService:    &mockScraperService{},
		ScraperCodeLister: &mockScraperCodeLister{},
		AnalysisLister:    &mockAnalysisLister{},
		ReportLister:      &mockReportLister{},
		SettingsStore:     &mockSettingsStore{settings: &model.ScraperSettings{}},
		APIKeyTester:      &mockAPIKeyTester{},
	}
}

func TestRouter_HealthCheck(t *testing.T) {
	deps := newTestRouterDeps()
	defer deps.RateLimiter.Stop()
	deps.DB = &mockPinger{}

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status = %q, want %q", got["status"], "ok")
	}
}

func TestRouter_HealthCheck_DBDown(t *testing.T) {
	deps := newTestRouterDeps()
	defer deps.RateLimiter.Stop()
	deps.DB = &mockPinger{
		pingFn: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	}

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	deps := newTestRouterDeps()
	defer deps.RateLimiter.Stop()
	deps.MetricsGatherer = prometheus.NewRegistry()

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_MetricsNotExposedWithoutGatherer(t *testing.T) {
	deps := newTestRouterDeps()
	defer deps.RateLimiter.Stop()

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	deps := newTestRouterDeps()
	defer deps.RateLimiter.Stop()

	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Result().Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
}

func TestRouter_RouteDispatch(t *testing.T) {
	deps := newTestRouterDeps()
	defer deps.RateLimiter.Stop()

	router := NewRouter(deps)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"APIソースカタログ", http.MethodGet, "/api/sources", http.StatusOK},
		{"競合企業一覧", http.MethodGet, "/api/competitors", http.StatusOK},
		{"インサイト一覧", http.MethodGet, "/api/insights", http.StatusOK},
		{"スクレイプ対象一覧", http.MethodGet, "/api/targets", http.StatusOK},
		{"スクレイパーコード一覧", http.MethodGet, "/api/scrapers", http.StatusOK},
		{"分析一覧", http.MethodGet, "/api/analyses", http.StatusOK},
		{"レポート一覧", http.MethodGet, "/api/reports", http.StatusOK},
		{"設定取得", http.MethodGet, "/api/settings", http.StatusOK},
		{"未定義ルートは404", http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "203.0.113.100:12345"
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode != tt.wantStatus {
				t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, w.Result().StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestRouter_ScrapeRunHasDedicatedRateLimit(t *testing.T) {
	cfg := middleware.DefaultRateLimiterConfig()
	cfg.ScrapeRate = 1
	cfg.ScrapeBurst = 1

	deps := newTestRouterDeps()
	deps.RateLimiter.Stop()
	deps.RateLimiter = middleware.NewRateLimiter(cfg)
	defer deps.RateLimiter.Stop()

	deps.ScraperService = &mockScraperService{
		runPipelineFn: func(ctx context.Context, sourceID int, competitorID string) (*scraper.PipelineResult, error) {
			return &scraper.PipelineResult{Phases: []scraper.Phase{scraper.PhaseReported}}, nil
		},
	}

	router := NewRouter(deps)

	body := `{"source_id": 3, "competitor_id": "comp-1"}`

	// 1回目は通る
	req1 := httptest.NewRequest(http.MethodPost, "/api/scraper/run", bytes.NewBufferString(body))
	req1.RemoteAddr = "203.0.113.101:12345"
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)

	if w1.Result().StatusCode != http.StatusOK {
		t.Errorf("request 1: status = %d, want %d", w1.Result().StatusCode, http.StatusOK)
	}

	// 2回目はスクレイプ専用レート制限に引っかかる
	req2 := httptest.NewRequest(http.MethodPost, "/api/scraper/run", bytes.NewBufferString(body))
	req2.RemoteAddr = "203.0.113.101:12345"
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("request 2: status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
	}
}

func TestRouter_CompetitorLifecycleThroughRouter(t *testing.T) {
	created := &model.Competitor{
		ID:          "comp-1",
		Name:        "Acme Corp",
		LastUpdated: time.Now(),
		CreatedAt:   time.Now(),
	}

	deps := newTestRouterDeps()
	defer deps.RateLimiter.Stop()
	deps.CompetitorService = &mockCompetitorService{
		addCompetitorFn: func(ctx context.Context, input competitor.AddCompetitorInput) (*model.Competitor, error) {
			return created, nil
		},
		getCompetitorFn: func(ctx context.Context, id string) (*model.Competitor, error) {
			if id == "comp-1" {
				return created, nil
			}
			return nil, nil
		},
	}

	router := NewRouter(deps)

	// 登録
	req := httptest.NewRequest(http.MethodPost, "/api/competitors", strings.NewReader(`{"name": "Acme Corp"}`))
	req.RemoteAddr = "203.0.113.102:12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}

	// URLパラメータ越しの取得
	req2 := httptest.NewRequest(http.MethodGet, "/api/competitors/comp-1", nil)
	req2.RemoteAddr = "203.0.113.102:12345"
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	if w2.Result().StatusCode != http.StatusOK {
		t.Errorf("get: status = %d, want %d", w2.Result().StatusCode, http.StatusOK)
	}

	var got competitorResponse
	if err := json.NewDecoder(w2.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Name != "Acme Corp" {
		t.Errorf("Name = %q, want %q", got.Name, "Acme Corp")
	}
}
