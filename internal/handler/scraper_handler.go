package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Ampersand-AI/chiper/internal/model"
	"github.com/Ampersand-AI/chiper/internal/scraper"
)

// ScraperServiceInterface はスクレイパーハンドラーが必要とするサービスインターフェース。
type ScraperServiceInterface interface {
	// RunPipeline はスクレイプ→分析→レポートのパイプラインを実行する。
	RunPipeline(ctx context.Context, sourceID int, competitorID string) (*scraper.PipelineResult, error)
	// GenerateCustomScraper は対象URL向けのスクレイパーコードを生成する。
	GenerateCustomScraper(ctx context.Context, targetURL, competitorID string) (*model.ScraperCode, error)
}

// ScraperCodeLister はAI生成スクレイパーコードの一覧取得インターフェース。
// repository.ScraperCodeRepositoryのうち、ハンドラーが必要とする読み取り操作のみを定義する。
type ScraperCodeLister interface {
	List(ctx context.Context) ([]*model.ScraperCode, error)
	ListByCompetitor(ctx context.Context, competitorID string) ([]*model.ScraperCode, error)
}

// AnalysisLister はインサイト分析の一覧取得インターフェース。
type AnalysisLister interface {
	List(ctx context.Context) ([]*model.InsightAnalysis, error)
	ListByCompetitor(ctx context.Context, competitorID string) ([]*model.InsightAnalysis, error)
}

// ReportLister はインサイトレポートの一覧取得インターフェース。
type ReportLister interface {
	List(ctx context.Context) ([]*model.InsightReport, error)
	ListByCompetitor(ctx context.Context, competitorID string) ([]*model.InsightReport, error)
}

// ScraperHandler はスクレイパー実行と生成物閲覧のHTTPハンドラー。
type ScraperHandler struct {
	service      ScraperServiceInterface
	codeLister   ScraperCodeLister
	analysisList AnalysisLister
	reportList   ReportLister
}

// NewScraperHandler はScraperHandlerを生成する。
func NewScraperHandler(
	service ScraperServiceInterface,
	codeLister ScraperCodeLister,
	analysisList AnalysisLister,
	reportList ReportLister,
) *ScraperHandler {
	return &ScraperHandler{
		service:      service,
		codeLister:   codeLister,
		analysisList: analysisList,
		reportList:   reportList,
	}
}

// runScraperRequest はパイプライン実行リクエストのボディ。
type runScraperRequest struct {
	SourceID     int    `json:"source_id"`
	CompetitorID string `json:"competitor_id"`
}

// generateScraperRequest はスクレイパーコード生成リクエストのボディ。
type generateScraperRequest struct {
	URL          string `json:"url"`
	CompetitorID string `json:"competitor_id"`
}

// pipelineResultResponse はパイプライン実行結果のAPIレスポンス。
type pipelineResultResponse struct {
	Phases       []string          `json:"phases"`
	CurrentPhase string            `json:"current_phase"`
	Insights     []insightResponse `json:"insights"`
	Analysis     *analysisResponse `json:"analysis"`
	Report       *reportResponse   `json:"report"`
}

// analysisResponse はインサイト分析のAPIレスポンス。
type analysisResponse struct {
	ID                string    `json:"id"`
	CompetitorID      string    `json:"competitor_id"`
	Summary           string    `json:"summary"`
	ProductStrategy   string    `json:"product_strategy"`
	MarketPositioning string    `json:"market_positioning"`
	Gaps              string    `json:"gaps"`
	Opportunities     string    `json:"opportunities"`
	ThreatLevel       string    `json:"threat_level"`
	InsightCount      int       `json:"insight_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// reportResponse はインサイトレポートのAPIレスポンス。
type reportResponse struct {
	ID             string            `json:"id"`
	CompetitorID   string            `json:"competitor_id"`
	CompetitorName string            `json:"competitor_name"`
	Overview       string            `json:"overview"`
	KeyMoves       []string          `json:"key_moves"`
	ThreatLevel    string            `json:"threat_level"`
	Opportunities  []string          `json:"opportunities"`
	Insights       []insightResponse `json:"insights"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// scraperCodeResponse はAI生成スクレイパーコードのAPIレスポンス。
type scraperCodeResponse struct {
	ID           string    `json:"id"`
	CompetitorID string    `json:"competitor_id"`
	URL          string    `json:"url"`
	Language     string    `json:"language"`
	Code         string    `json:"code"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunScraper はパイプライン実行を処理する。
// POST /api/scraper/run
func (h *ScraperHandler) RunScraper(w http.ResponseWriter, r *http.Request) {
	var req runScraperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	result, err := h.service.RunPipeline(r.Context(), req.SourceID, req.CompetitorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPipelineResultResponse(result))
}

// GenerateScraper はスクレイパーコード生成を処理する。
// POST /api/scraper/generate
func (h *ScraperHandler) GenerateScraper(w http.ResponseWriter, r *http.Request) {
	var req generateScraperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	code, err := h.service.GenerateCustomScraper(r.Context(), req.URL, req.CompetitorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toScraperCodeResponse(code))
}

// ListScraperCodes はAI生成スクレイパーコード一覧を返す。
// GET /api/scrapers?competitor_id=
func (h *ScraperHandler) ListScraperCodes(w http.ResponseWriter, r *http.Request) {
	competitorID := r.URL.Query().Get("competitor_id")

	var codes []*model.ScraperCode
	var err error
	if competitorID == "" {
		codes, err = h.codeLister.List(r.Context())
	} else {
		codes, err = h.codeLister.ListByCompetitor(r.Context(), competitorID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]scraperCodeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, toScraperCodeResponse(c))
	}

	writeJSON(w, http.StatusOK, out)
}

// ListAnalyses はインサイト分析一覧を返す。
// GET /api/analyses?competitor_id=
func (h *ScraperHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	competitorID := r.URL.Query().Get("competitor_id")

	var analyses []*model.InsightAnalysis
	var err error
	if competitorID == "" {
		analyses, err = h.analysisList.List(r.Context())
	} else {
		analyses, err = h.analysisList.ListByCompetitor(r.Context(), competitorID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]analysisResponse, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, *toAnalysisResponse(a))
	}

	writeJSON(w, http.StatusOK, out)
}

// ListReports はインサイトレポート一覧を返す。
// GET /api/reports?competitor_id=
func (h *ScraperHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	competitorID := r.URL.Query().Get("competitor_id")

	var reports []*model.InsightReport
	var err error
	if competitorID == "" {
		reports, err = h.reportList.List(r.Context())
	} else {
		reports, err = h.reportList.ListByCompetitor(r.Context(), competitorID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, *toReportResponse(rep))
	}

	writeJSON(w, http.StatusOK, out)
}

// --- 変換ヘルパー ---

func toPipelineResultResponse(result *scraper.PipelineResult) pipelineResultResponse {
	phases := make([]string, 0, len(result.Phases))
	for _, p := range result.Phases {
		phases = append(phases, string(p))
	}

	insights := make([]insightResponse, 0, len(result.Insights))
	for _, ins := range result.Insights {
		insights = append(insights, toInsightResponse(ins))
	}

	resp := pipelineResultResponse{
		Phases:       phases,
		CurrentPhase: string(result.CurrentPhase()),
		Insights:     insights,
	}
	if result.Analysis != nil {
		resp.Analysis = toAnalysisResponse(result.Analysis)
	}
	if result.Report != nil {
		resp.Report = toReportResponse(result.Report)
	}
	return resp
}

func toAnalysisResponse(a *model.InsightAnalysis) *analysisResponse {
	return &analysisResponse{
		ID:                a.ID,
		CompetitorID:      a.CompetitorID,
		Summary:           a.Summary,
		ProductStrategy:   a.ProductStrategy,
		MarketPositioning: a.MarketPositioning,
		Gaps:              a.Gaps,
		Opportunities:     a.Opportunities,
		ThreatLevel:       string(a.ThreatLevel),
		InsightCount:      a.InsightCount,
		CreatedAt:         a.CreatedAt,
	}
}

func toReportResponse(rep *model.InsightReport) *reportResponse {
	insights := make([]insightResponse, 0, len(rep.Insights))
	for i := range rep.Insights {
		insights = append(insights, toInsightResponse(&rep.Insights[i]))
	}

	return &reportResponse{
		ID:             rep.ID,
		CompetitorID:   rep.CompetitorID,
		CompetitorName: rep.CompetitorName,
		Overview:       rep.Overview,
		KeyMoves:       rep.KeyMoves,
		ThreatLevel:    string(rep.ThreatLevel),
		Opportunities:  rep.Opportunities,
		Insights:       insights,
		LastUpdated:    rep.LastUpdated,
	}
}

func toScraperCodeResponse(c *model.ScraperCode) scraperCodeResponse {
	return scraperCodeResponse{
		ID:           c.ID,
		CompetitorID: c.CompetitorID,
		URL:          c.URL,
		Language:     c.Language,
		Code:         c.Code,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt,
	}
}
