package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ampersand-AI/chiper/internal/insight"
	"github.com/Ampersand-AI/chiper/internal/model"
)

// InsightServiceInterface はインサイトハンドラーが必要とするサービスインターフェース。
type InsightServiceInterface interface {
	// AddInsight はインサイトを登録する。
	AddInsight(ctx context.Context, input insight.AddInsightInput) (*model.Insight, error)
	// GetInsights はインサイト一覧を返す。competitorIDが空の場合は全件。
	GetInsights(ctx context.Context, competitorID string) ([]*model.Insight, error)
}

// InsightHandler はインサイト管理のHTTPハンドラー。
type InsightHandler struct {
	service InsightServiceInterface
}

// NewInsightHandler はInsightHandlerを生成する。
func NewInsightHandler(service InsightServiceInterface) *InsightHandler {
	return &InsightHandler{service: service}
}

// addInsightRequest はインサイト登録リクエストのボディ。
type addInsightRequest struct {
	CompetitorID string          `json:"competitor_id"`
	Type         string          `json:"type"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Source       string          `json:"source"`
	Sentiment    string          `json:"sentiment"`
	Impact       string          `json:"impact"`
	RawPayload   json.RawMessage `json:"raw_payload,omitempty"`
}

// insightResponse はインサイト情報のAPIレスポンス。
type insightResponse struct {
	ID           string    `json:"id"`
	CompetitorID string    `json:"competitor_id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Source       string    `json:"source"`
	Date         time.Time `json:"date"`
	Sentiment    string    `json:"sentiment"`
	Impact       string    `json:"impact"`
}

// AddInsight はインサイト登録を処理する。
// POST /api/insights
func (h *InsightHandler) AddInsight(w http.ResponseWriter, r *http.Request) {
	var req addInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	ins, err := h.service.AddInsight(r.Context(), insight.AddInsightInput{
		CompetitorID: req.CompetitorID,
		Type:         model.InsightType(req.Type),
		Title:        req.Title,
		Description:  req.Description,
		Source:       req.Source,
		Sentiment:    model.Sentiment(req.Sentiment),
		Impact:       model.Impact(req.Impact),
		RawPayload:   req.RawPayload,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInsightResponse(ins))
}

// ListInsights はインサイト一覧を返す。
// GET /api/insights?competitor_id=
func (h *InsightHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	competitorID := r.URL.Query().Get("competitor_id")
	h.listInsights(w, r, competitorID)
}

// ListByCompetitor は指定競合企業のインサイト一覧を返す。
// GET /api/competitors/:id/insights
func (h *InsightHandler) ListByCompetitor(w http.ResponseWriter, r *http.Request) {
	competitorID := chi.URLParam(r, "id")
	h.listInsights(w, r, competitorID)
}

func (h *InsightHandler) listInsights(w http.ResponseWriter, r *http.Request, competitorID string) {
	insights, err := h.service.GetInsights(r.Context(), competitorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]insightResponse, 0, len(insights))
	for _, ins := range insights {
		out = append(out, toInsightResponse(ins))
	}

	writeJSON(w, http.StatusOK, out)
}

// toInsightResponse はmodel.InsightからAPIレスポンスに変換する。
func toInsightResponse(ins *model.Insight) insightResponse {
	return insightResponse{
		ID:           ins.ID,
		CompetitorID: ins.CompetitorID,
		Type:         string(ins.Type),
		Title:        ins.Title,
		Description:  ins.Description,
		Source:       ins.Source,
		Date:         ins.Date,
		Sentiment:    string(ins.Sentiment),
		Impact:       string(ins.Impact),
	}
}
