package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ampersand-AI/chiper/internal/model"
	"github.com/Ampersand-AI/chiper/internal/target"
)

// TargetServiceInterface はスクレイプ対象ハンドラーが必要とするサービスインターフェース。
type TargetServiceInterface interface {
	// AddTarget はスクレイプ対象を登録する。
	AddTarget(ctx context.Context, input target.AddTargetInput) (*model.ScrapeTarget, error)
	// GetTargets はスクレイプ対象一覧を返す。competitorIDが空の場合は全件。
	GetTargets(ctx context.Context, competitorID string) ([]*model.ScrapeTarget, error)
	// ToggleTarget はアクティブ/一時停止を切り替える。
	ToggleTarget(ctx context.Context, id string) (*model.ScrapeTarget, error)
	// DeleteTarget はスクレイプ対象を削除する。
	DeleteTarget(ctx context.Context, id string) (bool, error)
}

// TargetHandler はスクレイプ対象管理のHTTPハンドラー。
type TargetHandler struct {
	service TargetServiceInterface
}

// NewTargetHandler はTargetHandlerを生成する。
func NewTargetHandler(service TargetServiceInterface) *TargetHandler {
	return &TargetHandler{service: service}
}

// addTargetRequest はスクレイプ対象登録リクエストのボディ。
type addTargetRequest struct {
	CompetitorID string `json:"competitor_id"`
	Type         string `json:"type"`
	URL          string `json:"url"`
	Frequency    string `json:"frequency"`
}

// targetResponse はスクレイプ対象情報のAPIレスポンス。
type targetResponse struct {
	ID                string     `json:"id"`
	CompetitorID      string     `json:"competitor_id"`
	Type              string     `json:"type"`
	URL               string     `json:"url"`
	Frequency         string     `json:"frequency"`
	Status            string     `json:"status"`
	LastScraped       *time.Time `json:"last_scraped"`
	NextScheduled     time.Time  `json:"next_scheduled"`
	ConsecutiveErrors int        `json:"consecutive_errors"`
	ErrorMessage      string     `json:"error_message"`
	CreatedAt         time.Time  `json:"created_at"`
}

// AddTarget はスクレイプ対象登録を処理する。
// POST /api/targets
func (h *TargetHandler) AddTarget(w http.ResponseWriter, r *http.Request) {
	var req addTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	t, err := h.service.AddTarget(r.Context(), target.AddTargetInput{
		CompetitorID: req.CompetitorID,
		Type:         model.TargetType(req.Type),
		URL:          req.URL,
		Frequency:    model.Frequency(req.Frequency),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTargetResponse(t))
}

// ListTargets はスクレイプ対象一覧を返す。
// GET /api/targets?competitor_id=
func (h *TargetHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	competitorID := r.URL.Query().Get("competitor_id")

	targets, err := h.service.GetTargets(r.Context(), competitorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]targetResponse, 0, len(targets))
	for _, t := range targets {
		out = append(out, toTargetResponse(t))
	}

	writeJSON(w, http.StatusOK, out)
}

// ToggleTarget はアクティブ/一時停止の切り替えを処理する。
// POST /api/targets/:id/toggle
func (h *TargetHandler) ToggleTarget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.service.ToggleTarget(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTargetResponse(t))
}

// DeleteTarget はスクレイプ対象削除を処理する。
// DELETE /api/targets/:id
func (h *TargetHandler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.DeleteTarget(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if !deleted {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTargetNotFoundError(id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toTargetResponse はmodel.ScrapeTargetからAPIレスポンスに変換する。
func toTargetResponse(t *model.ScrapeTarget) targetResponse {
	return targetResponse{
		ID:                t.ID,
		CompetitorID:      t.CompetitorID,
		Type:              string(t.Type),
		URL:               t.URL,
		Frequency:         string(t.Frequency),
		Status:            string(t.Status),
		LastScraped:       t.LastScraped,
		NextScheduled:     t.NextScheduled,
		ConsecutiveErrors: t.ConsecutiveErrors,
		ErrorMessage:      t.ErrorMessage,
		CreatedAt:         t.CreatedAt,
	}
}
