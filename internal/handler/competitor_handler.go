// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ampersand-AI/chiper/internal/competitor"
	"github.com/Ampersand-AI/chiper/internal/model"
)

// CompetitorServiceInterface は競合企業ハンドラーが必要とするサービスインターフェース。
type CompetitorServiceInterface interface {
	// AddCompetitor は競合企業を登録する。
	AddCompetitor(ctx context.Context, input competitor.AddCompetitorInput) (*model.Competitor, error)
	// GetCompetitors は全競合企業を返す。
	GetCompetitors(ctx context.Context) ([]*model.Competitor, error)
	// GetCompetitor は指定IDの競合企業を返す。見つからない場合はnil。
	GetCompetitor(ctx context.Context, id string) (*model.Competitor, error)
	// UpdateCompetitor は競合企業を部分更新する。
	UpdateCompetitor(ctx context.Context, id string, update model.CompetitorUpdate) (*model.Competitor, error)
	// DeleteCompetitor は競合企業と関連データを削除する。
	DeleteCompetitor(ctx context.Context, id string) (bool, error)
}

// CompetitorHandler は競合企業管理のHTTPハンドラー。
type CompetitorHandler struct {
	service CompetitorServiceInterface
}

// NewCompetitorHandler はCompetitorHandlerを生成する。
func NewCompetitorHandler(service CompetitorServiceInterface) *CompetitorHandler {
	return &CompetitorHandler{service: service}
}

// addCompetitorRequest は競合企業登録リクエストのボディ。
type addCompetitorRequest struct {
	Name                string `json:"name"`
	Website             string `json:"website"`
	Description         string `json:"description"`
	IndustryPositioning string `json:"industry_positioning"`
	Country             string `json:"country"`
}

// updateCompetitorRequest は競合企業部分更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateCompetitorRequest struct {
	Name                *string `json:"name"`
	Website             *string `json:"website"`
	Logo                *string `json:"logo"`
	Description         *string `json:"description"`
	IndustryPositioning *string `json:"industry_positioning"`
	SentimentScore      *int    `json:"sentiment_score"`
	Country             *string `json:"country"`
}

// competitorResponse は競合企業情報のAPIレスポンス。
type competitorResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Website             string    `json:"website"`
	Logo                string    `json:"logo"`
	Description         string    `json:"description"`
	IndustryPositioning string    `json:"industry_positioning"`
	SentimentScore      int       `json:"sentiment_score"`
	Country             string    `json:"country"`
	LastUpdated         time.Time `json:"last_updated"`
	CreatedAt           time.Time `json:"created_at"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// AddCompetitor は競合企業登録を処理する。
// POST /api/competitors
func (h *CompetitorHandler) AddCompetitor(w http.ResponseWriter, r *http.Request) {
	var req addCompetitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "競合企業名が空です。",
			Category: "validation",
			Action:   "nameフィールドを指定してください。",
		})
		return
	}

	c, err := h.service.AddCompetitor(r.Context(), competitor.AddCompetitorInput{
		Name:                req.Name,
		Website:             req.Website,
		Description:         req.Description,
		IndustryPositioning: req.IndustryPositioning,
		Country:             req.Country,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCompetitorResponse(c))
}

// ListCompetitors は競合企業一覧を返す。
// GET /api/competitors
func (h *CompetitorHandler) ListCompetitors(w http.ResponseWriter, r *http.Request) {
	competitors, err := h.service.GetCompetitors(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]competitorResponse, 0, len(competitors))
	for _, c := range competitors {
		out = append(out, toCompetitorResponse(c))
	}

	writeJSON(w, http.StatusOK, out)
}

// GetCompetitor は競合企業詳細を返す。
// GET /api/competitors/:id
func (h *CompetitorHandler) GetCompetitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.service.GetCompetitor(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if c == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCompetitorNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, toCompetitorResponse(c))
}

// UpdateCompetitor は競合企業の部分更新を処理する。
// PATCH /api/competitors/:id
func (h *CompetitorHandler) UpdateCompetitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateCompetitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	c, err := h.service.UpdateCompetitor(r.Context(), id, model.CompetitorUpdate{
		Name:                req.Name,
		Website:             req.Website,
		Logo:                req.Logo,
		Description:         req.Description,
		IndustryPositioning: req.IndustryPositioning,
		SentimentScore:      req.SentimentScore,
		Country:             req.Country,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCompetitorResponse(c))
}

// DeleteCompetitor は競合企業と関連データの削除を処理する。
// DELETE /api/competitors/:id
func (h *CompetitorHandler) DeleteCompetitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.DeleteCompetitor(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if !deleted {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCompetitorNotFoundError(id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toCompetitorResponse はmodel.CompetitorからAPIレスポンスに変換する。
func toCompetitorResponse(c *model.Competitor) competitorResponse {
	return competitorResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Website:             c.Website,
		Logo:                c.Logo,
		Description:         c.Description,
		IndustryPositioning: c.IndustryPositioning,
		SentimentScore:      c.SentimentScore,
		Country:             c.Country,
		LastUpdated:         c.LastUpdated,
		CreatedAt:           c.CreatedAt,
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequestBody はリクエストボディ解析失敗のレスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeCompetitorNotFound, model.ErrCodeTargetNotFound, model.ErrCodeSourceNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidURL, model.ErrCodeInvalidInsightType,
		model.ErrCodeInvalidFrequency, model.ErrCodeInvalidTargetType:
		return http.StatusBadRequest
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeNoInsights, model.ErrCodeMissingAPIKey:
		return http.StatusUnprocessableEntity
	case model.ErrCodeUpstreamFailed:
		return http.StatusBadGateway
	case "INVALID_REQUEST":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
