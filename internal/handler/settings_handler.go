package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// SettingsStore はスクレイパー設定の取得・保存インターフェース。
type SettingsStore interface {
	// Get はスクレイパー設定を取得する。
	Get(ctx context.Context) (*model.ScraperSettings, error)
	// Save はスクレイパー設定を保存する。
	Save(ctx context.Context, settings *model.ScraperSettings) error
}

// APIKeyTester はAPIキーの形式検証インターフェース。
type APIKeyTester interface {
	// TestAPIKey はAPIキーの形式が有効かを判定する。
	TestAPIKey(ctx context.Context, key string, keyType model.APIKeyType) bool
}

// SettingsHandler はスクレイパー設定のHTTPハンドラー。
type SettingsHandler struct {
	store  SettingsStore
	tester APIKeyTester
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(store SettingsStore, tester APIKeyTester) *SettingsHandler {
	return &SettingsHandler{
		store:  store,
		tester: tester,
	}
}

// updateSettingsRequest は設定更新リクエストのボディ。
// 省略されたキーは変更しない。
type updateSettingsRequest struct {
	OpenRouterKey  *string `json:"openrouter_key"`
	OpenAIKey      *string `json:"openai_key"`
	NewsAPIKey     *string `json:"newsapi_key"`
	ScraperEnabled *bool   `json:"scraper_enabled"`
}

// testKeyRequest はAPIキー検証リクエストのボディ。
type testKeyRequest struct {
	Key     string `json:"key"`
	KeyType string `json:"key_type"`
}

// testKeyResponse はAPIキー検証のAPIレスポンス。
type testKeyResponse struct {
	Valid bool `json:"valid"`
}

// settingsResponse はスクレイパー設定のAPIレスポンス。
// APIキーはマスクされた状態で返される。
type settingsResponse struct {
	OpenRouterKey  string    `json:"openrouter_key"`
	OpenAIKey      string    `json:"openai_key"`
	NewsAPIKey     string    `json:"newsapi_key"`
	ScraperEnabled bool      `json:"scraper_enabled"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GetSettings はスクレイパー設定を返す。APIキーはマスクする。
// GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Get(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		OpenRouterKey:  maskAPIKey(settings.OpenRouterKey),
		OpenAIKey:      maskAPIKey(settings.OpenAIKey),
		NewsAPIKey:     maskAPIKey(settings.NewsAPIKey),
		ScraperEnabled: settings.ScraperEnabled,
		UpdatedAt:      settings.UpdatedAt,
	})
}

// UpdateSettings はスクレイパー設定の更新を処理する。
// PUT /api/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	settings, err := h.store.Get(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if req.OpenRouterKey != nil {
		settings.OpenRouterKey = *req.OpenRouterKey
	}
	if req.OpenAIKey != nil {
		settings.OpenAIKey = *req.OpenAIKey
	}
	if req.NewsAPIKey != nil {
		settings.NewsAPIKey = *req.NewsAPIKey
	}
	if req.ScraperEnabled != nil {
		settings.ScraperEnabled = *req.ScraperEnabled
	}
	settings.UpdatedAt = time.Now()

	if err := h.store.Save(r.Context(), settings); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		OpenRouterKey:  maskAPIKey(settings.OpenRouterKey),
		OpenAIKey:      maskAPIKey(settings.OpenAIKey),
		NewsAPIKey:     maskAPIKey(settings.NewsAPIKey),
		ScraperEnabled: settings.ScraperEnabled,
		UpdatedAt:      settings.UpdatedAt,
	})
}

// TestAPIKey はAPIキーの形式検証を処理する。
// POST /api/settings/test-key
func (h *SettingsHandler) TestAPIKey(w http.ResponseWriter, r *http.Request) {
	var req testKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	keyType := model.APIKeyType(req.KeyType)
	if !model.ValidAPIKeyType(keyType) {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "無効なAPIキー種別です: " + req.KeyType,
			Category: "validation",
			Action:   "key_typeには openrouter、openai、newsapi のいずれかを指定してください。",
		})
		return
	}

	valid := h.tester.TestAPIKey(r.Context(), req.Key, keyType)

	writeJSON(w, http.StatusOK, testKeyResponse{Valid: valid})
}

// maskAPIKey はAPIキーをログ・レスポンス用にマスクする。
// 先頭8文字だけを残し、残りを伏せる。短いキーは全体を伏せる。
func maskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 12 {
		return "***"
	}
	return key[:8] + "***"
}
