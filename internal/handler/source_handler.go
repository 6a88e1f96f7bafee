package handler

import (
	"net/http"

	"github.com/Ampersand-AI/chiper/internal/catalog"
)

// SourceHandler は組み込みAPIソースカタログのHTTPハンドラー。
// カタログは静的なため、サービス層を介さずcatalogパッケージを直接参照する。
type SourceHandler struct{}

// NewSourceHandler はSourceHandlerを生成する。
func NewSourceHandler() *SourceHandler {
	return &SourceHandler{}
}

// sourceResponse はAPIソース情報のAPIレスポンス。
type sourceResponse struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Method      string            `json:"method"`
	APIURL      string            `json:"api_url,omitempty"`
	RSSURL      string            `json:"rss_url,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	RequiresKey bool              `json:"requires_key"`
	Category    string            `json:"category"`
}

// ListSources はAPIソースカタログを返す。
// GET /api/sources?category=
func (h *SourceHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	sources := catalog.ByCategory(category)

	out := make([]sourceResponse, 0, len(sources))
	for _, s := range sources {
		out = append(out, sourceResponse{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Method:      string(s.Method),
			APIURL:      s.APIURL,
			RSSURL:      s.RSSURL,
			Params:      s.Params,
			RequiresKey: s.RequiresKey,
			Category:    s.Category,
		})
	}

	writeJSON(w, http.StatusOK, out)
}
