package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// PostgresSettingsRepo はPostgreSQLを使用したスクレイパー設定リポジトリ。
// scraper_settingsテーブルはid=1の単一行のみを持つ。
type PostgresSettingsRepo struct {
	db *sql.DB
}

// NewPostgresSettingsRepo はPostgresSettingsRepoを生成する。
func NewPostgresSettingsRepo(db *sql.DB) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{db: db}
}

// Get はスクレイパー設定を取得する。
func (r *PostgresSettingsRepo) Get(ctx context.Context) (*model.ScraperSettings, error) {
	s := &model.ScraperSettings{}
	err := r.db.QueryRowContext(ctx,
		`SELECT openrouter_key, openai_key, newsapi_key, scraper_enabled, updated_at
		 FROM scraper_settings WHERE id = 1`,
	).Scan(&s.OpenRouterKey, &s.OpenAIKey, &s.NewsAPIKey, &s.ScraperEnabled, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("スクレイパー設定の取得に失敗しました: %w", err)
	}
	return s, nil
}

// Save はスクレイパー設定を保存する。
func (r *PostgresSettingsRepo) Save(ctx context.Context, s *model.ScraperSettings) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scraper_settings SET
		    openrouter_key = $1,
		    openai_key = $2,
		    newsapi_key = $3,
		    scraper_enabled = $4,
		    updated_at = now()
		 WHERE id = 1`,
		s.OpenRouterKey, s.OpenAIKey, s.NewsAPIKey, s.ScraperEnabled,
	)
	if err != nil {
		return fmt.Errorf("スクレイパー設定の保存に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SettingsRepository = (*PostgresSettingsRepo)(nil)
