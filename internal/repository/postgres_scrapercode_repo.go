package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// PostgresScraperCodeRepo はPostgreSQLを使用したスクレイパーコードリポジトリ。
type PostgresScraperCodeRepo struct {
	db *sql.DB
}

// NewPostgresScraperCodeRepo はPostgresScraperCodeRepoを生成する。
func NewPostgresScraperCodeRepo(db *sql.DB) *PostgresScraperCodeRepo {
	return &PostgresScraperCodeRepo{db: db}
}

const scraperCodeColumns = `id, competitor_id, url, language, code, status, created_at, updated_at`

// Create はスクレイパーコードを作成する。
func (r *PostgresScraperCodeRepo) Create(ctx context.Context, c *model.ScraperCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scraper_codes (id, competitor_id, url, language, code, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.CompetitorID, c.URL, c.Language, c.Code, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("スクレイパーコードの作成に失敗しました: %w", err)
	}
	return nil
}

// List は全スクレイパーコードをcreated_at降順で返す。
func (r *PostgresScraperCodeRepo) List(ctx context.Context) ([]*model.ScraperCode, error) {
	return r.list(ctx,
		`SELECT `+scraperCodeColumns+` FROM scraper_codes ORDER BY created_at DESC`,
	)
}

// ListByCompetitor は指定競合企業のスクレイパーコードを返す。
func (r *PostgresScraperCodeRepo) ListByCompetitor(ctx context.Context, competitorID string) ([]*model.ScraperCode, error) {
	return r.list(ctx,
		`SELECT `+scraperCodeColumns+` FROM scraper_codes
		 WHERE competitor_id = $1 ORDER BY created_at DESC`,
		competitorID,
	)
}

func (r *PostgresScraperCodeRepo) list(ctx context.Context, query string, args ...any) ([]*model.ScraperCode, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("スクレイパーコード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var codes []*model.ScraperCode
	for rows.Next() {
		c := &model.ScraperCode{}
		err := rows.Scan(
			&c.ID, &c.CompetitorID, &c.URL, &c.Language, &c.Code, &c.Status,
			&c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("スクレイパーコードの読み取りに失敗しました: %w", err)
		}
		codes = append(codes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スクレイパーコード一覧の走査に失敗しました: %w", err)
	}

	return codes, nil
}

// compile-time interface check
var _ ScraperCodeRepository = (*PostgresScraperCodeRepo)(nil)
