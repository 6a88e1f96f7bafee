package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// PostgresCompetitorRepo はPostgreSQLを使用した競合企業リポジトリ。
type PostgresCompetitorRepo struct {
	db *sql.DB
}

// NewPostgresCompetitorRepo はPostgresCompetitorRepoを生成する。
func NewPostgresCompetitorRepo(db *sql.DB) *PostgresCompetitorRepo {
	return &PostgresCompetitorRepo{db: db}
}

const competitorColumns = `id, name, website, logo, description,
       industry_positioning, sentiment_score, country, last_updated, created_at`

// scanCompetitor は1行を競合企業モデルに読み取る。
func scanCompetitor(row interface{ Scan(...any) error }) (*model.Competitor, error) {
	c := &model.Competitor{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Website, &c.Logo, &c.Description,
		&c.IndustryPositioning, &c.SentimentScore, &c.Country,
		&c.LastUpdated, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDの競合企業を取得する。見つからない場合はnilを返す。
func (r *PostgresCompetitorRepo) FindByID(ctx context.Context, id string) (*model.Competitor, error) {
	c, err := scanCompetitor(r.db.QueryRowContext(ctx,
		`SELECT `+competitorColumns+` FROM competitors WHERE id = $1`,
		id,
	))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("競合企業の取得に失敗しました: %w", err)
	}

	return c, nil
}

// List は全競合企業をlast_updated降順で返す。
func (r *PostgresCompetitorRepo) List(ctx context.Context) ([]*model.Competitor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+competitorColumns+` FROM competitors ORDER BY last_updated DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("競合企業一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var competitors []*model.Competitor
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, fmt.Errorf("競合企業の読み取りに失敗しました: %w", err)
		}
		competitors = append(competitors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("競合企業一覧の走査に失敗しました: %w", err)
	}

	return competitors, nil
}

// Count は競合企業の件数を返す。
func (r *PostgresCompetitorRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM competitors`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("競合企業件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Create は競合企業を作成する。
func (r *PostgresCompetitorRepo) Create(ctx context.Context, c *model.Competitor) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO competitors (id, name, website, logo, description,
		                          industry_positioning, sentiment_score, country,
		                          last_updated, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Name, c.Website, c.Logo, c.Description,
		c.IndustryPositioning, c.SentimentScore, c.Country,
		c.LastUpdated, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("競合企業の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は競合企業情報を更新する。
func (r *PostgresCompetitorRepo) Update(ctx context.Context, c *model.Competitor) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE competitors SET
		    name = $2, website = $3, logo = $4, description = $5,
		    industry_positioning = $6, sentiment_score = $7, country = $8,
		    last_updated = $9
		 WHERE id = $1`,
		c.ID, c.Name, c.Website, c.Logo, c.Description,
		c.IndustryPositioning, c.SentimentScore, c.Country, c.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("競合企業の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの競合企業を削除する。
// 従属レコードは外部キーのCASCADEにより削除される。削除が発生したかを返す。
func (r *PostgresCompetitorRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM competitors WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("競合企業の削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// compile-time interface check
var _ CompetitorRepository = (*PostgresCompetitorRepo)(nil)
