package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// PostgresInsightRepo はPostgreSQLを使用したインサイトリポジトリ。
// 1レコード単位のINSERTで書き込むため、並行する追加操作が互いを上書きすることはない。
type PostgresInsightRepo struct {
	db *sql.DB
}

// NewPostgresInsightRepo はPostgresInsightRepoを生成する。
func NewPostgresInsightRepo(db *sql.DB) *PostgresInsightRepo {
	return &PostgresInsightRepo{db: db}
}

const insightColumns = `id, competitor_id, type, title, description, source,
       date, sentiment, impact, raw_payload`

// scanInsight は1行をインサイトモデルに読み取る。
func scanInsight(row interface{ Scan(...any) error }) (*model.Insight, error) {
	i := &model.Insight{}
	var rawPayload []byte

	err := row.Scan(
		&i.ID, &i.CompetitorID, &i.Type, &i.Title, &i.Description, &i.Source,
		&i.Date, &i.Sentiment, &i.Impact, &rawPayload,
	)
	if err != nil {
		return nil, err
	}

	i.RawPayload = rawPayload
	return i, nil
}

// Create はインサイトを1レコード単位で作成する。
func (r *PostgresInsightRepo) Create(ctx context.Context, i *model.Insight) error {
	var rawPayload any
	if len(i.RawPayload) > 0 {
		rawPayload = []byte(i.RawPayload)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO insights (id, competitor_id, type, title, description, source,
		                       date, sentiment, impact, raw_payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		i.ID, i.CompetitorID, i.Type, i.Title, i.Description, i.Source,
		i.Date, i.Sentiment, i.Impact, rawPayload,
	)
	if err != nil {
		return fmt.Errorf("インサイトの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのインサイトを取得する。見つからない場合はnilを返す。
func (r *PostgresInsightRepo) FindByID(ctx context.Context, id string) (*model.Insight, error) {
	i, err := scanInsight(r.db.QueryRowContext(ctx,
		`SELECT `+insightColumns+` FROM insights WHERE id = $1`,
		id,
	))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("インサイトの取得に失敗しました: %w", err)
	}

	return i, nil
}

// List は全インサイトをdate降順で返す。
func (r *PostgresInsightRepo) List(ctx context.Context) ([]*model.Insight, error) {
	return r.list(ctx,
		`SELECT `+insightColumns+` FROM insights ORDER BY date DESC`,
	)
}

// ListByCompetitor は指定競合企業のインサイトをdate降順で返す。
func (r *PostgresInsightRepo) ListByCompetitor(ctx context.Context, competitorID string) ([]*model.Insight, error) {
	return r.list(ctx,
		`SELECT `+insightColumns+` FROM insights
		 WHERE competitor_id = $1 ORDER BY date DESC`,
		competitorID,
	)
}

// Count は全インサイトの件数を返す。
func (r *PostgresInsightRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM insights`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("インサイト件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// list はクエリを実行してインサイトのスライスを返す。
func (r *PostgresInsightRepo) list(ctx context.Context, query string, args ...any) ([]*model.Insight, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("インサイト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var insights []*model.Insight
	for rows.Next() {
		i, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("インサイトの読み取りに失敗しました: %w", err)
		}
		insights = append(insights, i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("インサイト一覧の走査に失敗しました: %w", err)
	}

	return insights, nil
}

// compile-time interface check
var _ InsightRepository = (*PostgresInsightRepo)(nil)
