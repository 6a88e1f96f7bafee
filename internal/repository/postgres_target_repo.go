package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// PostgresScrapeTargetRepo はPostgreSQLを使用したスクレイプ対象リポジトリ。
type PostgresScrapeTargetRepo struct {
	db *sql.DB
}

// NewPostgresScrapeTargetRepo はPostgresScrapeTargetRepoを生成する。
func NewPostgresScrapeTargetRepo(db *sql.DB) *PostgresScrapeTargetRepo {
	return &PostgresScrapeTargetRepo{db: db}
}

const targetColumns = `id, competitor_id, type, url, frequency, status,
       last_scraped, next_scheduled, consecutive_errors, error_message,
       created_at, updated_at`

// scanTarget は1行をスクレイプ対象モデルに読み取る。
func scanTarget(row interface{ Scan(...any) error }) (*model.ScrapeTarget, error) {
	t := &model.ScrapeTarget{}
	var lastScraped sql.NullTime
	var errorMessage sql.NullString

	err := row.Scan(
		&t.ID, &t.CompetitorID, &t.Type, &t.URL, &t.Frequency, &t.Status,
		&lastScraped, &t.NextScheduled, &t.ConsecutiveErrors, &errorMessage,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastScraped.Valid {
		ts := lastScraped.Time
		t.LastScraped = &ts
	}
	t.ErrorMessage = nullStringValue(errorMessage)

	return t, nil
}

// FindByID は指定IDのスクレイプ対象を取得する。見つからない場合はnilを返す。
func (r *PostgresScrapeTargetRepo) FindByID(ctx context.Context, id string) (*model.ScrapeTarget, error) {
	t, err := scanTarget(r.db.QueryRowContext(ctx,
		`SELECT `+targetColumns+` FROM scrape_targets WHERE id = $1`,
		id,
	))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スクレイプ対象の取得に失敗しました: %w", err)
	}

	return t, nil
}

// List は全スクレイプ対象をcreated_at昇順で返す。
func (r *PostgresScrapeTargetRepo) List(ctx context.Context) ([]*model.ScrapeTarget, error) {
	return r.list(ctx,
		`SELECT `+targetColumns+` FROM scrape_targets ORDER BY created_at ASC`,
	)
}

// ListByCompetitor は指定競合企業のスクレイプ対象を返す。
func (r *PostgresScrapeTargetRepo) ListByCompetitor(ctx context.Context, competitorID string) ([]*model.ScrapeTarget, error) {
	return r.list(ctx,
		`SELECT `+targetColumns+` FROM scrape_targets
		 WHERE competitor_id = $1 ORDER BY created_at ASC`,
		competitorID,
	)
}

// Create はスクレイプ対象を作成する。
func (r *PostgresScrapeTargetRepo) Create(ctx context.Context, t *model.ScrapeTarget) error {
	var lastScraped any
	if t.LastScraped != nil {
		lastScraped = *t.LastScraped
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scrape_targets (id, competitor_id, type, url, frequency, status,
		                             last_scraped, next_scheduled, consecutive_errors,
		                             error_message, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.CompetitorID, t.Type, t.URL, t.Frequency, t.Status,
		lastScraped, t.NextScheduled, t.ConsecutiveErrors,
		nullString(t.ErrorMessage), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("スクレイプ対象の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus はスクレイプ対象の状態のみを更新する。
func (r *PostgresScrapeTargetRepo) UpdateStatus(ctx context.Context, id string, status model.TargetStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scrape_targets SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("スクレイプ対象の状態更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのスクレイプ対象を削除する。削除が発生したかを返す。
func (r *PostgresScrapeTargetRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scrape_targets WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("スクレイプ対象の削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// ListDueForScrape はスクレイプ実行期限が到来した対象を取得する。
// next_scheduled <= now() かつ status = 'active' の対象を
// FOR UPDATE SKIP LOCKEDで排他的に取得する。
func (r *PostgresScrapeTargetRepo) ListDueForScrape(ctx context.Context) ([]*model.ScrapeTarget, error) {
	return r.list(ctx,
		`SELECT `+targetColumns+` FROM scrape_targets
		 WHERE next_scheduled <= now()
		   AND status = 'active'
		 ORDER BY next_scheduled ASC
		 FOR UPDATE SKIP LOCKED`,
	)
}

// UpdateScrapeState はスクレイプ実行結果の状態を更新する。
func (r *PostgresScrapeTargetRepo) UpdateScrapeState(ctx context.Context, t *model.ScrapeTarget) error {
	var lastScraped any
	if t.LastScraped != nil {
		lastScraped = *t.LastScraped
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE scrape_targets SET
		    status = $2,
		    last_scraped = $3,
		    next_scheduled = $4,
		    consecutive_errors = $5,
		    error_message = $6,
		    updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Status, lastScraped, t.NextScheduled,
		t.ConsecutiveErrors, nullString(t.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("スクレイプ状態の更新に失敗しました: %w", err)
	}
	return nil
}

// list はクエリを実行してスクレイプ対象のスライスを返す。
func (r *PostgresScrapeTargetRepo) list(ctx context.Context, query string, args ...any) ([]*model.ScrapeTarget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("スクレイプ対象一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var targets []*model.ScrapeTarget
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("スクレイプ対象の読み取りに失敗しました: %w", err)
		}
		targets = append(targets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スクレイプ対象一覧の走査に失敗しました: %w", err)
	}

	return targets, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ ScrapeTargetRepository = (*PostgresScrapeTargetRepo)(nil)
