package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// PostgresAnalysisRepo はPostgreSQLを使用したインサイト分析リポジトリ。
type PostgresAnalysisRepo struct {
	db *sql.DB
}

// NewPostgresAnalysisRepo はPostgresAnalysisRepoを生成する。
func NewPostgresAnalysisRepo(db *sql.DB) *PostgresAnalysisRepo {
	return &PostgresAnalysisRepo{db: db}
}

const analysisColumns = `id, competitor_id, summary, product_strategy, market_positioning,
       gaps, opportunities, threat_level, insight_count, created_at`

// Create はインサイト分析を作成する。
func (r *PostgresAnalysisRepo) Create(ctx context.Context, a *model.InsightAnalysis) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO insight_analyses (id, competitor_id, summary, product_strategy,
		                               market_positioning, gaps, opportunities,
		                               threat_level, insight_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.CompetitorID, a.Summary, a.ProductStrategy,
		a.MarketPositioning, a.Gaps, a.Opportunities,
		a.ThreatLevel, a.InsightCount, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("インサイト分析の作成に失敗しました: %w", err)
	}
	return nil
}

// List は全インサイト分析をcreated_at降順で返す。
func (r *PostgresAnalysisRepo) List(ctx context.Context) ([]*model.InsightAnalysis, error) {
	return r.list(ctx,
		`SELECT `+analysisColumns+` FROM insight_analyses ORDER BY created_at DESC`,
	)
}

// ListByCompetitor は指定競合企業のインサイト分析を返す。
func (r *PostgresAnalysisRepo) ListByCompetitor(ctx context.Context, competitorID string) ([]*model.InsightAnalysis, error) {
	return r.list(ctx,
		`SELECT `+analysisColumns+` FROM insight_analyses
		 WHERE competitor_id = $1 ORDER BY created_at DESC`,
		competitorID,
	)
}

func (r *PostgresAnalysisRepo) list(ctx context.Context, query string, args ...any) ([]*model.InsightAnalysis, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("インサイト分析一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var analyses []*model.InsightAnalysis
	for rows.Next() {
		a := &model.InsightAnalysis{}
		err := rows.Scan(
			&a.ID, &a.CompetitorID, &a.Summary, &a.ProductStrategy, &a.MarketPositioning,
			&a.Gaps, &a.Opportunities, &a.ThreatLevel, &a.InsightCount, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("インサイト分析の読み取りに失敗しました: %w", err)
		}
		analyses = append(analyses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("インサイト分析一覧の走査に失敗しました: %w", err)
	}

	return analyses, nil
}

// compile-time interface check
var _ AnalysisRepository = (*PostgresAnalysisRepo)(nil)
