package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// PostgresReportRepo はPostgreSQLを使用したインサイトレポートリポジトリ。
// key_moves、opportunities、insightsはJSONB列に格納する。
type PostgresReportRepo struct {
	db *sql.DB
}

// NewPostgresReportRepo はPostgresReportRepoを生成する。
func NewPostgresReportRepo(db *sql.DB) *PostgresReportRepo {
	return &PostgresReportRepo{db: db}
}

const reportColumns = `id, competitor_id, competitor_name, overview, key_moves,
       threat_level, opportunities, insights, last_updated`

// storedInsight はJSONB列に格納するインサイトの表現。
type storedInsight struct {
	ID           string            `json:"id"`
	CompetitorID string            `json:"competitor_id"`
	Type         model.InsightType `json:"type"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Source       string            `json:"source"`
	Date         time.Time         `json:"date"`
	Sentiment    model.Sentiment   `json:"sentiment"`
	Impact       model.Impact      `json:"impact"`
}

func toStoredInsights(insights []model.Insight) []storedInsight {
	stored := make([]storedInsight, 0, len(insights))
	for _, i := range insights {
		stored = append(stored, storedInsight{
			ID:           i.ID,
			CompetitorID: i.CompetitorID,
			Type:         i.Type,
			Title:        i.Title,
			Description:  i.Description,
			Source:       i.Source,
			Date:         i.Date,
			Sentiment:    i.Sentiment,
			Impact:       i.Impact,
		})
	}
	return stored
}

func fromStoredInsights(stored []storedInsight) []model.Insight {
	insights := make([]model.Insight, 0, len(stored))
	for _, s := range stored {
		insights = append(insights, model.Insight{
			ID:           s.ID,
			CompetitorID: s.CompetitorID,
			Type:         s.Type,
			Title:        s.Title,
			Description:  s.Description,
			Source:       s.Source,
			Date:         s.Date,
			Sentiment:    s.Sentiment,
			Impact:       s.Impact,
		})
	}
	return insights
}

// Create はインサイトレポートを作成する。
func (r *PostgresReportRepo) Create(ctx context.Context, report *model.InsightReport) error {
	keyMoves, err := json.Marshal(stringsOrEmpty(report.KeyMoves))
	if err != nil {
		return fmt.Errorf("主要動向のJSON変換に失敗しました: %w", err)
	}
	opportunities, err := json.Marshal(stringsOrEmpty(report.Opportunities))
	if err != nil {
		return fmt.Errorf("機会のJSON変換に失敗しました: %w", err)
	}
	insights, err := json.Marshal(toStoredInsights(report.Insights))
	if err != nil {
		return fmt.Errorf("インサイトのJSON変換に失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO insight_reports (id, competitor_id, competitor_name, overview,
		                              key_moves, threat_level, opportunities,
		                              insights, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		report.ID, report.CompetitorID, report.CompetitorName, report.Overview,
		keyMoves, report.ThreatLevel, opportunities, insights, report.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("インサイトレポートの作成に失敗しました: %w", err)
	}
	return nil
}

// List は全インサイトレポートをlast_updated降順で返す。
func (r *PostgresReportRepo) List(ctx context.Context) ([]*model.InsightReport, error) {
	return r.list(ctx,
		`SELECT `+reportColumns+` FROM insight_reports ORDER BY last_updated DESC`,
	)
}

// ListByCompetitor は指定競合企業のインサイトレポートを返す。
func (r *PostgresReportRepo) ListByCompetitor(ctx context.Context, competitorID string) ([]*model.InsightReport, error) {
	return r.list(ctx,
		`SELECT `+reportColumns+` FROM insight_reports
		 WHERE competitor_id = $1 ORDER BY last_updated DESC`,
		competitorID,
	)
}

func (r *PostgresReportRepo) list(ctx context.Context, query string, args ...any) ([]*model.InsightReport, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("インサイトレポート一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reports []*model.InsightReport
	for rows.Next() {
		report := &model.InsightReport{}
		var keyMoves, opportunities, insights []byte

		err := rows.Scan(
			&report.ID, &report.CompetitorID, &report.CompetitorName, &report.Overview,
			&keyMoves, &report.ThreatLevel, &opportunities, &insights,
			&report.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("インサイトレポートの読み取りに失敗しました: %w", err)
		}

		if err := json.Unmarshal(keyMoves, &report.KeyMoves); err != nil {
			return nil, fmt.Errorf("主要動向の復元に失敗しました: %w", err)
		}
		if err := json.Unmarshal(opportunities, &report.Opportunities); err != nil {
			return nil, fmt.Errorf("機会の復元に失敗しました: %w", err)
		}
		var stored []storedInsight
		if err := json.Unmarshal(insights, &stored); err != nil {
			return nil, fmt.Errorf("インサイトの復元に失敗しました: %w", err)
		}
		report.Insights = fromStoredInsights(stored)

		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("インサイトレポート一覧の走査に失敗しました: %w", err)
	}

	return reports, nil
}

// stringsOrEmpty はnilスライスを空スライスに正規化する。JSONB列にnullを入れない。
func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// compile-time interface check
var _ ReportRepository = (*PostgresReportRepo)(nil)
