// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// CompetitorRepository は競合企業データの永続化インターフェース。
type CompetitorRepository interface {
	// FindByID は指定IDの競合企業を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Competitor, error)

	// List は全競合企業をlast_updated降順で返す。
	List(ctx context.Context) ([]*model.Competitor, error)

	// Count は競合企業の件数を返す。
	Count(ctx context.Context) (int, error)

	// Create は競合企業を作成する。
	Create(ctx context.Context, competitor *model.Competitor) error

	// Update は競合企業情報を更新する。
	Update(ctx context.Context, competitor *model.Competitor) error

	// DeleteByID は指定IDの競合企業を削除する。
	// 関連するinsights、scrape_targets、scraper_codes、insight_analyses、
	// insight_reportsはCASCADE削除される。削除が発生したかを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// InsightRepository はインサイトデータの永続化インターフェース。
// インサイトは作成後不変のため、更新操作は定義しない。
type InsightRepository interface {
	// Create はインサイトを1レコード単位で作成する。
	Create(ctx context.Context, insight *model.Insight) error

	// FindByID は指定IDのインサイトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Insight, error)

	// List は全インサイトをdate降順で返す。
	List(ctx context.Context) ([]*model.Insight, error)

	// ListByCompetitor は指定競合企業のインサイトをdate降順で返す。
	ListByCompetitor(ctx context.Context, competitorID string) ([]*model.Insight, error)

	// Count は全インサイトの件数を返す。
	Count(ctx context.Context) (int, error)
}

// ScrapeTargetRepository はスクレイプ対象データの永続化インターフェース。
type ScrapeTargetRepository interface {
	// FindByID は指定IDのスクレイプ対象を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ScrapeTarget, error)

	// List は全スクレイプ対象をcreated_at昇順で返す。
	List(ctx context.Context) ([]*model.ScrapeTarget, error)

	// ListByCompetitor は指定競合企業のスクレイプ対象を返す。
	ListByCompetitor(ctx context.Context, competitorID string) ([]*model.ScrapeTarget, error)

	// Create はスクレイプ対象を作成する。
	Create(ctx context.Context, target *model.ScrapeTarget) error

	// UpdateStatus はスクレイプ対象の状態のみを更新する。
	UpdateStatus(ctx context.Context, id string, status model.TargetStatus) error

	// DeleteByID は指定IDのスクレイプ対象を削除する。削除が発生したかを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// ListDueForScrape はスクレイプ対象のうち実行期限が到来したものを取得する。
	// next_scheduled <= now() かつ status = 'active' の対象を
	// FOR UPDATE SKIP LOCKEDで排他的に取得する。
	ListDueForScrape(ctx context.Context) ([]*model.ScrapeTarget, error)

	// UpdateScrapeState はスクレイプ実行結果の状態を更新する。
	// status、last_scraped、next_scheduled、consecutive_errors、error_messageを更新する。
	UpdateScrapeState(ctx context.Context, target *model.ScrapeTarget) error
}

// ScraperCodeRepository はAI生成スクレイパーコードの永続化インターフェース。
type ScraperCodeRepository interface {
	// Create はスクレイパーコードを作成する。
	Create(ctx context.Context, code *model.ScraperCode) error

	// List は全スクレイパーコードをcreated_at降順で返す。
	List(ctx context.Context) ([]*model.ScraperCode, error)

	// ListByCompetitor は指定競合企業のスクレイパーコードを返す。
	ListByCompetitor(ctx context.Context, competitorID string) ([]*model.ScraperCode, error)
}

// AnalysisRepository はインサイト分析の永続化インターフェース。
type AnalysisRepository interface {
	// Create はインサイト分析を作成する。
	Create(ctx context.Context, analysis *model.InsightAnalysis) error

	// List は全インサイト分析をcreated_at降順で返す。
	List(ctx context.Context) ([]*model.InsightAnalysis, error)

	// ListByCompetitor は指定競合企業のインサイト分析を返す。
	ListByCompetitor(ctx context.Context, competitorID string) ([]*model.InsightAnalysis, error)
}

// ReportRepository はインサイトレポートの永続化インターフェース。
type ReportRepository interface {
	// Create はインサイトレポートを作成する。
	Create(ctx context.Context, report *model.InsightReport) error

	// List は全インサイトレポートをlast_updated降順で返す。
	List(ctx context.Context) ([]*model.InsightReport, error)

	// ListByCompetitor は指定競合企業のインサイトレポートを返す。
	ListByCompetitor(ctx context.Context, competitorID string) ([]*model.InsightReport, error)
}

// SettingsRepository はスクレイパー設定（単一行）の永続化インターフェース。
type SettingsRepository interface {
	// Get はスクレイパー設定を取得する。
	Get(ctx context.Context) (*model.ScraperSettings, error)

	// Save はスクレイパー設定を保存する。
	Save(ctx context.Context, settings *model.ScraperSettings) error
}
