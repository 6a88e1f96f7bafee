// Package model はドメインモデルを定義する。
package model

import "time"

// ThreatLevel は競合の脅威度を表す。
type ThreatLevel string

const (
	// ThreatLevelHigh は脅威度が高いことを示す。
	ThreatLevelHigh ThreatLevel = "high"
	// ThreatLevelMedium は脅威度が中程度であることを示す。
	ThreatLevelMedium ThreatLevel = "medium"
	// ThreatLevelLow は脅威度が低いことを示す。
	ThreatLevelLow ThreatLevel = "low"
)

// ScraperCodeStatus はAI生成スクレイパーコードの由来を表す。
type ScraperCodeStatus string

const (
	// ScraperCodeStatusGenerated はAIによるコード生成が成功したことを示す。
	ScraperCodeStatusGenerated ScraperCodeStatus = "generated"
	// ScraperCodeStatusTemplate は生成失敗時の固定テンプレートであることを示す。
	ScraperCodeStatusTemplate ScraperCodeStatus = "template"
)

// ScraperCode は競合企業と対象URLに紐づくAI生成スクレイピングコードを表す。
// コード生成操作によって作成され、status以外は変更されない。
type ScraperCode struct {
	ID           string
	CompetitorID string
	URL          string
	Language     string
	Code         string
	Status       ScraperCodeStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InsightAnalysis はインサイト群から導出された戦略サマリーを表す。
// 分析ステージで一時的に生成され、レポート生成の入力となる。
type InsightAnalysis struct {
	ID                string
	CompetitorID      string
	Summary           string
	ProductStrategy   string
	MarketPositioning string
	Gaps              string
	Opportunities     string
	ThreatLevel       ThreatLevel
	InsightCount      int
	CreatedAt         time.Time
}

// InsightReport は競合企業ごとの最終的な構造化レポートを表す。
// パイプラインが完走するたびに1件作成され、reportsコレクションに追記される。
type InsightReport struct {
	ID             string
	CompetitorID   string
	CompetitorName string
	Overview       string
	KeyMoves       []string
	ThreatLevel    ThreatLevel
	Opportunities  []string
	Insights       []Insight // レポートに使用したインサイト（先頭5件まで）
	LastUpdated    time.Time
}

// MaxReportInsights はレポートに埋め込むインサイトの最大件数。
const MaxReportInsights = 5
