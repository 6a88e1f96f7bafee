// Package model はドメインモデルを定義する。
package model

import "time"

// Competitor は追跡対象の競合企業を表す。
type Competitor struct {
	ID                  string
	Name                string
	Website             string
	Logo                string
	Description         string
	IndustryPositioning string
	SentimentScore      int // 0-100
	Country             string
	LastUpdated         time.Time
	CreatedAt           time.Time
}

// CompetitorUpdate は競合企業の部分更新を表す。
// nilフィールドは変更しない。
type CompetitorUpdate struct {
	Name                *string
	Website             *string
	Logo                *string
	Description         *string
	IndustryPositioning *string
	SentimentScore      *int
	Country             *string
}

// DefaultLogo は競合企業登録時のデフォルトロゴパス。
const DefaultLogo = "/placeholder.svg"

// SentimentScoreMin は登録時に割り当てるセンチメントスコアの下限。
const SentimentScoreMin = 50

// SentimentScoreMax は登録時に割り当てるセンチメントスコアの上限。
const SentimentScoreMax = 80
