// Package model はドメインモデルを定義する。
package model

import "time"

// TargetType はスクレイプ対象ソースの種類を表す。
type TargetType string

const (
	// TargetTypeWebsite は企業Webサイト。
	TargetTypeWebsite TargetType = "website"
	// TargetTypeLinkedIn はLinkedInページ。
	TargetTypeLinkedIn TargetType = "linkedin"
	// TargetTypeNews はニュースソース。
	TargetTypeNews TargetType = "news"
	// TargetTypeJobs は求人ボード。
	TargetTypeJobs TargetType = "jobs"
)

// ValidTargetType はターゲットタイプが定義済みの値かを検証する。
func ValidTargetType(t TargetType) bool {
	switch t {
	case TargetTypeWebsite, TargetTypeLinkedIn, TargetTypeNews, TargetTypeJobs:
		return true
	}
	return false
}

// Frequency はスクレイプ対象の監視頻度を表す。
type Frequency string

const (
	// FrequencyDaily は日次の監視頻度。
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly は週次の監視頻度。
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly は月次の監視頻度。
	FrequencyMonthly Frequency = "monthly"
)

// ValidFrequency は監視頻度が定義済みの値かを検証する。
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// TargetStatus はスクレイプ対象の状態を表す。
type TargetStatus string

const (
	// TargetStatusActive はアクティブな監視状態。
	TargetStatusActive TargetStatus = "active"
	// TargetStatusPaused は一時停止された監視状態。
	TargetStatusPaused TargetStatus = "paused"
	// TargetStatusError は連続エラーによる停止状態。
	TargetStatusError TargetStatus = "error"
)

// ScrapeTarget は1つの競合企業に紐づく監視対象ソースを表す。
// 作成時はstatus=active、next_scheduled=now+24hで初期化される。
type ScrapeTarget struct {
	ID                string
	CompetitorID      string
	Type              TargetType
	URL               string
	Frequency         Frequency
	Status            TargetStatus
	LastScraped       *time.Time
	NextScheduled     time.Time
	ConsecutiveErrors int
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
