// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"time"
)

// InsightType はインサイトのカテゴリを表す閉じた列挙型。
type InsightType string

const (
	// InsightTypeProduct は製品関連のインサイト。
	InsightTypeProduct InsightType = "product"
	// InsightTypeHiring は採用関連のインサイト。
	InsightTypeHiring InsightType = "hiring"
	// InsightTypeExpansion は事業拡大関連のインサイト。
	InsightTypeExpansion InsightType = "expansion"
	// InsightTypePricing は価格関連のインサイト。
	InsightTypePricing InsightType = "pricing"
	// InsightTypeNews はニュース関連のインサイト。
	InsightTypeNews InsightType = "news"
	// InsightTypePatent は特許関連のインサイト。
	InsightTypePatent InsightType = "patent"
	// InsightTypeFinancial は財務関連のインサイト。
	InsightTypeFinancial InsightType = "financial"
	// InsightTypeSocial はソーシャルメディア関連のインサイト。
	InsightTypeSocial InsightType = "social"
	// InsightTypeOpenSource はオープンソース活動関連のインサイト。
	InsightTypeOpenSource InsightType = "opensource"
)

// ValidInsightType はインサイトタイプが定義済みの値かを検証する。
func ValidInsightType(t InsightType) bool {
	switch t {
	case InsightTypeProduct, InsightTypeHiring, InsightTypeExpansion,
		InsightTypePricing, InsightTypeNews, InsightTypePatent,
		InsightTypeFinancial, InsightTypeSocial, InsightTypeOpenSource:
		return true
	}
	return false
}

// Sentiment はインサイトの論調を表す。
type Sentiment string

const (
	// SentimentPositive は好意的な論調。
	SentimentPositive Sentiment = "positive"
	// SentimentNegative は否定的な論調。
	SentimentNegative Sentiment = "negative"
	// SentimentNeutral は中立的な論調。
	SentimentNeutral Sentiment = "neutral"
)

// Impact はインサイトの影響度を表す。
type Impact string

const (
	// ImpactHigh は影響度が高いことを示す。
	ImpactHigh Impact = "high"
	// ImpactMedium は影響度が中程度であることを示す。
	ImpactMedium Impact = "medium"
	// ImpactLow は影響度が低いことを示す。
	ImpactLow Impact = "low"
)

// Insight は競合企業についての単一の観測事項を表す。
// 作成後は不変で、更新操作は定義されない。
// 削除は競合企業削除のカスケードによってのみ発生する。
type Insight struct {
	ID           string
	CompetitorID string
	Type         InsightType
	Title        string
	Description  string
	Source       string
	Date         time.Time
	Sentiment    Sentiment
	Impact       Impact
	RawPayload   json.RawMessage // 取得元の生データ（任意）
}
