// Package model はドメインモデルを定義する。
package model

import "time"

// APIKeyType はAPIキーのプロバイダー種別を表す。
type APIKeyType string

const (
	// APIKeyTypeOpenRouter はOpenRouterのAPIキー。
	APIKeyTypeOpenRouter APIKeyType = "openrouter"
	// APIKeyTypeOpenAI はOpenAIのAPIキー。
	APIKeyTypeOpenAI APIKeyType = "openai"
	// APIKeyTypeNewsAPI はNewsAPIのAPIキー。
	APIKeyTypeNewsAPI APIKeyType = "newsapi"
)

// ValidAPIKeyType はAPIキー種別が定義済みの値かを検証する。
func ValidAPIKeyType(t APIKeyType) bool {
	switch t {
	case APIKeyTypeOpenRouter, APIKeyTypeOpenAI, APIKeyTypeNewsAPI:
		return true
	}
	return false
}

// ScraperSettings はスクレイパー全体の設定を保持する単一レコード。
// 3つの任意APIキーとスクレイパー有効フラグを含む。
type ScraperSettings struct {
	OpenRouterKey  string
	OpenAIKey      string
	NewsAPIKey     string
	ScraperEnabled bool
	UpdatedAt      time.Time
}
