// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, competitor, scraper, config, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeCompetitorNotFound = "COMPETITOR_NOT_FOUND"
	ErrCodeTargetNotFound     = "TARGET_NOT_FOUND"
	ErrCodeSourceNotFound     = "SOURCE_NOT_FOUND"
	ErrCodeInvalidURL         = "INVALID_URL"
	ErrCodeSSRFBlocked        = "SSRF_BLOCKED"
	ErrCodeInvalidInsightType = "INVALID_INSIGHT_TYPE"
	ErrCodeInvalidFrequency   = "INVALID_FREQUENCY"
	ErrCodeInvalidTargetType  = "INVALID_TARGET_TYPE"
	ErrCodeNoInsights         = "NO_INSIGHTS"
	ErrCodeUpstreamFailed     = "UPSTREAM_FAILED"
	ErrCodeMissingAPIKey      = "MISSING_API_KEY"
)

// NewCompetitorNotFoundError は競合企業未検出エラーを生成する。
func NewCompetitorNotFoundError(competitorID string) *APIError {
	return &APIError{
		Code:     ErrCodeCompetitorNotFound,
		Message:  fmt.Sprintf("指定された競合企業が見つかりません: %s", competitorID),
		Category: "competitor",
		Action:   "競合企業IDを確認してください。",
	}
}

// NewTargetNotFoundError はスクレイプ対象未検出エラーを生成する。
func NewTargetNotFoundError(targetID string) *APIError {
	return &APIError{
		Code:     ErrCodeTargetNotFound,
		Message:  fmt.Sprintf("指定されたスクレイプ対象が見つかりません: %s", targetID),
		Category: "scraper",
		Action:   "スクレイプ対象IDを確認してください。",
	}
}

// NewSourceNotFoundError はAPIソース未検出エラーを生成する。
func NewSourceNotFoundError(sourceID int) *APIError {
	return &APIError{
		Code:     ErrCodeSourceNotFound,
		Message:  fmt.Sprintf("指定されたAPIソースが見つかりません: %d", sourceID),
		Category: "scraper",
		Action:   "APIソースIDはカタログ一覧から選択してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewInvalidInsightTypeError は無効なインサイトタイプエラーを生成する。
func NewInvalidInsightTypeError(t string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInsightType,
		Message:  fmt.Sprintf("無効なインサイトタイプです: %s", t),
		Category: "validation",
		Action:   "インサイトタイプには product、hiring、expansion、pricing、news、patent、financial、social、opensource のいずれかを指定してください。",
	}
}

// NewInvalidFrequencyError は無効な監視頻度エラーを生成する。
func NewInvalidFrequencyError(f string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFrequency,
		Message:  fmt.Sprintf("無効な監視頻度です: %s", f),
		Category: "validation",
		Action:   "監視頻度には daily、weekly、monthly のいずれかを指定してください。",
	}
}

// NewInvalidTargetTypeError は無効なターゲットタイプエラーを生成する。
func NewInvalidTargetTypeError(t string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTargetType,
		Message:  fmt.Sprintf("無効なターゲットタイプです: %s", t),
		Category: "validation",
		Action:   "ターゲットタイプには website、linkedin、news、jobs のいずれかを指定してください。",
	}
}

// NewNoInsightsError は分析対象のインサイトが存在しないエラーを生成する。
func NewNoInsightsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoInsights,
		Message:  "分析対象のインサイトがありません。",
		Category: "scraper",
		Action:   "先にスクレイパーを実行してインサイトを収集してください。",
	}
}

// NewUpstreamFailedError は外部API呼び出し失敗エラーを生成する。
func NewUpstreamFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  fmt.Sprintf("外部APIの呼び出しに失敗しました: %s", reason),
		Category: "scraper",
		Action:   "しばらく待ってから再度お試しください。問題が続く場合は設定画面でAPIキーを確認してください。",
	}
}

// NewMissingAPIKeyError はAPIキー未設定エラーを生成する。
func NewMissingAPIKeyError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingAPIKey,
		Message:  fmt.Sprintf("%s のAPIキーが設定されていません。", provider),
		Category: "config",
		Action:   "設定画面でAPIキーを登録してください。",
	}
}
