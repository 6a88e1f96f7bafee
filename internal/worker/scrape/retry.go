package scrape

import (
	"fmt"
	"time"

	"github.com/Ampersand-AI/chiper/internal/model"
)

const (
	// initialBackoff は指数バックオフの初回遅延（30分）。
	initialBackoff = 30 * time.Minute
	// maxBackoff は指数バックオフの最大遅延（12時間）。
	maxBackoff = 12 * time.Hour
	// errorThreshold は連続エラーによる監視停止の閾値。
	errorThreshold = 5
)

// ScheduleInterval は監視頻度を次回実行までの間隔に変換する。
// 未知の頻度は日次として扱う。
func ScheduleInterval(f model.Frequency) time.Duration {
	switch f {
	case model.FrequencyDaily:
		return 24 * time.Hour
	case model.FrequencyWeekly:
		return 7 * 24 * time.Hour
	case model.FrequencyMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// CalculateBackoff は連続エラー回数に基づいて指数バックオフ遅延を計算する。
// 初回30分、2倍ずつ増加、最大12時間。
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// ApplySuccess はスクレイプ成功時に対象の状態をリセットする。
// 連続エラー回数を0に戻し、監視頻度に応じてnext_scheduledを設定する。
func ApplySuccess(target *model.ScrapeTarget) {
	now := time.Now()
	target.ConsecutiveErrors = 0
	target.ErrorMessage = ""
	target.LastScraped = &now
	target.NextScheduled = now.Add(ScheduleInterval(target.Frequency))
	target.UpdatedAt = now
}

// ApplyFailure はスクレイプ失敗時にバックオフ戦略を適用する。
// 連続エラー回数をインクリメントし、指数バックオフでnext_scheduledを設定する。
// 連続エラーが閾値に達した場合はstatusをerrorに設定して監視を停止する。
func ApplyFailure(target *model.ScrapeTarget, reason string) {
	now := time.Now()
	target.ConsecutiveErrors++
	target.ErrorMessage = reason
	target.NextScheduled = now.Add(CalculateBackoff(target.ConsecutiveErrors - 1))
	target.UpdatedAt = now

	if target.ConsecutiveErrors >= errorThreshold {
		target.Status = model.TargetStatusError
		target.ErrorMessage = fmt.Sprintf("スクレイプが%d回連続で失敗したため監視を停止しました: %s",
			target.ConsecutiveErrors, reason)
	}
}
