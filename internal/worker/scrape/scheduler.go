// Package scrape はスクレイプ対象のバックグラウンド実行を提供する。
// スケジューラ、ランナー、リトライ/バックオフ戦略を含む。
package scrape

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Ampersand-AI/chiper/internal/model"
	"github.com/Ampersand-AI/chiper/internal/repository"
)

// TargetRunnerService はスクレイプ対象1件の実行インターフェース。
type TargetRunnerService interface {
	// Run は指定対象のパイプラインを実行し、結果に応じて対象の状態を更新する。
	Run(ctx context.Context, target *model.ScrapeTarget) error
}

// Scheduler はスクレイプ対象のスケジューリングと並列制御を行う。
// ティッカーで実行期限の到来した対象を取得し、
// semaphoreパターンで最大並列数を制御しながら実行する。
type Scheduler struct {
	targetRepo     repository.ScrapeTargetRepository
	runner         TargetRunnerService
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewScheduler(
	targetRepo repository.ScrapeTargetRepository,
	runner TargetRunnerService,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Scheduler{
		targetRepo:     targetRepo,
		runner:         runner,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("スクレイプスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("スクレイプサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("スクレイプスケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("スクレイプサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は実行期限の到来した対象を1回取得し、並列で実行する。
// semaphoreパターンで最大並列数を制御する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	// 実行期限の到来した対象を取得（FOR UPDATE SKIP LOCKED）
	targets, err := s.targetRepo.ListDueForScrape(ctx)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		s.logger.Info("実行期限の到来したスクレイプ対象はありません")
		return nil
	}

	s.logger.Info("スクレイプサイクルを開始します",
		slog.Int("target_count", len(targets)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, target := range targets {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(t *model.ScrapeTarget) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if err := s.runner.Run(ctx, t); err != nil {
				s.logger.Error("スクレイプ対象の実行に失敗しました",
					slog.String("target_id", t.ID),
					slog.String("url", t.URL),
					slog.String("error", err.Error()),
				)
			}
		}(target)
	}

	wg.Wait()

	duration := time.Since(start)
	s.logger.Info("スクレイプサイクルが完了しました",
		slog.Int("target_count", len(targets)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
