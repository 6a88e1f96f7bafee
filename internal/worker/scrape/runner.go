package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ampersand-AI/chiper/internal/catalog"
	"github.com/Ampersand-AI/chiper/internal/metrics"
	"github.com/Ampersand-AI/chiper/internal/model"
	"github.com/Ampersand-AI/chiper/internal/repository"
	"github.com/Ampersand-AI/chiper/internal/scraper"
)

// PipelineService はスクレイプパイプラインの実行インターフェース。
type PipelineService interface {
	// RunPipeline は取得→分析→レポートの3ステージを連鎖実行する。
	RunPipeline(ctx context.Context, sourceID int, competitorID string) (*scraper.PipelineResult, error)
}

// Runner はスクレイプ対象1件に対するパイプライン実行と状態更新を行う。
type Runner struct {
	targetRepo repository.ScrapeTargetRepository
	pipeline   PipelineService
	collector  metrics.MetricsCollector
	logger     *slog.Logger
}

// NewRunner はRunnerの新しいインスタンスを生成する。
// collectorはnilを許容する（メトリクス収集なしで動作する）。
func NewRunner(
	targetRepo repository.ScrapeTargetRepository,
	pipeline PipelineService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		targetRepo: targetRepo,
		pipeline:   pipeline,
		collector:  collector,
		logger:     logger,
	}
}

// SourceCategory はスクレイプ対象の種類を対応するソースカテゴリに変換する。
// website はOpenCorporatesの企業情報、linkedin はソーシャル系ソースで代替する。
func SourceCategory(t model.TargetType) string {
	switch t {
	case model.TargetTypeNews:
		return "news"
	case model.TargetTypeJobs:
		return "jobs"
	case model.TargetTypeLinkedIn:
		return "social"
	case model.TargetTypeWebsite:
		return "company"
	default:
		return "news"
	}
}

// sourceForTarget はスクレイプ対象の種類に対応するカタログソースを返す。
func sourceForTarget(t model.TargetType) *catalog.Source {
	sources := catalog.ByCategory(SourceCategory(t))
	if len(sources) == 0 {
		return nil
	}
	return &sources[0]
}

// Run はスクレイプ対象1件のパイプラインを実行し、結果に応じて状態を更新する。
// 成功時は監視頻度に応じた次回スケジュールを設定し、失敗時は
// 指数バックオフを適用する。状態更新の失敗のみをエラーとして返す。
func (r *Runner) Run(ctx context.Context, target *model.ScrapeTarget) error {
	start := time.Now()

	source := sourceForTarget(target.Type)
	if source == nil {
		return fmt.Errorf("スクレイプ対象の種類に対応するソースがありません: %s", target.Type)
	}

	result, err := r.pipeline.RunPipeline(ctx, source.ID, target.CompetitorID)
	if err != nil {
		r.logger.Warn("スクレイプ対象のパイプライン実行に失敗しました",
			slog.String("target_id", target.ID),
			slog.String("url", target.URL),
			slog.String("error", err.Error()),
		)
		ApplyFailure(target, err.Error())
		if r.collector != nil {
			r.collector.RecordScrapeFailure(target.ID, err.Error())
		}
	} else {
		ApplySuccess(target)
		r.logger.Info("スクレイプ対象のパイプライン実行が完了しました",
			slog.String("target_id", target.ID),
			slog.String("competitor_id", target.CompetitorID),
			slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
		)
		if r.collector != nil {
			r.collector.RecordScrapeSuccess(target.ID)
			r.collector.RecordInsightsCreated(len(result.Insights))
		}
	}

	if r.collector != nil {
		r.collector.RecordScrapeLatency(time.Since(start))
		if result != nil {
			r.collector.RecordPipelineRun(string(result.CurrentPhase()))
		}
	}

	if err := r.targetRepo.UpdateScrapeState(ctx, target); err != nil {
		return fmt.Errorf("スクレイプ対象の状態更新に失敗しました: %w", err)
	}

	return nil
}
