// Package target はスクレイプ対象管理のドメインロジックを提供する。
package target

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ampersand-AI/chiper/internal/model"
	"github.com/Ampersand-AI/chiper/internal/repository"
	"github.com/Ampersand-AI/chiper/internal/security"
)

// initialScheduleDelay は登録直後の初回スクレイプまでの猶予。
const initialScheduleDelay = 24 * time.Hour

// AddTargetInput はスクレイプ対象登録の入力。
type AddTargetInput struct {
	CompetitorID string
	Type         model.TargetType
	URL          string
	Frequency    model.Frequency
}

// Service はスクレイプ対象管理のサービス層。
type Service struct {
	targetRepo     repository.ScrapeTargetRepository
	competitorRepo repository.CompetitorRepository
	ssrfGuard      security.SSRFGuardService
	logger         *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	targetRepo repository.ScrapeTargetRepository,
	competitorRepo repository.CompetitorRepository,
	ssrfGuard security.SSRFGuardService,
	logger *slog.Logger,
) *Service {
	return &Service{
		targetRepo:     targetRepo,
		competitorRepo: competitorRepo,
		ssrfGuard:      ssrfGuard,
		logger:         logger,
	}
}

// AddTarget はスクレイプ対象を登録する。
// status=active、next_scheduled=現在時刻+24時間で初期化される。
// URLはSSRF防止の事前検証を通過する必要がある。
func (s *Service) AddTarget(ctx context.Context, input AddTargetInput) (*model.ScrapeTarget, error) {
	if !model.ValidTargetType(input.Type) {
		return nil, model.NewInvalidTargetTypeError(string(input.Type))
	}
	if !model.ValidFrequency(input.Frequency) {
		return nil, model.NewInvalidFrequencyError(string(input.Frequency))
	}

	if err := s.ssrfGuard.ValidateURL(input.URL); err != nil {
		s.logger.Warn("スクレイプ対象URLがSSRF検証で拒否されました",
			slog.String("url", input.URL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewSSRFBlockedError()
	}

	competitor, err := s.competitorRepo.FindByID(ctx, input.CompetitorID)
	if err != nil {
		return nil, fmt.Errorf("競合企業の確認に失敗しました: %w", err)
	}
	if competitor == nil {
		return nil, model.NewCompetitorNotFoundError(input.CompetitorID)
	}

	now := time.Now()
	target := &model.ScrapeTarget{
		ID:            uuid.New().String(),
		CompetitorID:  input.CompetitorID,
		Type:          input.Type,
		URL:           input.URL,
		Frequency:     input.Frequency,
		Status:        model.TargetStatusActive,
		NextScheduled: now.Add(initialScheduleDelay),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.targetRepo.Create(ctx, target); err != nil {
		return nil, fmt.Errorf("スクレイプ対象の登録に失敗しました: %w", err)
	}

	s.logger.Info("スクレイプ対象を登録しました",
		slog.String("target_id", target.ID),
		slog.String("competitor_id", target.CompetitorID),
		slog.String("url", target.URL),
	)

	return target, nil
}

// GetTargets はスクレイプ対象一覧を返す。
// competitorIDが空でない場合は指定競合企業の対象のみを返す。
func (s *Service) GetTargets(ctx context.Context, competitorID string) ([]*model.ScrapeTarget, error) {
	if competitorID != "" {
		return s.targetRepo.ListByCompetitor(ctx, competitorID)
	}
	return s.targetRepo.List(ctx)
}

// ToggleTarget はスクレイプ対象の状態を切り替える。
// active → paused、paused → active、error → active と遷移する。
// error状態からの再開ではエラーカウントをリセットする。
// 対象が存在しない場合はnilを返す。
func (s *Service) ToggleTarget(ctx context.Context, id string) (*model.ScrapeTarget, error) {
	target, err := s.targetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("スクレイプ対象の取得に失敗しました: %w", err)
	}
	if target == nil {
		return nil, nil
	}

	switch target.Status {
	case model.TargetStatusActive:
		target.Status = model.TargetStatusPaused
	case model.TargetStatusPaused:
		target.Status = model.TargetStatusActive
	case model.TargetStatusError:
		// エラー状態からの再開: カウントとメッセージをリセットする
		target.Status = model.TargetStatusActive
		target.ConsecutiveErrors = 0
		target.ErrorMessage = ""
		if err := s.targetRepo.UpdateScrapeState(ctx, target); err != nil {
			return nil, fmt.Errorf("スクレイプ対象の状態更新に失敗しました: %w", err)
		}
		s.logger.Info("スクレイプ対象をエラー状態から再開しました",
			slog.String("target_id", target.ID),
		)
		return target, nil
	}

	if err := s.targetRepo.UpdateStatus(ctx, id, target.Status); err != nil {
		return nil, fmt.Errorf("スクレイプ対象の状態更新に失敗しました: %w", err)
	}

	s.logger.Info("スクレイプ対象の状態を切り替えました",
		slog.String("target_id", target.ID),
		slog.String("status", string(target.Status)),
	)

	return target, nil
}

// DeleteTarget はスクレイプ対象を削除する。削除が発生したかを返す。
func (s *Service) DeleteTarget(ctx context.Context, id string) (bool, error) {
	deleted, err := s.targetRepo.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("スクレイプ対象の削除に失敗しました: %w", err)
	}

	if deleted {
		s.logger.Info("スクレイプ対象を削除しました",
			slog.String("target_id", id),
		)
	}

	return deleted, nil
}
