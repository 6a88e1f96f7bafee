// Package insight はインサイト管理のドメインロジックを提供する。
// インサイトは作成後不変で、1レコード単位で追記される。
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ampersand-AI/chiper/internal/model"
	"github.com/Ampersand-AI/chiper/internal/repository"
)

// AddInsightInput はインサイト登録の入力。
type AddInsightInput struct {
	CompetitorID string
	Type         model.InsightType
	Title        string
	Description  string
	Source       string
	Sentiment    model.Sentiment
	Impact       model.Impact
	RawPayload   json.RawMessage
}

// Service はインサイト管理のサービス層。
type Service struct {
	insightRepo    repository.InsightRepository
	competitorRepo repository.CompetitorRepository
	logger         *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	insightRepo repository.InsightRepository,
	competitorRepo repository.CompetitorRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		insightRepo:    insightRepo,
		competitorRepo: competitorRepo,
		logger:         logger,
	}
}

// AddInsight はインサイトを登録する。
// 参照先の競合企業が存在しない場合はエラーを返す。
// インサイトは1レコード単位でINSERTされるため、
// 並行して追加されたインサイトが失われることはない。
func (s *Service) AddInsight(ctx context.Context, input AddInsightInput) (*model.Insight, error) {
	if !model.ValidInsightType(input.Type) {
		return nil, model.NewInvalidInsightTypeError(string(input.Type))
	}

	competitor, err := s.competitorRepo.FindByID(ctx, input.CompetitorID)
	if err != nil {
		return nil, fmt.Errorf("競合企業の確認に失敗しました: %w", err)
	}
	if competitor == nil {
		return nil, model.NewCompetitorNotFoundError(input.CompetitorID)
	}

	ins := &model.Insight{
		ID:           uuid.New().String(),
		CompetitorID: input.CompetitorID,
		Type:         input.Type,
		Title:        input.Title,
		Description:  input.Description,
		Source:       input.Source,
		Date:         time.Now(),
		Sentiment:    input.Sentiment,
		Impact:       input.Impact,
		RawPayload:   input.RawPayload,
	}

	if err := s.insightRepo.Create(ctx, ins); err != nil {
		return nil, fmt.Errorf("インサイトの登録に失敗しました: %w", err)
	}

	s.logger.Info("インサイトを登録しました",
		slog.String("insight_id", ins.ID),
		slog.String("competitor_id", ins.CompetitorID),
		slog.String("type", string(ins.Type)),
	)

	return ins, nil
}

// GetInsights はインサイト一覧を返す。
// competitorIDが空でない場合は指定競合企業のインサイトのみを返す。
func (s *Service) GetInsights(ctx context.Context, competitorID string) ([]*model.Insight, error) {
	if competitorID != "" {
		return s.insightRepo.ListByCompetitor(ctx, competitorID)
	}
	return s.insightRepo.List(ctx)
}
