// Package competitor は競合企業管理のドメインロジックを提供する。
package competitor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Ampersand-AI/chiper/internal/model"
	"github.com/Ampersand-AI/chiper/internal/repository"
)

// AddCompetitorInput は競合企業登録の入力。
type AddCompetitorInput struct {
	Name                string
	Website             string
	Description         string
	IndustryPositioning string
	Country             string
}

// Service は競合企業管理のサービス層。
// 登録・取得・更新・削除とデモデータの投入を統括する。
type Service struct {
	competitorRepo repository.CompetitorRepository
	insightRepo    repository.InsightRepository
	logger         *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	competitorRepo repository.CompetitorRepository,
	insightRepo repository.InsightRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		competitorRepo: competitorRepo,
		insightRepo:    insightRepo,
		logger:         logger,
	}
}

// AddCompetitor は競合企業を登録する。
// ロゴはデフォルト値、センチメントスコアは50〜80のランダム値が割り当てられる。
func (s *Service) AddCompetitor(ctx context.Context, input AddCompetitorInput) (*model.Competitor, error) {
	now := time.Now()
	competitor := &model.Competitor{
		ID:                  uuid.New().String(),
		Name:                input.Name,
		Website:             input.Website,
		Logo:                model.DefaultLogo,
		Description:         input.Description,
		IndustryPositioning: input.IndustryPositioning,
		SentimentScore:      randomSentimentScore(),
		Country:             input.Country,
		LastUpdated:         now,
		CreatedAt:           now,
	}

	if err := s.competitorRepo.Create(ctx, competitor); err != nil {
		return nil, fmt.Errorf("競合企業の登録に失敗しました: %w", err)
	}

	s.logger.Info("競合企業を登録しました",
		slog.String("competitor_id", competitor.ID),
		slog.String("name", competitor.Name),
	)

	return competitor, nil
}

// GetCompetitors は全競合企業を返す。
func (s *Service) GetCompetitors(ctx context.Context) ([]*model.Competitor, error) {
	return s.competitorRepo.List(ctx)
}

// GetCompetitor は指定IDの競合企業を返す。見つからない場合はnilを返す。
func (s *Service) GetCompetitor(ctx context.Context, id string) (*model.Competitor, error) {
	return s.competitorRepo.FindByID(ctx, id)
}

// UpdateCompetitor は競合企業を部分更新する。
// nilでないフィールドのみを上書きし、last_updatedを更新する。
// 対象が存在しない場合はnilを返す。
func (s *Service) UpdateCompetitor(ctx context.Context, id string, update model.CompetitorUpdate) (*model.Competitor, error) {
	competitor, err := s.competitorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("競合企業の取得に失敗しました: %w", err)
	}
	if competitor == nil {
		return nil, nil
	}

	if update.Name != nil {
		competitor.Name = *update.Name
	}
	if update.Website != nil {
		competitor.Website = *update.Website
	}
	if update.Logo != nil {
		competitor.Logo = *update.Logo
	}
	if update.Description != nil {
		competitor.Description = *update.Description
	}
	if update.IndustryPositioning != nil {
		competitor.IndustryPositioning = *update.IndustryPositioning
	}
	if update.SentimentScore != nil {
		competitor.SentimentScore = *update.SentimentScore
	}
	if update.Country != nil {
		competitor.Country = *update.Country
	}
	competitor.LastUpdated = time.Now()

	if err := s.competitorRepo.Update(ctx, competitor); err != nil {
		return nil, fmt.Errorf("競合企業の更新に失敗しました: %w", err)
	}

	s.logger.Info("競合企業を更新しました",
		slog.String("competitor_id", competitor.ID),
	)

	return competitor, nil
}

// DeleteCompetitor は競合企業を削除する。削除が発生したかを返す。
// 関連するインサイト・スクレイプ対象・スクレイパーコード・分析・レポートは
// 外部キーのON DELETE CASCADEにより同時に削除される。
func (s *Service) DeleteCompetitor(ctx context.Context, id string) (bool, error) {
	deleted, err := s.competitorRepo.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("競合企業の削除に失敗しました: %w", err)
	}

	if deleted {
		s.logger.Info("競合企業を削除しました",
			slog.String("competitor_id", id),
		)
	}

	return deleted, nil
}

// SeedDemoData はデモ用の競合企業とインサイトを投入する。
// 競合企業テーブルが空の場合のみ実行される（冪等）。
// サーバー起動時に1回だけ呼び出される。
func (s *Service) SeedDemoData(ctx context.Context) error {
	count, err := s.competitorRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("競合企業数の確認に失敗しました: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()

	demoCompetitors := []*model.Competitor{
		{
			ID:                  uuid.New().String(),
			Name:                "TechGiant Inc",
			Website:             "https://techgiant.example.com",
			Logo:                model.DefaultLogo,
			Description:         "Leading provider of enterprise AI solutions with a focus on NLP and computer vision applications.",
			IndustryPositioning: "Enterprise AI",
			SentimentScore:      78,
			Country:             "USA",
			LastUpdated:         now,
			CreatedAt:           now,
		},
		{
			ID:                  uuid.New().String(),
			Name:                "DataCrunch Solutions",
			Website:             "https://datacrunch.example.com",
			Logo:                model.DefaultLogo,
			Description:         "Data analytics platform focusing on business intelligence and predictive modeling for mid-market companies.",
			IndustryPositioning: "Business Intelligence",
			SentimentScore:      65,
			Country:             "Canada",
			LastUpdated:         now,
			CreatedAt:           now,
		},
		{
			ID:                  uuid.New().String(),
			Name:                "CloudScale Technologies",
			Website:             "https://cloudscale.example.com",
			Logo:                model.DefaultLogo,
			Description:         "Cloud infrastructure provider with specialized solutions for machine learning workloads and data processing.",
			IndustryPositioning: "Cloud Infrastructure",
			SentimentScore:      82,
			Country:             "Germany",
			LastUpdated:         now,
			CreatedAt:           now,
		},
	}

	for _, c := range demoCompetitors {
		if err := s.competitorRepo.Create(ctx, c); err != nil {
			return fmt.Errorf("デモ競合企業の投入に失敗しました: %w", err)
		}
	}

	demoInsights := []*model.Insight{
		{
			ID:           uuid.New().String(),
			CompetitorID: demoCompetitors[0].ID,
			Type:         model.InsightTypeProduct,
			Title:        "TechGiant Launches New AI Platform",
			Description:  "TechGiant has released a new enterprise AI platform with advanced NLP capabilities.",
			Source:       "Company Blog",
			Date:         now,
			Sentiment:    model.SentimentPositive,
			Impact:       model.ImpactHigh,
		},
		{
			ID:           uuid.New().String(),
			CompetitorID: demoCompetitors[0].ID,
			Type:         model.InsightTypeHiring,
			Title:        "TechGiant Hiring ML Engineers",
			Description:  "TechGiant is expanding their machine learning team with 15 new positions.",
			Source:       "LinkedIn",
			Date:         now,
			Sentiment:    model.SentimentNeutral,
			Impact:       model.ImpactMedium,
		},
		{
			ID:           uuid.New().String(),
			CompetitorID: demoCompetitors[1].ID,
			Type:         model.InsightTypePricing,
			Title:        "DataCrunch Reduces Enterprise Pricing",
			Description:  "DataCrunch announced a 15% reduction in their enterprise plan pricing.",
			Source:       "Press Release",
			Date:         now,
			Sentiment:    model.SentimentNegative,
			Impact:       model.ImpactHigh,
		},
		{
			ID:           uuid.New().String(),
			CompetitorID: demoCompetitors[2].ID,
			Type:         model.InsightTypeExpansion,
			Title:        "CloudScale Expands to Asia Pacific",
			Description:  "CloudScale has opened new data centers in Singapore and Tokyo.",
			Source:       "News Article",
			Date:         now,
			Sentiment:    model.SentimentPositive,
			Impact:       model.ImpactMedium,
		},
	}

	for _, i := range demoInsights {
		if err := s.insightRepo.Create(ctx, i); err != nil {
			return fmt.Errorf("デモインサイトの投入に失敗しました: %w", err)
		}
	}

	s.logger.Info("デモデータを投入しました",
		slog.Int("competitor_count", len(demoCompetitors)),
		slog.Int("insight_count", len(demoInsights)),
	)

	return nil
}

// randomSentimentScore は登録時のセンチメントスコアを50〜80の範囲で生成する。
func randomSentimentScore() int {
	return model.SentimentScoreMin + rand.Intn(model.SentimentScoreMax-model.SentimentScoreMin+1)
}
