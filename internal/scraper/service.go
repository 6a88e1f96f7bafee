// Package scraper はスクレイプ→分析→レポートのパイプラインを統括する。
// 各ステージはベストエフォートで動作し、外部呼び出しの失敗は
// モックペイロードまたは定型文へのフォールバックとして処理される。
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ampersand-AI/chiper/internal/catalog"
	"github.com/Ampersand-AI/chiper/internal/config"
	"github.com/Ampersand-AI/chiper/internal/llm"
	"github.com/Ampersand-AI/chiper/internal/model"
	"github.com/Ampersand-AI/chiper/internal/repository"
	"github.com/Ampersand-AI/chiper/internal/security"
)

// minAPIKeyLength はAPIキーの形式チェックで要求する最小長。
const minAPIKeyLength = 20

// FetchService は外部ソース取得のインターフェース。
// テスタビリティのためFetcherを抽象化する。
type FetchService interface {
	Fetch(ctx context.Context, source *catalog.Source, competitorName string) ([]fetchedItem, error)
}

// Service はスクレイプパイプラインのサービス層。
type Service struct {
	fetcher        FetchService
	llmClient      llm.ClientService
	settingsRepo   repository.SettingsRepository
	insightRepo    repository.InsightRepository
	analysisRepo   repository.AnalysisRepository
	reportRepo     repository.ReportRepository
	codeRepo       repository.ScraperCodeRepository
	competitorRepo repository.CompetitorRepository
	ssrfGuard      security.SSRFGuardService
	cfg            *config.Config
	logger         *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	fetcher FetchService,
	llmClient llm.ClientService,
	settingsRepo repository.SettingsRepository,
	insightRepo repository.InsightRepository,
	analysisRepo repository.AnalysisRepository,
	reportRepo repository.ReportRepository,
	codeRepo repository.ScraperCodeRepository,
	competitorRepo repository.CompetitorRepository,
	ssrfGuard security.SSRFGuardService,
	cfg *config.Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		fetcher:        fetcher,
		llmClient:      llmClient,
		settingsRepo:   settingsRepo,
		insightRepo:    insightRepo,
		analysisRepo:   analysisRepo,
		reportRepo:     reportRepo,
		codeRepo:       codeRepo,
		competitorRepo: competitorRepo,
		ssrfGuard:      ssrfGuard,
		cfg:            cfg,
		logger:         logger,
	}
}

// resolveSettings は設定を取得する。取得に失敗した場合は空設定で継続する。
// 各APIキーはDB設定を優先し、空の場合は環境変数のデフォルト値を使用する。
func (s *Service) resolveSettings(ctx context.Context) *model.ScraperSettings {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.Warn("スクレイパー設定の取得に失敗したため空設定で継続します",
			slog.String("error", err.Error()),
		)
		settings = &model.ScraperSettings{}
	}

	if settings.OpenRouterKey == "" {
		settings.OpenRouterKey = s.cfg.OpenRouterKey
	}
	if settings.OpenAIKey == "" {
		settings.OpenAIKey = s.cfg.OpenAIKey
	}
	if settings.NewsAPIKey == "" {
		settings.NewsAPIKey = s.cfg.NewsAPIKey
	}

	return settings
}

// RunScraper はソースからインサイトを取得・合成する。
// スクレイパー有効時は実データ取得を試み、OpenRouterキーが設定されていれば
// LLMで要約する。無効時・取得失敗時・要約失敗時はカテゴリ別の
// モックペイロードに段階的にフォールバックし、常に1件以上を返す。
// この呼び出し自体は永続化を行わない（呼び出し元の責務）。
func (s *Service) RunScraper(ctx context.Context, source *catalog.Source, competitorID, competitorName string) []*model.Insight {
	settings := s.resolveSettings(ctx)

	if !settings.ScraperEnabled {
		return buildMockInsights(source, competitorID, competitorName)
	}
	if source.RequiresKey && settings.NewsAPIKey == "" {
		s.logger.Warn("APIキーが必要なソースのキーが未設定のためモックにフォールバックします",
			slog.Int("source_id", source.ID),
		)
		return buildMockInsights(source, competitorID, competitorName)
	}

	items, err := s.fetcher.Fetch(ctx, source, competitorName)
	if err != nil {
		s.logger.Warn("外部ソースの取得に失敗したためモックにフォールバックします",
			slog.Int("source_id", source.ID),
			slog.String("error", err.Error()),
		)
		return buildMockInsights(source, competitorID, competitorName)
	}

	now := time.Now()
	insightType := catalog.InsightType(source.Category)

	var insights []*model.Insight
	for _, item := range items {
		description := item.Content
		if settings.OpenRouterKey != "" {
			summary, err := s.llmClient.SummarizeFindings(ctx, settings.OpenRouterKey, item.Content)
			if err != nil {
				s.logger.Warn("LLM要約に失敗したため生テキストを使用します",
					slog.String("error", err.Error()),
				)
			} else {
				description = summary
			}
		}

		title := item.Title
		if title == "" {
			title = fmt.Sprintf("New insight from %s", source.Title)
		}

		insights = append(insights, &model.Insight{
			ID:           uuid.New().String(),
			CompetitorID: competitorID,
			Type:         insightType,
			Title:        title,
			Description:  description,
			Source:       source.Title,
			Date:         now,
			Sentiment:    model.SentimentNeutral,
			Impact:       model.ImpactMedium,
		})
	}

	if len(insights) == 0 {
		return buildMockInsights(source, competitorID, competitorName)
	}

	return insights
}

// AnalyzeInsights はインサイト群から戦略分析を生成する。
// OpenRouterキー未設定時は定型サマリーで非nilの分析を返す。
// LLM呼び出しの失敗時はnilとエラーを返す（呼び出し元はレポート生成を
// スキップする）。インサイトが空の場合もエラーを返す。
func (s *Service) AnalyzeInsights(ctx context.Context, insights []*model.Insight, competitorName string) (*model.InsightAnalysis, error) {
	if len(insights) == 0 {
		return nil, model.NewNoInsightsError()
	}

	settings := s.resolveSettings(ctx)
	now := time.Now()

	if settings.OpenRouterKey == "" {
		summary := cannedAnalysisSummary(competitorName, len(insights))
		return &model.InsightAnalysis{
			ID:           uuid.New().String(),
			CompetitorID: insights[0].CompetitorID,
			Summary:      summary,
			ThreatLevel:  deriveThreatLevel(summary),
			InsightCount: len(insights),
			CreatedAt:    now,
		}, nil
	}

	text, err := s.llmClient.AnalyzeStrategy(ctx, settings.OpenRouterKey, concatInsights(insights))
	if err != nil {
		s.logger.Error("戦略分析のLLM呼び出しに失敗しました",
			slog.String("competitor", competitorName),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamFailedError(err.Error())
	}

	summary := text
	// サマリーはセクション本文を除いた先頭部分が望ましいが、
	// 見出しが無い応答ではテキスト全体をそのまま使う
	if overview := extractSection(text, "Summary"); overview != "" {
		summary = overview
	}

	return &model.InsightAnalysis{
		ID:                uuid.New().String(),
		CompetitorID:      insights[0].CompetitorID,
		Summary:           summary,
		ProductStrategy:   extractSection(text, "Product Strategy"),
		MarketPositioning: extractSection(text, "Market Positioning"),
		Gaps:              extractSection(text, "Gaps"),
		Opportunities:     extractSection(text, "Opportunities"),
		ThreatLevel:       deriveThreatLevel(text),
		InsightCount:      len(insights),
		CreatedAt:         now,
	}, nil
}

// GenerateReport は分析結果から構造化レポートを生成する。
// LLMによる4セクションMarkdownのパースに失敗した場合、
// またはキー未設定・呼び出し失敗の場合は定型文を使用する。
// 埋め込みインサイトは先頭5件までに制限される。
// analysisがnilの場合はnilを返す。
func (s *Service) GenerateReport(ctx context.Context, analysis *model.InsightAnalysis, insights []*model.Insight, competitorName, competitorID string) *model.InsightReport {
	if analysis == nil {
		return nil
	}

	settings := s.resolveSettings(ctx)

	parsed := cannedReport(analysis, competitorName)
	if settings.OpenRouterKey != "" {
		text, err := s.llmClient.FormatReport(ctx, settings.OpenRouterKey, analysisText(analysis))
		if err != nil {
			s.logger.Warn("レポート整形のLLM呼び出しに失敗したため定型文を使用します",
				slog.String("error", err.Error()),
			)
		} else if p, ok := parseReportMarkdown(text); ok {
			parsed = p
		} else {
			s.logger.Warn("LLM応答のセクション抽出に失敗したため定型文を使用します")
		}
	}

	embedded := insights
	if len(embedded) > model.MaxReportInsights {
		embedded = embedded[:model.MaxReportInsights]
	}
	values := make([]model.Insight, 0, len(embedded))
	for _, i := range embedded {
		values = append(values, *i)
	}

	return &model.InsightReport{
		ID:             uuid.New().String(),
		CompetitorID:   competitorID,
		CompetitorName: competitorName,
		Overview:       parsed.Overview,
		KeyMoves:       parsed.KeyMoves,
		ThreatLevel:    parsed.ThreatLevel,
		Opportunities:  parsed.Opportunities,
		Insights:       values,
		LastUpdated:    time.Now(),
	}
}

// GenerateCustomScraper は指定URL向けのスクレイパーコードを生成して保存する。
// コード生成に失敗した場合は固定テンプレートにフォールバックする。
func (s *Service) GenerateCustomScraper(ctx context.Context, targetURL, competitorID string) (*model.ScraperCode, error) {
	if err := s.ssrfGuard.ValidateURL(targetURL); err != nil {
		return nil, model.NewSSRFBlockedError()
	}

	competitor, err := s.competitorRepo.FindByID(ctx, competitorID)
	if err != nil {
		return nil, fmt.Errorf("競合企業の確認に失敗しました: %w", err)
	}
	if competitor == nil {
		return nil, model.NewCompetitorNotFoundError(competitorID)
	}

	settings := s.resolveSettings(ctx)

	code := scraperCodeTemplate
	status := model.ScraperCodeStatusTemplate
	if settings.OpenRouterKey != "" {
		generated, err := s.llmClient.GenerateScraperCode(ctx, settings.OpenRouterKey, targetURL)
		if err != nil {
			s.logger.Warn("スクレイパーコード生成に失敗したためテンプレートを使用します",
				slog.String("url", targetURL),
				slog.String("error", err.Error()),
			)
		} else {
			code = generated
			status = model.ScraperCodeStatusGenerated
		}
	}

	now := time.Now()
	scraperCode := &model.ScraperCode{
		ID:           uuid.New().String(),
		CompetitorID: competitorID,
		URL:          targetURL,
		Language:     "go",
		Code:         code,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.codeRepo.Create(ctx, scraperCode); err != nil {
		return nil, fmt.Errorf("スクレイパーコードの保存に失敗しました: %w", err)
	}

	s.logger.Info("スクレイパーコードを生成しました",
		slog.String("competitor_id", competitorID),
		slog.String("status", string(status)),
	)

	return scraperCode, nil
}

// TestAPIKey はAPIキーの形式チェックを行う。決してエラーを返さない。
// 無効な種別・空キー・短すぎるキーはfalseを返す。
func (s *Service) TestAPIKey(ctx context.Context, key string, keyType model.APIKeyType) bool {
	if !model.ValidAPIKeyType(keyType) {
		return false
	}
	if len(key) < minAPIKeyLength {
		return false
	}

	s.logger.Info("APIキーの形式チェックに成功しました",
		slog.String("type", string(keyType)),
	)
	return true
}

// RunPipeline は取得→分析→レポートの3ステージを連鎖実行する。
// 各ステージの出力は永続化され、状態遷移履歴とともに結果として返される。
// いずれかのステージが失敗した場合、該当の*_failed状態を記録して
// その時点までの結果とエラーを返す（途中成果は保持される）。
func (s *Service) RunPipeline(ctx context.Context, sourceID int, competitorID string) (*PipelineResult, error) {
	source := catalog.ByID(sourceID)
	if source == nil {
		return nil, model.NewSourceNotFoundError(sourceID)
	}

	competitor, err := s.competitorRepo.FindByID(ctx, competitorID)
	if err != nil {
		return nil, fmt.Errorf("競合企業の確認に失敗しました: %w", err)
	}
	if competitor == nil {
		return nil, model.NewCompetitorNotFoundError(competitorID)
	}

	result := &PipelineResult{}
	result.record(PhaseIdle)

	// ステージ1: 取得
	result.record(PhaseFetching)
	insights := s.RunScraper(ctx, source, competitorID, competitor.Name)
	for _, ins := range insights {
		if err := s.insightRepo.Create(ctx, ins); err != nil {
			result.record(PhaseFetchFailed)
			return result, fmt.Errorf("インサイトの保存に失敗しました: %w", err)
		}
	}
	result.Insights = insights
	result.record(PhaseFetched)

	// ステージ2: 分析
	result.record(PhaseAnalyzing)
	analysis, err := s.AnalyzeInsights(ctx, insights, competitor.Name)
	if err != nil {
		result.record(PhaseAnalysisFailed)
		return result, err
	}
	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		result.record(PhaseAnalysisFailed)
		return result, fmt.Errorf("分析結果の保存に失敗しました: %w", err)
	}
	result.Analysis = analysis
	result.record(PhaseAnalyzed)

	// ステージ3: レポート生成
	result.record(PhaseReporting)
	report := s.GenerateReport(ctx, analysis, insights, competitor.Name, competitorID)
	if err := s.reportRepo.Create(ctx, report); err != nil {
		result.record(PhaseReportFailed)
		return result, fmt.Errorf("レポートの保存に失敗しました: %w", err)
	}
	result.Report = report
	result.record(PhaseReported)

	s.logger.Info("パイプラインが完了しました",
		slog.String("competitor_id", competitorID),
		slog.Int("source_id", sourceID),
		slog.Int("insight_count", len(insights)),
		slog.String("threat_level", string(report.ThreatLevel)),
	)

	return result, nil
}

// concatInsights はインサイト群をLLMプロンプト向けの1テキストに連結する。
func concatInsights(insights []*model.Insight) string {
	var b strings.Builder
	for _, i := range insights {
		fmt.Fprintf(&b, "[%s] %s: %s (source: %s)\n", i.Type, i.Title, i.Description, i.Source)
	}
	return b.String()
}

// analysisText は分析結果をレポート整形プロンプト向けのテキストに変換する。
func analysisText(a *model.InsightAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary: %s\n", a.Summary)
	if a.ProductStrategy != "" {
		fmt.Fprintf(&b, "Product Strategy: %s\n", a.ProductStrategy)
	}
	if a.MarketPositioning != "" {
		fmt.Fprintf(&b, "Market Positioning: %s\n", a.MarketPositioning)
	}
	if a.Gaps != "" {
		fmt.Fprintf(&b, "Gaps: %s\n", a.Gaps)
	}
	if a.Opportunities != "" {
		fmt.Fprintf(&b, "Opportunities: %s\n", a.Opportunities)
	}
	fmt.Fprintf(&b, "Threat Level: %s\n", a.ThreatLevel)
	return b.String()
}
