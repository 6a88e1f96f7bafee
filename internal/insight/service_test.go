package insight

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// --- Service テスト用モック ---

// mockInsightRepo はテスト用のInsightRepositoryモック。
// 実装と同じ「1レコード単位のINSERT」の契約に従う。
type mockInsightRepo struct {
	mu       sync.Mutex
	insights map[string]*model.Insight
}

func newMockInsightRepo() *mockInsightRepo {
	return &mockInsightRepo{insights: make(map[string]*model.Insight)}
}

func (m *mockInsightRepo) Create(_ context.Context, i *model.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights[i.ID] = i
	return nil
}

func (m *mockInsightRepo) FindByID(_ context.Context, id string) (*model.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.insights[id]
	if !ok {
		return nil, nil
	}
	return i, nil
}

func (m *mockInsightRepo) List(_ context.Context) ([]*model.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*model.Insight, 0, len(m.insights))
	for _, i := range m.insights {
		list = append(list, i)
	}
	return list, nil
}

func (m *mockInsightRepo) ListByCompetitor(_ context.Context, competitorID string) ([]*model.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*model.Insight
	for _, i := range m.insights {
		if i.CompetitorID == competitorID {
			list = append(list, i)
		}
	}
	return list, nil
}

func (m *mockInsightRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.insights), nil
}

// mockCompetitorRepo はテスト用のCompetitorRepositoryモック。
type mockCompetitorRepo struct {
	competitors map[string]*model.Competitor
}

func newMockCompetitorRepo() *mockCompetitorRepo {
	return &mockCompetitorRepo{competitors: make(map[string]*model.Competitor)}
}

func (m *mockCompetitorRepo) FindByID(_ context.Context, id string) (*model.Competitor, error) {
	c, ok := m.competitors[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (m *mockCompetitorRepo) List(_ context.Context) ([]*model.Competitor, error) {
	return nil, nil
}

func (m *mockCompetitorRepo) Count(_ context.Context) (int, error) {
	return len(m.competitors), nil
}

func (m *mockCompetitorRepo) Create(_ context.Context, c *model.Competitor) error {
	m.competitors[c.ID] = c
	return nil
}

func (m *mockCompetitorRepo) Update(_ context.Context, c *model.Competitor) error {
	m.competitors[c.ID] = c
	return nil
}

func (m *mockCompetitorRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	if _, ok := m.competitors[id]; !ok {
		return false, nil
	}
	delete(m.competitors, id)
	return true, nil
}

func newTestService(insRepo *mockInsightRepo, compRepo *mockCompetitorRepo) *Service {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return NewService(insRepo, compRepo, logger)
}

// --- AddInsight のテスト ---

// インサイトが登録され、IDと日付が割り当てられることを検証
func TestAddInsight_Success(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	compRepo.competitors["comp-1"] = &model.Competitor{ID: "comp-1", Name: "Acme"}
	svc := newTestService(newMockInsightRepo(), compRepo)

	ins, err := svc.AddInsight(context.Background(), AddInsightInput{
		CompetitorID: "comp-1",
		Type:         model.InsightTypeNews,
		Title:        "Acme、新サービスを発表",
		Sentiment:    model.SentimentNeutral,
		Impact:       model.ImpactMedium,
	})
	if err != nil {
		t.Fatalf("AddInsight がエラーを返した: %v", err)
	}

	if ins.ID == "" {
		t.Error("IDが割り当てられていない")
	}
	if ins.Date.IsZero() {
		t.Error("Dateが設定されていない")
	}
}

// 存在しない競合企業へのインサイト登録が拒否されることを検証
func TestAddInsight_CompetitorNotFound(t *testing.T) {
	svc := newTestService(newMockInsightRepo(), newMockCompetitorRepo())

	_, err := svc.AddInsight(context.Background(), AddInsightInput{
		CompetitorID: "missing",
		Type:         model.InsightTypeNews,
		Title:        "x",
		Sentiment:    model.SentimentNeutral,
		Impact:       model.ImpactLow,
	})
	if err == nil {
		t.Fatal("存在しない競合企業への登録はエラーを返すべき")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorを返すべき: %v", err)
	}
	if apiErr.Code != model.ErrCodeCompetitorNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeCompetitorNotFound)
	}
}

// 無効なインサイトタイプが拒否されることを検証
func TestAddInsight_InvalidType(t *testing.T) {
	svc := newTestService(newMockInsightRepo(), newMockCompetitorRepo())

	_, err := svc.AddInsight(context.Background(), AddInsightInput{
		CompetitorID: "comp-1",
		Type:         model.InsightType("invalid"),
		Title:        "x",
	})
	if err == nil {
		t.Fatal("無効なタイプはエラーを返すべき")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidInsightType {
		t.Errorf("INVALID_INSIGHT_TYPEを返すべき: %v", err)
	}
}

// 並行して追加されたインサイトが両方とも保存されることを検証。
// インサイトは1レコード単位でINSERTされるため、追加同士が競合しない。
func TestAddInsight_ConcurrentWritesBothSurvive(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	compRepo.competitors["comp-1"] = &model.Competitor{ID: "comp-1", Name: "Acme"}
	insRepo := newMockInsightRepo()
	svc := newTestService(insRepo, compRepo)

	const writers = 10
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.AddInsight(context.Background(), AddInsightInput{
				CompetitorID: "comp-1",
				Type:         model.InsightTypeNews,
				Title:        "並行追加テスト",
				Sentiment:    model.SentimentNeutral,
				Impact:       model.ImpactLow,
			})
			if err != nil {
				t.Errorf("AddInsight がエラーを返した: %v", err)
			}
		}()
	}
	wg.Wait()

	count, _ := insRepo.Count(context.Background())
	if count != writers {
		t.Errorf("インサイト数 = %d, want %d（並行追加が失われている）", count, writers)
	}
}

// --- GetInsights のテスト ---

// competitorID指定時のフィルタリングを検証
func TestGetInsights_FilterByCompetitor(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	compRepo.competitors["comp-1"] = &model.Competitor{ID: "comp-1"}
	compRepo.competitors["comp-2"] = &model.Competitor{ID: "comp-2"}
	insRepo := newMockInsightRepo()
	svc := newTestService(insRepo, compRepo)

	for _, compID := range []string{"comp-1", "comp-1", "comp-2"} {
		if _, err := svc.AddInsight(context.Background(), AddInsightInput{
			CompetitorID: compID,
			Type:         model.InsightTypeNews,
			Title:        "t",
			Sentiment:    model.SentimentNeutral,
			Impact:       model.ImpactLow,
		}); err != nil {
			t.Fatalf("AddInsight がエラーを返した: %v", err)
		}
	}

	filtered, err := svc.GetInsights(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("GetInsights がエラーを返した: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("comp-1のインサイト数 = %d, want 2", len(filtered))
	}

	all, err := svc.GetInsights(context.Background(), "")
	if err != nil {
		t.Fatalf("GetInsights がエラーを返した: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("全インサイト数 = %d, want 3", len(all))
	}
}
