package competitor

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// --- Service テスト用モック ---

// mockCompetitorRepo はテスト用のCompetitorRepositoryモック。
type mockCompetitorRepo struct {
	mu          sync.Mutex
	competitors map[string]*model.Competitor
	createCalls int
	updateCalls int
}

func newMockCompetitorRepo() *mockCompetitorRepo {
	return &mockCompetitorRepo{
		competitors: make(map[string]*model.Competitor),
	}
}

func (m *mockCompetitorRepo) FindByID(_ context.Context, id string) (*model.Competitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.competitors[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (m *mockCompetitorRepo) List(_ context.Context) ([]*model.Competitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*model.Competitor, 0, len(m.competitors))
	for _, c := range m.competitors {
		list = append(list, c)
	}
	return list, nil
}

func (m *mockCompetitorRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.competitors), nil
}

func (m *mockCompetitorRepo) Create(_ context.Context, c *model.Competitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.competitors[c.ID] = c
	return nil
}

func (m *mockCompetitorRepo) Update(_ context.Context, c *model.Competitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	m.competitors[c.ID] = c
	return nil
}

func (m *mockCompetitorRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.competitors[id]; !ok {
		return false, nil
	}
	delete(m.competitors, id)
	return true, nil
}

// mockInsightRepo はテスト用のInsightRepositoryモック。
type mockInsightRepo struct {
	mu       sync.Mutex
	insights map[string]*model.Insight
}

func newMockInsightRepo() *mockInsightRepo {
	return &mockInsightRepo{
		insights: make(map[string]*model.Insight),
	}
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

func newTestService(compRepo *mockCompetitorRepo, insRepo *mockInsightRepo) *Service {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return NewService(compRepo, insRepo, logger)
}

// --- AddCompetitor のテスト ---

// 登録時にデフォルトロゴとスコア範囲が適用されることを検証
func TestAddCompetitor_AppliesDefaults(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	svc := newTestService(compRepo, newMockInsightRepo())

	c, err := svc.AddCompetitor(context.Background(), AddCompetitorInput{
		Name:    "Acme Corp",
		Website: "https://acme.example.com",
		Country: "USA",
	})
	if err != nil {
		t.Fatalf("AddCompetitor がエラーを返した: %v", err)
	}

	if c.ID == "" {
		t.Error("IDが割り当てられていない")
	}
	if c.Logo != model.DefaultLogo {
		t.Errorf("Logo = %q, want %q", c.Logo, model.DefaultLogo)
	}
	if c.SentimentScore < model.SentimentScoreMin || c.SentimentScore > model.SentimentScoreMax {
		t.Errorf("SentimentScore = %d, want %d〜%d",
			c.SentimentScore, model.SentimentScoreMin, model.SentimentScoreMax)
	}
	if c.LastUpdated.IsZero() {
		t.Error("LastUpdatedが設定されていない")
	}
	if compRepo.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", compRepo.createCalls)
	}
}

// --- UpdateCompetitor のテスト ---

// 部分更新でnilフィールドが保持されることを検証
func TestUpdateCompetitor_PartialUpdate(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	svc := newTestService(compRepo, newMockInsightRepo())

	created, err := svc.AddCompetitor(context.Background(), AddCompetitorInput{
		Name:        "Acme Corp",
		Website:     "https://acme.example.com",
		Description: "元の説明",
	})
	if err != nil {
		t.Fatalf("AddCompetitor がエラーを返した: %v", err)
	}

	newName := "Acme Corporation"
	updated, err := svc.UpdateCompetitor(context.Background(), created.ID, model.CompetitorUpdate{
		Name: &newName,
	})
	if err != nil {
		t.Fatalf("UpdateCompetitor がエラーを返した: %v", err)
	}

	if updated.Name != "Acme Corporation" {
		t.Errorf("Name = %q, want Acme Corporation", updated.Name)
	}
	if updated.Description != "元の説明" {
		t.Errorf("Description = %q, 未指定フィールドは保持されるべき", updated.Description)
	}
	if !updated.LastUpdated.After(created.CreatedAt) && !updated.LastUpdated.Equal(created.CreatedAt) {
		t.Error("LastUpdatedが更新されていない")
	}
}

// 存在しないIDの更新がnilを返すことを検証
func TestUpdateCompetitor_NotFound(t *testing.T) {
	svc := newTestService(newMockCompetitorRepo(), newMockInsightRepo())

	name := "x"
	updated, err := svc.UpdateCompetitor(context.Background(), "missing-id", model.CompetitorUpdate{
		Name: &name,
	})
	if err != nil {
		t.Fatalf("UpdateCompetitor がエラーを返した: %v", err)
	}
	if updated != nil {
		t.Error("存在しないIDの更新はnilを返すべき")
	}
}

// --- DeleteCompetitor のテスト ---

// 削除が発生したかどうかの真偽値を返すことを検証
func TestDeleteCompetitor_ReturnsDeleted(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	svc := newTestService(compRepo, newMockInsightRepo())

	c, err := svc.AddCompetitor(context.Background(), AddCompetitorInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("AddCompetitor がエラーを返した: %v", err)
	}

	deleted, err := svc.DeleteCompetitor(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("DeleteCompetitor がエラーを返した: %v", err)
	}
	if !deleted {
		t.Error("存在するIDの削除はtrueを返すべき")
	}

	deleted, err = svc.DeleteCompetitor(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("DeleteCompetitor がエラーを返した: %v", err)
	}
	if deleted {
		t.Error("存在しないIDの削除はfalseを返すべき")
	}
}

// --- SeedDemoData のテスト ---

// デモデータが投入され、2回目の呼び出しでは何もしないことを検証
func TestSeedDemoData_Idempotent(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	insRepo := newMockInsightRepo()
	svc := newTestService(compRepo, insRepo)

	if err := svc.SeedDemoData(context.Background()); err != nil {
		t.Fatalf("SeedDemoData がエラーを返した: %v", err)
	}

	competitors, _ := compRepo.List(context.Background())
	if len(competitors) != 3 {
		t.Errorf("競合企業数 = %d, want 3", len(competitors))
	}
	insights, _ := insRepo.List(context.Background())
	if len(insights) != 4 {
		t.Errorf("インサイト数 = %d, want 4", len(insights))
	}

	// 2回目は既存データがあるため何もしない
	if err := svc.SeedDemoData(context.Background()); err != nil {
		t.Fatalf("SeedDemoData（2回目）がエラーを返した: %v", err)
	}

	competitors, _ = compRepo.List(context.Background())
	if len(competitors) != 3 {
		t.Errorf("2回目実行後の競合企業数 = %d, want 3", len(competitors))
	}
}

// デモインサイトが投入された競合企業に紐づくことを検証
func TestSeedDemoData_InsightsLinked(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	insRepo := newMockInsightRepo()
	svc := newTestService(compRepo, insRepo)

	if err := svc.SeedDemoData(context.Background()); err != nil {
		t.Fatalf("SeedDemoData がエラーを返した: %v", err)
	}

	competitors, _ := compRepo.List(context.Background())
	ids := make(map[string]bool, len(competitors))
	for _, c := range competitors {
		ids[c.ID] = true
	}

	insights, _ := insRepo.List(context.Background())
	for _, i := range insights {
		if !ids[i.CompetitorID] {
			t.Errorf("インサイト %q が存在しない競合企業 %q に紐づいている", i.Title, i.CompetitorID)
		}
	}
}
