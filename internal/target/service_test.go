package target

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// --- Service テスト用モック ---

// mockTargetRepo はテスト用のScrapeTargetRepositoryモック。
type mockTargetRepo struct {
	targets map[string]*model.ScrapeTarget
}

func newMockTargetRepo() *mockTargetRepo {
	return &mockTargetRepo{targets: make(map[string]*model.ScrapeTarget)}
}

func (m *mockTargetRepo) FindByID(_ context.Context, id string) (*model.ScrapeTarget, error) {
	t, ok := m.targets[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (m *mockTargetRepo) List(_ context.Context) ([]*model.ScrapeTarget, error) {
	list := make([]*model.ScrapeTarget, 0, len(m.targets))
	for _, t := range m.targets {
		list = append(list, t)
	}
	return list, nil
}

func (m *mockTargetRepo) ListByCompetitor(_ context.Context, competitorID string) ([]*model.ScrapeTarget, error) {
	var list []*model.ScrapeTarget
	for _, t := range m.targets {
		if t.CompetitorID == competitorID {
			list = append(list, t)
		}
	}
	return list, nil
}

func (m *mockTargetRepo) Create(_ context.Context, t *model.ScrapeTarget) error {
	m.targets[t.ID] = t
	return nil
}

func (m *mockTargetRepo) UpdateStatus(_ context.Context, id string, status model.TargetStatus) error {
	if t, ok := m.targets[id]; ok {
		t.Status = status
	}
	return nil
}

func (m *mockTargetRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	if _, ok := m.targets[id]; !ok {
		return false, nil
	}
	delete(m.targets, id)
	return true, nil
}

func (m *mockTargetRepo) ListDueForScrape(_ context.Context) ([]*model.ScrapeTarget, error) {
	return nil, nil
}

func (m *mockTargetRepo) UpdateScrapeState(_ context.Context, t *model.ScrapeTarget) error {
	m.targets[t.ID] = t
	return nil
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

func (m *mockCompetitorRepo) List(_ context.Context) ([]*model.Competitor, error) { return nil, nil }
func (m *mockCompetitorRepo) Count(_ context.Context) (int, error)                { return 0, nil }
func (m *mockCompetitorRepo) Create(_ context.Context, _ *model.Competitor) error { return nil }
func (m *mockCompetitorRepo) Update(_ context.Context, _ *model.Competitor) error { return nil }
func (m *mockCompetitorRepo) DeleteByID(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// mockSSRFGuard はテスト用のSSRFGuardServiceモック。
type mockSSRFGuard struct {
	blockAll bool
}

func (g *mockSSRFGuard) NewSafeClient(_ time.Duration, _ int64) *http.Client {
	return http.DefaultClient
}

func (g *mockSSRFGuard) ValidateURL(rawURL string) error {
	if g.blockAll {
		return fmt.Errorf("blocked")
	}
	return nil
}

func newTestService(targetRepo *mockTargetRepo, compRepo *mockCompetitorRepo, guard *mockSSRFGuard) *Service {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return NewService(targetRepo, compRepo, guard, logger)
}

// --- AddTarget のテスト ---

// 登録時の初期状態を検証
func TestAddTarget_InitialState(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	compRepo.competitors["comp-1"] = &model.Competitor{ID: "comp-1"}
	svc := newTestService(newMockTargetRepo(), compRepo, &mockSSRFGuard{})

	before := time.Now()
	target, err := svc.AddTarget(context.Background(), AddTargetInput{
		CompetitorID: "comp-1",
		Type:         model.TargetTypeWebsite,
		URL:          "https://acme.example.com",
		Frequency:    model.FrequencyDaily,
	})
	if err != nil {
		t.Fatalf("AddTarget がエラーを返した: %v", err)
	}

	if target.Status != model.TargetStatusActive {
		t.Errorf("Status = %q, want active", target.Status)
	}
	if target.LastScraped != nil {
		t.Error("LastScrapedは登録時nilであるべき")
	}

	// next_scheduledは約24時間後
	wantMin := before.Add(24 * time.Hour)
	wantMax := time.Now().Add(24 * time.Hour)
	if target.NextScheduled.Before(wantMin) || target.NextScheduled.After(wantMax) {
		t.Errorf("NextScheduled = %v, want 約24時間後", target.NextScheduled)
	}
}

// 無効入力の拒否を検証
func TestAddTarget_Validation(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	compRepo.competitors["comp-1"] = &model.Competitor{ID: "comp-1"}
	svc := newTestService(newMockTargetRepo(), compRepo, &mockSSRFGuard{})

	tests := []struct {
		name     string
		input    AddTargetInput
		wantCode string
	}{
		{
			name: "無効なターゲットタイプ",
			input: AddTargetInput{
				CompetitorID: "comp-1",
				Type:         model.TargetType("ftp"),
				URL:          "https://example.com",
				Frequency:    model.FrequencyDaily,
			},
			wantCode: model.ErrCodeInvalidTargetType,
		},
		{
			name: "無効な監視頻度",
			input: AddTargetInput{
				CompetitorID: "comp-1",
				Type:         model.TargetTypeWebsite,
				URL:          "https://example.com",
				Frequency:    model.Frequency("hourly"),
			},
			wantCode: model.ErrCodeInvalidFrequency,
		},
		{
			name: "存在しない競合企業",
			input: AddTargetInput{
				CompetitorID: "missing",
				Type:         model.TargetTypeWebsite,
				URL:          "https://example.com",
				Frequency:    model.FrequencyDaily,
			},
			wantCode: model.ErrCodeCompetitorNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddTarget(context.Background(), tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("APIErrorを返すべき: %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

// SSRF検証で拒否されたURLが登録できないことを検証
func TestAddTarget_SSRFBlocked(t *testing.T) {
	compRepo := newMockCompetitorRepo()
	compRepo.competitors["comp-1"] = &model.Competitor{ID: "comp-1"}
	svc := newTestService(newMockTargetRepo(), compRepo, &mockSSRFGuard{blockAll: true})

	_, err := svc.AddTarget(context.Background(), AddTargetInput{
		CompetitorID: "comp-1",
		Type:         model.TargetTypeWebsite,
		URL:          "http://169.254.169.254/",
		Frequency:    model.FrequencyDaily,
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSSRFBlocked {
		t.Errorf("SSRF_BLOCKEDを返すべき: %v", err)
	}
}

// --- ToggleTarget のテスト ---

// 2回の切り替えで元の状態に戻ることを検証（対合性）
func TestToggleTarget_Involution(t *testing.T) {
	targetRepo := newMockTargetRepo()
	targetRepo.targets["t-1"] = &model.ScrapeTarget{
		ID:     "t-1",
		Status: model.TargetStatusActive,
	}
	svc := newTestService(targetRepo, newMockCompetitorRepo(), &mockSSRFGuard{})

	first, err := svc.ToggleTarget(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("ToggleTarget がエラーを返した: %v", err)
	}
	if first.Status != model.TargetStatusPaused {
		t.Errorf("1回目の切り替え後 = %q, want paused", first.Status)
	}

	second, err := svc.ToggleTarget(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("ToggleTarget がエラーを返した: %v", err)
	}
	if second.Status != model.TargetStatusActive {
		t.Errorf("2回目の切り替え後 = %q, want active", second.Status)
	}
}

// エラー状態からの切り替えでカウントがリセットされることを検証
func TestToggleTarget_ErrorToActive(t *testing.T) {
	targetRepo := newMockTargetRepo()
	targetRepo.targets["t-1"] = &model.ScrapeTarget{
		ID:                "t-1",
		Status:            model.TargetStatusError,
		ConsecutiveErrors: 5,
		ErrorMessage:      "接続エラー",
	}
	svc := newTestService(targetRepo, newMockCompetitorRepo(), &mockSSRFGuard{})

	toggled, err := svc.ToggleTarget(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("ToggleTarget がエラーを返した: %v", err)
	}
	if toggled.Status != model.TargetStatusActive {
		t.Errorf("Status = %q, want active", toggled.Status)
	}
	if toggled.ConsecutiveErrors != 0 {
		t.Errorf("ConsecutiveErrors = %d, want 0", toggled.ConsecutiveErrors)
	}
	if toggled.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", toggled.ErrorMessage)
	}
}

// 存在しないIDの切り替えがnilを返すことを検証
func TestToggleTarget_NotFound(t *testing.T) {
	svc := newTestService(newMockTargetRepo(), newMockCompetitorRepo(), &mockSSRFGuard{})

	toggled, err := svc.ToggleTarget(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ToggleTarget がエラーを返した: %v", err)
	}
	if toggled != nil {
		t.Error("存在しないIDの切り替えはnilを返すべき")
	}
}

// --- DeleteTarget のテスト ---

func TestDeleteTarget_ReturnsDeleted(t *testing.T) {
	targetRepo := newMockTargetRepo()
	targetRepo.targets["t-1"] = &model.ScrapeTarget{ID: "t-1"}
	svc := newTestService(targetRepo, newMockCompetitorRepo(), &mockSSRFGuard{})

	deleted, err := svc.DeleteTarget(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("DeleteTarget がエラーを返した: %v", err)
	}
	if !deleted {
		t.Error("存在するIDの削除はtrueを返すべき")
	}

	deleted, err = svc.DeleteTarget(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("DeleteTarget がエラーを返した: %v", err)
	}
	if deleted {
		t.Error("存在しないIDの削除はfalseを返すべき")
	}
}
