package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewSSRFGuard はSSRFGuardの生成をテストする。
func TestNewSSRFGuard(t *testing.T) {
	guard := NewSSRFGuard()
	if guard == nil {
		t.Fatal("NewSSRFGuard() returned nil")
	}
}

// TestNewSafeClient はSSRF防止付きHTTPクライアントの生成をテストする。
func TestNewSafeClient(t *testing.T) {
	guard := NewSSRFGuard()
	client := guard.NewSafeClient(10*time.Second, 2*1024*1024)
	if client == nil {
		t.Fatal("NewSafeClient() returned nil")
	}
}

// TestNewSafeClientTimeout はタイムアウト設定が反映されることをテストする。
func TestNewSafeClientTimeout(t *testing.T) {
	guard := NewSSRFGuard()
	timeout := 5 * time.Second
	client := guard.NewSafeClient(timeout, 2*1024*1024)
	if client.Timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, client.Timeout)
	}
}

// TestNewSafeClientBlocksLoopback はSafeClientがループバックへのリクエストをブロックすることをテストする。
// httptestサーバーは127.0.0.1で起動されるため、safeurlがブロックする。
func TestNewSafeClientBlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	guard := NewSSRFGuard()
	client := guard.NewSafeClient(5*time.Second, 2*1024*1024)

	_, err := client.Get(ts.URL)
	if err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

// TestValidateURL_PublicURL は公開URLの検証が成功することをテストする。
func TestValidateURL_PublicURL(t *testing.T) {
	guard := NewSSRFGuard()

	publicURLs := []string{
		"https://example.com",
		"https://newsapi.org/v2/everything?q=Acme",
		"http://careers.example.org/jobs",
	}

	for _, u := range publicURLs {
		t.Run(u, func(t *testing.T) {
			if err := guard.ValidateURL(u); err != nil {
				t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
			}
		})
	}
}

// TestValidateURL_BlockedURL は危険なURLの検証が失敗することをテストする。
func TestValidateURL_BlockedURL(t *testing.T) {
	guard := NewSSRFGuard()

	blockedURLs := []string{
		"",
		"ftp://example.com/data",
		"javascript:alert(1)",
		"http://localhost/admin",
		"http://127.0.0.1:8080/",
		"http://10.0.0.5/internal",
		"http://192.168.1.1/",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/",
	}

	for _, u := range blockedURLs {
		t.Run(u, func(t *testing.T) {
			if err := guard.ValidateURL(u); err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", u)
			}
		})
	}
}

// TestIsBlockedIP はブロック対象ネットワークの判定をテストする。
func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		host    string
		blocked bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.0.10", true},
		{"127.0.0.1", true},
		{"169.254.169.254", true},
		{"8.8.8.8", false},
		{"93.184.216.34", false},
	}

	guard := NewSSRFGuard()
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			err := guard.ValidateURL("http://" + tt.host + "/")
			if tt.blocked && err == nil {
				t.Errorf("expected %s to be blocked", tt.host)
			}
			if !tt.blocked && err != nil {
				t.Errorf("expected %s to be allowed, got %v", tt.host, err)
			}
		})
	}
}
