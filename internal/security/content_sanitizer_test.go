package security

import (
	"strings"
	"testing"
)

// TestNewContentSanitizer はContentSanitizerの生成をテストする。
func TestNewContentSanitizer(t *testing.T) {
	sanitizer := NewContentSanitizer()
	if sanitizer == nil {
		t.Fatal("NewContentSanitizer() returned nil")
	}
}

// TestSanitize_RemovesScript はscriptタグが除去されることをテストする。
func TestSanitize_RemovesScript(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p>新製品を発表</p><script>alert('xss')</script>`
	got := sanitizer.Sanitize(input)

	if strings.Contains(got, "script") {
		t.Errorf("script tag should be removed: %q", got)
	}
	if !strings.Contains(got, "<p>新製品を発表</p>") {
		t.Errorf("allowed tag should be kept: %q", got)
	}
}

// TestSanitize_RemovesEventAttributes はon*イベント属性が除去されることをテストする。
func TestSanitize_RemovesEventAttributes(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p onclick="alert(1)">テキスト</p>`
	got := sanitizer.Sanitize(input)

	if strings.Contains(got, "onclick") {
		t.Errorf("onclick attribute should be removed: %q", got)
	}
}

// TestSanitize_ImgHTTPSOnly はimgのsrcがhttpsのみ許可されることをテストする。
func TestSanitize_ImgHTTPSOnly(t *testing.T) {
	sanitizer := NewContentSanitizer()

	httpsImg := `<img src="https://example.com/logo.png" alt="logo">`
	if got := sanitizer.Sanitize(httpsImg); !strings.Contains(got, "https://example.com/logo.png") {
		t.Errorf("https img src should be kept: %q", got)
	}

	jsImg := `<img src="javascript:alert(1)">`
	if got := sanitizer.Sanitize(jsImg); strings.Contains(got, "javascript") {
		t.Errorf("javascript img src should be removed: %q", got)
	}
}

// TestSanitize_AnchorRel はaタグにrel属性が付与されることをテストする。
func TestSanitize_AnchorRel(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<a href="https://example.com/news">ニュース</a>`
	got := sanitizer.Sanitize(input)

	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("rel attributes should be added: %q", got)
	}
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("target=_blank should be added: %q", got)
	}
}

// TestSanitize_Idempotent は同一入力に対して同一出力を返すことをテストする。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p>テキスト<script>x</script></p><img src="https://example.com/a.png">`
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize should be idempotent: %q != %q", first, second)
	}
}

// TestSanitize_EmptyInput は空文字列の入力に空文字列を返すことをテストする。
func TestSanitize_EmptyInput(t *testing.T) {
	sanitizer := NewContentSanitizer()
	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}
}

// TestPlainText_StripsAllTags は全タグが除去されテキストのみが残ることをテストする。
func TestPlainText_StripsAllTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `  <h1>見出し</h1><p>本文<strong>強調</strong></p><script>alert(1)</script>  `
	got := sanitizer.PlainText(input)

	if strings.Contains(got, "<") {
		t.Errorf("PlainText should strip all tags: %q", got)
	}
	if !strings.Contains(got, "見出し") || !strings.Contains(got, "強調") {
		t.Errorf("PlainText should keep text content: %q", got)
	}
	if got != strings.TrimSpace(got) {
		t.Errorf("PlainText should trim whitespace: %q", got)
	}
}
