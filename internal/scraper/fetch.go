package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/Ampersand-AI/chiper/internal/catalog"
	"github.com/Ampersand-AI/chiper/internal/security"
)

// maxRSSItems はRSSソースから取り込む最大記事数。
const maxRSSItems = 5

// fetchedItem は外部ソースから取得した1件の生データ。
type fetchedItem struct {
	Title   string
	Content string
	Link    string
}

// Fetcher はカタログソースからの実データ取得を行う。
// GETソースはSSRF防止付きクライアントで取得し、HTMLはテキストへ変換する。
// RSSソースはgofeedでパースして記事単位に分解する。
type Fetcher struct {
	ssrfGuard security.SSRFGuardService
	sanitizer security.ContentSanitizerService
	timeout   time.Duration
	maxSize   int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	ssrfGuard security.SSRFGuardService,
	sanitizer security.ContentSanitizerService,
	timeout time.Duration,
	maxSize int64,
) *Fetcher {
	return &Fetcher{
		ssrfGuard: ssrfGuard,
		sanitizer: sanitizer,
		timeout:   timeout,
		maxSize:   maxSize,
	}
}

// Fetch はソースのURLテンプレートを展開して実データを取得する。
// 取得・パースのいずれかに失敗した場合はエラーを返す
// （呼び出し元がモックペイロードへフォールバックする）。
func (f *Fetcher) Fetch(ctx context.Context, source *catalog.Source, competitorName string) ([]fetchedItem, error) {
	targetURL := source.ExpandURL(competitorName)

	if err := f.ssrfGuard.ValidateURL(targetURL); err != nil {
		return nil, fmt.Errorf("URLの事前検証に失敗しました: %w", err)
	}

	body, contentType, err := f.get(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	if source.Method == catalog.MethodRSS {
		return f.parseRSS(body)
	}

	return f.parseBody(body, contentType, targetURL)
}

// get は対象URLをSSRF防止付きクライアントで取得する。
// レスポンスボディはmaxSizeで打ち切られる。
func (f *Fetcher) get(ctx context.Context, targetURL string) (string, string, error) {
	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Chiper/1.0 Competitor Intelligence")
	req.Header.Set("Accept", "application/json, application/rss+xml, application/xml, text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("外部ソースの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("外部ソースがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize))
	if err != nil {
		return "", "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return string(body), resp.Header.Get("Content-Type"), nil
}

// parseRSS はRSSフィードを記事単位のfetchedItemに分解する。
func (f *Fetcher) parseRSS(body string) ([]fetchedItem, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("RSSフィードのパースに失敗しました: %w", err)
	}

	var items []fetchedItem
	for i, item := range feed.Items {
		if i >= maxRSSItems {
			break
		}
		content := item.Description
		if content == "" {
			content = item.Content
		}
		items = append(items, fetchedItem{
			Title:   f.sanitizer.PlainText(item.Title),
			Content: f.sanitizer.PlainText(content),
			Link:    item.Link,
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("RSSフィードに記事が含まれていません")
	}

	return items, nil
}

// parseBody はGETレスポンスをテキストに正規化して1件のfetchedItemに包む。
// HTMLはトークナイザでテキスト抽出し、それ以外（JSON等）はそのまま扱う。
func (f *Fetcher) parseBody(body, contentType, targetURL string) ([]fetchedItem, error) {
	text := body
	if strings.Contains(strings.ToLower(contentType), "html") {
		text = extractText(body)
	}

	text = f.sanitizer.PlainText(text)
	if text == "" {
		return nil, fmt.Errorf("取得したコンテンツが空です")
	}

	// LLMプロンプトに収まる長さに丸める
	const maxTextLen = 8000
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}

	return []fetchedItem{
		{
			Title:   extractTitle(body),
			Content: text,
			Link:    targetURL,
		},
	}, nil
}

// skipElements はテキスト抽出時に中身を無視するHTML要素。
var skipElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"nav":    true,
}

// extractText はHTMLからテキストコンテンツのみを抽出する。
func extractText(htmlBody string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlBody))
	var b strings.Builder
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())

		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if skipElements[string(tn)] {
				skipDepth++
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if skipElements[string(tn)] && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text != "" {
				b.WriteString(text)
				b.WriteByte(' ')
			}
		}
	}
}

// extractTitle はHTMLのtitle要素の中身を返す。見つからない場合は空文字列。
func extractTitle(htmlBody string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlBody))
	inTitle := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""

		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				return ""
			}

		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		}
	}
}
