// Package llm はチャット補完APIのクライアントを提供する。
// OpenRouter互換のエンドポイントに対してモデル指定付きのメッセージ列を送信し、
// 応答テキストを取得する。分析・レポート生成・スクレイパーコード生成で使用される。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Message はチャット補完APIに送信する1メッセージ。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest はチャット補完APIのリクエストボディ。
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// chatResponse はチャット補完APIのレスポンスボディ。
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ClientService はチャット補完クライアントのインターフェースを定義する。
type ClientService interface {
	// ChatCompletion はモデルとメッセージ列を指定してチャット補完を実行し、
	// 先頭choiceの応答テキストを返す。apiKeyが空の場合はエラーを返す。
	ChatCompletion(ctx context.Context, apiKey, model string, messages []Message) (string, error)

	// AnalyzeStrategy はインサイト群のテキストから競合戦略の分析を生成する。
	AnalyzeStrategy(ctx context.Context, apiKey, competitorData string) (string, error)

	// SummarizeFindings はスクレイプ結果のテキストから構造化された要約を生成する。
	SummarizeFindings(ctx context.Context, apiKey, scrapedContent string) (string, error)

	// FormatReport は分析結果から4セクション構成のMarkdownレポートを生成する。
	FormatReport(ctx context.Context, apiKey, analysisText string) (string, error)

	// GenerateScraperCode は指定URL向けのスクレイピングコードを生成する。
	GenerateScraperCode(ctx context.Context, apiKey, targetURL string) (string, error)
}

// Client はOpenRouter互換チャット補完APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
	model      string // 分析・要約・レポート生成用モデル
	coderModel string // コード生成用モデル
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, model, coderModel string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		model:      model,
		coderModel: coderModel,
	}
}

// ChatCompletion はチャット補完を実行して応答テキストを返す。
func (c *Client) ChatCompletion(ctx context.Context, apiKey, model string, messages []Message) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("APIキーが設定されていません")
	}

	body, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("リクエストボディのJSON変換に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("チャット補完APIの呼び出しに失敗しました",
			slog.String("model", model),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("チャット補完APIがエラーステータスを返しました",
			slog.String("model", model),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("チャット補完APIがステータス %d を返しました", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		c.logger.Error("チャット補完APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("チャット補完APIの応答にchoiceが含まれていません")
	}

	return result.Choices[0].Message.Content, nil
}

// AnalyzeStrategy はインサイト群のテキストから競合戦略の分析を生成する。
func (c *Client) AnalyzeStrategy(ctx context.Context, apiKey, competitorData string) (string, error) {
	return c.ChatCompletion(ctx, apiKey, c.model, []Message{
		{Role: "system", Content: "You are a competitive strategy expert."},
		{Role: "user", Content: "Analyze this content from a competitor and highlight positioning, gaps, and market moves:\n\n" + competitorData},
	})
}

// SummarizeFindings はスクレイプ結果のテキストから構造化された要約を生成する。
func (c *Client) SummarizeFindings(ctx context.Context, apiKey, scrapedContent string) (string, error) {
	return c.ChatCompletion(ctx, apiKey, c.model, []Message{
		{Role: "system", Content: "You are an expert at extracting structured info from messy web text."},
		{Role: "user", Content: "Extract pricing, features, product names and summarize the key findings:\n\n" + scrapedContent},
	})
}

// FormatReport は分析結果から4セクション構成のMarkdownレポートを生成する。
// セクションはOverview、Key Moves、Threat Level、Opportunitiesの見出しを持ち、
// Key MovesとOpportunitiesは箇条書きで出力させる。
func (c *Client) FormatReport(ctx context.Context, apiKey, analysisText string) (string, error) {
	return c.ChatCompletion(ctx, apiKey, c.model, []Message{
		{Role: "system", Content: "You are a competitive intelligence analyst writing concise executive reports."},
		{Role: "user", Content: "Format the following analysis as a markdown report with exactly these sections: " +
			"'## Overview' (one paragraph), '## Key Moves' (bullet list), " +
			"'## Threat Level' (one of: high, medium, low, with reasoning), " +
			"'## Opportunities' (bullet list).\n\n" + analysisText},
	})
}

// GenerateScraperCode は指定URL向けのスクレイピングコードを生成する。
func (c *Client) GenerateScraperCode(ctx context.Context, apiKey, targetURL string) (string, error) {
	return c.ChatCompletion(ctx, apiKey, c.coderModel, []Message{
		{Role: "system", Content: "You are an expert web scraper that generates reliable scraping code."},
		{Role: "user", Content: fmt.Sprintf("Generate a Go function that can scrape content from %s. The code should be resilient to website structure changes.", targetURL)},
	})
}

// compile-time interface check
var _ ClientService = (*Client)(nil)
