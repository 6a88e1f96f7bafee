package scraper

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Ampersand-AI/chiper/internal/catalog"
	"github.com/Ampersand-AI/chiper/internal/model"
)

// sentiments はモック生成時に擬似ランダムで選ぶ論調の候補。
var sentiments = []model.Sentiment{
	model.SentimentPositive,
	model.SentimentNegative,
	model.SentimentNeutral,
}

// impacts はモック生成時に擬似ランダムで選ぶ影響度の候補。
var impacts = []model.Impact{
	model.ImpactHigh,
	model.ImpactMedium,
	model.ImpactLow,
}

// patentPayload は特許カテゴリのモックペイロード。
type patentPayload struct {
	PatentTitle string `json:"patent_title"`
	PatentDate  string `json:"patent_date"`
	Assignee    string `json:"assignee"`
}

// newsPayload はニュースカテゴリのモックペイロード。
type newsPayload struct {
	Headline    string `json:"headline"`
	Publication string `json:"publication"`
	PublishedAt string `json:"published_at"`
}

// jobsPayload は求人カテゴリのモックペイロード。
type jobsPayload struct {
	Position  string `json:"position"`
	Location  string `json:"location"`
	OpenRoles int    `json:"open_roles"`
}

// socialPayload はソーシャルカテゴリのモックペイロード。
type socialPayload struct {
	Platform     string `json:"platform"`
	MentionCount int    `json:"mention_count"`
	TopComment   string `json:"top_comment"`
}

// genericPayload はその他カテゴリのモックペイロード。
type genericPayload struct {
	Summary   string `json:"summary"`
	SourceURL string `json:"source_url"`
}

// buildMockInsights はカテゴリ別のモックインサイトを合成する。
// APIキー未設定時や外部取得の失敗時のフォールバックとして使用される。
// 永続化は行わない（呼び出し元の責務）。
func buildMockInsights(source *catalog.Source, competitorID, competitorName string) []*model.Insight {
	now := time.Now()
	insightType := catalog.InsightType(source.Category)

	var title, description string
	var payload any

	switch source.Category {
	case "patents":
		title = fmt.Sprintf("%s Files New Patent Application", competitorName)
		description = fmt.Sprintf("%s has filed a patent application related to their core technology stack.", competitorName)
		payload = patentPayload{
			PatentTitle: fmt.Sprintf("System and method for %s data processing", catalog.Slugify(competitorName)),
			PatentDate:  now.Format("2006-01-02"),
			Assignee:    competitorName,
		}
	case "news":
		title = fmt.Sprintf("%s Featured in Industry News", competitorName)
		description = fmt.Sprintf("Recent media coverage mentions %s in the context of market expansion.", competitorName)
		payload = newsPayload{
			Headline:    fmt.Sprintf("%s announces strategic initiative", competitorName),
			Publication: "Industry Daily",
			PublishedAt: now.Format(time.RFC3339),
		}
	case "jobs":
		title = fmt.Sprintf("%s Expands Engineering Team", competitorName)
		description = fmt.Sprintf("%s has posted new openings suggesting investment in product development.", competitorName)
		payload = jobsPayload{
			Position:  "Senior Software Engineer",
			Location:  "Remote",
			OpenRoles: 1 + rand.Intn(20),
		}
	case "social":
		title = fmt.Sprintf("Social Media Buzz Around %s", competitorName)
		description = fmt.Sprintf("Community discussion volume about %s has shifted noticeably this week.", competitorName)
		payload = socialPayload{
			Platform:     "Reddit",
			MentionCount: rand.Intn(500),
			TopComment:   fmt.Sprintf("Has anyone tried %s's latest release?", competitorName),
		}
	default:
		title = fmt.Sprintf("New insight from %s", source.Title)
		description = fmt.Sprintf("Scraped content from %s", source.ExpandURL(competitorName))
		payload = genericPayload{
			Summary:   fmt.Sprintf("Automated finding about %s", competitorName),
			SourceURL: source.ExpandURL(competitorName),
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}

	return []*model.Insight{
		{
			ID:           uuid.New().String(),
			CompetitorID: competitorID,
			Type:         insightType,
			Title:        title,
			Description:  description,
			Source:       source.Title,
			Date:         now,
			Sentiment:    sentiments[rand.Intn(len(sentiments))],
			Impact:       impacts[rand.Intn(len(impacts))],
			RawPayload:   raw,
		},
	}
}

// cannedAnalysisSummary はAPIキー未設定時の定型分析サマリーを生成する。
func cannedAnalysisSummary(competitorName string, insightCount int) string {
	return fmt.Sprintf(
		"Based on %d collected insights, %s shows steady activity across product and market fronts. "+
			"Configure an API key in settings to enable AI-powered strategy analysis.",
		insightCount, competitorName,
	)
}

// cannedReport はレポート生成失敗時の定型レポート内容を返す。
func cannedReport(analysis *model.InsightAnalysis, competitorName string) parsedReport {
	return parsedReport{
		Overview: fmt.Sprintf(
			"%s remains an active competitor. %s", competitorName, analysis.Summary),
		KeyMoves: []string{
			"Continued product development activity",
			"Ongoing market presence in core segments",
		},
		ThreatLevel: analysis.ThreatLevel,
		Opportunities: []string{
			"Monitor upcoming releases for differentiation gaps",
		},
	}
}

// scraperCodeTemplate はコード生成失敗時の固定テンプレート。
const scraperCodeTemplate = `package scraper

import (
	"fmt"
	"io"
	"net/http"
)

// Scrape は対象URLからコンテンツを取得する。
// 生成に失敗したため、汎用のテンプレート実装が使用されています。
func Scrape(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}
	return string(body), nil
}
`
