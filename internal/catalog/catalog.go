// Package catalog は外部データプロバイダーの静的カタログを提供する。
// カタログは実行時に読み取り専用で、ユーザーによる追加・変更はできない。
package catalog

import (
	"net/url"
	"strings"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// Method はAPIソースの取得方式を表す。
type Method string

const (
	// MethodGET はHTTP GETによる取得方式。
	MethodGET Method = "GET"
	// MethodRSS はRSSフィードによる取得方式。
	MethodRSS Method = "RSS"
)

// Source は外部データプロバイダーのエンドポイント記述子を表す。
// URLテンプレートは <COMPETITOR_NAME> 形式のプレースホルダーを含む。
type Source struct {
	ID          int
	Title       string
	Description string
	Method      Method
	APIURL      string
	RSSURL      string
	Params      map[string]string
	RequiresKey bool
	Category    string
}

// CategoryAll は全カテゴリを意味するフィルタ値。
const CategoryAll = "all"

// sources は組み込みのAPIソースカタログ（10件）。
var sources = []Source{
	{
		ID:          1,
		Title:       "PatentsView API",
		Description: "Fetch recent patent filings for a given competitor",
		Method:      MethodGET,
		APIURL:      "https://search.patentsview.org/api/v1/patents/query",
		Params: map[string]string{
			"q": `{"assignee_organization":"<COMPETITOR_NAME>"}`,
			"f": `["patent_title","patent_date"]`,
		},
		RequiresKey: false,
		Category:    "patents",
	},
	{
		ID:          2,
		Title:       "NewsAPI (Media Mentions)",
		Description: "Pull news articles mentioning competitors",
		Method:      MethodGET,
		APIURL:      "https://newsapi.org/v2/everything",
		Params: map[string]string{
			"q": "<COMPETITOR_NAME>",
		},
		RequiresKey: true,
		Category:    "news",
	},
	{
		ID:          3,
		Title:       "RemoteOK Jobs API",
		Description: "Monitor remote hiring trends in startups",
		Method:      MethodGET,
		APIURL:      "https://remoteok.com/api",
		RequiresKey: false,
		Category:    "jobs",
	},
	{
		ID:          4,
		Title:       "Reddit via Pushshift",
		Description: "Monitor Reddit comments about a competitor",
		Method:      MethodGET,
		APIURL:      "https://api.pushshift.io/reddit/search/comment/",
		Params: map[string]string{
			"q": "<COMPETITOR_NAME>",
		},
		RequiresKey: false,
		Category:    "social",
	},
	{
		ID:          5,
		Title:       "OpenCorporates Company Search",
		Description: "Retrieve basic registration and legal data about companies",
		Method:      MethodGET,
		APIURL:      "https://api.opencorporates.com/v0.4/companies/search",
		Params: map[string]string{
			"q": "<COMPETITOR_NAME>",
		},
		RequiresKey: false,
		Category:    "company",
	},
	{
		ID:          6,
		Title:       "GlobeNewswire RSS Parser",
		Description: "Parse press releases for strategic updates",
		Method:      MethodRSS,
		RSSURL:      "https://www.globenewswire.com/rss-feed/organization/<COMPETITOR>.xml",
		RequiresKey: false,
		Category:    "pr",
	},
	{
		ID:          7,
		Title:       "SEC EDGAR API (Filings)",
		Description: "Retrieve public company filings (e.g., 10-K, S-1)",
		Method:      MethodGET,
		APIURL:      "https://data.sec.gov/submissions/<CIK_ID>.json",
		RequiresKey: false,
		Category:    "financial",
	},
	{
		ID:          8,
		Title:       "GitHub Public Repos",
		Description: "Track open-source activities of competitor teams",
		Method:      MethodGET,
		APIURL:      "https://api.github.com/users/<GITHUB_USERNAME>/repos",
		RequiresKey: false,
		Category:    "opensource",
	},
	{
		ID:          9,
		Title:       "CoinGecko API",
		Description: "Retrieve project token data for crypto/web3 competitors",
		Method:      MethodGET,
		APIURL:      "https://api.coingecko.com/api/v3/coins/<COMPETITOR>",
		RequiresKey: false,
		Category:    "crypto",
	},
	{
		ID:          10,
		Title:       "World Bank Economic Indicators",
		Description: "Retrieve macroeconomic and industry indicators",
		Method:      MethodGET,
		APIURL:      "https://api.worldbank.org/v2/country/<COUNTRY>/indicator/<INDICATOR>?format=json",
		RequiresKey: false,
		Category:    "economic",
	},
}

// Sources は全APIソースのコピーを返す。
func Sources() []Source {
	out := make([]Source, len(sources))
	copy(out, sources)
	return out
}

// ByCategory は指定カテゴリのAPIソースを返す。
// 空文字列または "all" の場合は全件を返す。
func ByCategory(category string) []Source {
	if category == "" || category == CategoryAll {
		return Sources()
	}
	var out []Source
	for _, s := range sources {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// ByID は指定IDのAPIソースを返す。見つからない場合はnilを返す。
func ByID(id int) *Source {
	for _, s := range sources {
		if s.ID == id {
			src := s
			return &src
		}
	}
	return nil
}

// ExpandURL はソースのURLテンプレートに競合企業名を展開した完全なURLを返す。
// <COMPETITOR_NAME> は社名そのまま、<COMPETITOR>/<GITHUB_USERNAME> は
// 小文字・空白除去したスラッグで置換する。paramsはクエリ文字列として付与される。
func (s *Source) ExpandURL(competitorName string) string {
	base := s.APIURL
	if s.Method == MethodRSS {
		base = s.RSSURL
	}

	slug := Slugify(competitorName)
	expanded := strings.NewReplacer(
		"<COMPETITOR_NAME>", competitorName,
		"<COMPETITOR>", slug,
		"<GITHUB_USERNAME>", slug,
	).Replace(base)

	if len(s.Params) == 0 {
		return expanded
	}

	q := url.Values{}
	for k, v := range s.Params {
		q.Set(k, strings.ReplaceAll(v, "<COMPETITOR_NAME>", competitorName))
	}

	sep := "?"
	if strings.Contains(expanded, "?") {
		sep = "&"
	}
	return expanded + sep + q.Encode()
}

// InsightType はソースカテゴリを対応するインサイトタイプに変換する。
// jobsカテゴリはhiring、prカテゴリはnewsというように、
// ソースの性質に沿った閉じた列挙値へ写像する。
func InsightType(category string) model.InsightType {
	switch category {
	case "patents":
		return model.InsightTypePatent
	case "news", "pr":
		return model.InsightTypeNews
	case "jobs":
		return model.InsightTypeHiring
	case "social":
		return model.InsightTypeSocial
	case "company":
		return model.InsightTypeExpansion
	case "opensource":
		return model.InsightTypeOpenSource
	case "financial", "crypto", "economic":
		return model.InsightTypeFinancial
	default:
		return model.InsightTypeNews
	}
}

// Slugify は社名をURLセグメント向けのスラッグに変換する。
// 小文字化し、空白をハイフンに置き換え、URLに不適な文字を除去する。
func Slugify(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
