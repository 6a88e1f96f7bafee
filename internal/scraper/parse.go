package scraper

import (
	"strings"

	"github.com/Ampersand-AI/chiper/internal/model"
)

// extractSection は見出しベースのテキストマッチングでセクション本文を抽出する。
// 「## 見出し」「見出し:」「**見出し**」の形式に対応し、
// 次の見出しまたはテキスト終端までを本文として返す。
// 見出しが見つからない場合は空文字列を返す。
func extractSection(text, heading string) string {
	lines := strings.Split(text, "\n")
	var body []string
	inSection := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if isHeadingLine(trimmed, heading) {
			inSection = true
			// 「見出し: 本文」形式は同一行に本文を持つ
			if idx := strings.Index(trimmed, ":"); idx >= 0 {
				rest := strings.TrimSpace(trimmed[idx+1:])
				if rest != "" {
					body = append(body, rest)
				}
			}
			continue
		}

		if inSection {
			if isAnyHeadingLine(trimmed) {
				break
			}
			body = append(body, trimmed)
		}
	}

	return strings.TrimSpace(strings.Join(body, "\n"))
}

// isHeadingLine は行が指定見出しの見出し行かを判定する。
// 「## 見出し」「**見出し**」「見出し: 本文」の形式を見出し行として扱う。
func isHeadingLine(line, heading string) bool {
	normalized := strings.ToLower(strings.Trim(line, "#* "))
	h := strings.ToLower(heading)
	if strings.Trim(normalized, ":") == h {
		return true
	}
	return strings.HasPrefix(normalized, h+":")
}

// isAnyHeadingLine は行が何らかの見出し行かを判定する。
func isAnyHeadingLine(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	// **見出し** 形式（行全体が強調のみ）
	if strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4 {
		return true
	}
	return false
}

// parseBullets はセクション本文から「- 」プレフィックスの箇条書きを抽出する。
func parseBullets(section string) []string {
	var bullets []string
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") {
			item := strings.TrimSpace(strings.TrimPrefix(trimmed, "- "))
			if item != "" {
				bullets = append(bullets, item)
			}
		} else if strings.HasPrefix(trimmed, "* ") {
			item := strings.TrimSpace(strings.TrimPrefix(trimmed, "* "))
			if item != "" {
				bullets = append(bullets, item)
			}
		}
	}
	return bullets
}

// deriveThreatLevel はサマリーテキストのキーワード探索で脅威度を導出する。
// "high threat"/"severe"/"critical" → high、"medium"/"moderate" → medium、
// それ以外 → low。
func deriveThreatLevel(summary string) model.ThreatLevel {
	lower := strings.ToLower(summary)

	for _, kw := range []string{"high threat", "severe", "critical"} {
		if strings.Contains(lower, kw) {
			return model.ThreatLevelHigh
		}
	}
	for _, kw := range []string{"medium", "moderate"} {
		if strings.Contains(lower, kw) {
			return model.ThreatLevelMedium
		}
	}
	return model.ThreatLevelLow
}

// parsedReport はMarkdownレポートのパース結果。
type parsedReport struct {
	Overview      string
	KeyMoves      []string
	ThreatLevel   model.ThreatLevel
	Opportunities []string
}

// parseReportMarkdown は4セクション構成のMarkdownレポートを構造化フィールドに変換する。
// Overviewセクションが抽出できない場合はパース失敗としてfalseを返す
// （呼び出し元が定型文フォールバックを適用する）。
func parseReportMarkdown(text string) (parsedReport, bool) {
	overview := extractSection(text, "Overview")
	if overview == "" {
		return parsedReport{}, false
	}

	report := parsedReport{
		Overview:      overview,
		KeyMoves:      parseBullets(extractSection(text, "Key Moves")),
		ThreatLevel:   deriveThreatLevel(extractSection(text, "Threat Level")),
		Opportunities: parseBullets(extractSection(text, "Opportunities")),
	}

	return report, true
}
