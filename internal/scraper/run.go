package scraper

import (
	"github.com/Ampersand-AI/chiper/internal/model"
)

// Phase はパイプライン実行の進行状態を表す。
// 遷移: idle → fetching → (fetched | fetch_failed)
//
//	fetched → analyzing → (analyzed | analysis_failed)
//	analyzed → reporting → (reported | report_failed)
//
// *_failedは当該実行において終端状態であり、自動リトライは行わない。
// 再実行は対応する操作の再呼び出しによって行われる。
type Phase string

const (
	// PhaseIdle は実行前の初期状態。
	PhaseIdle Phase = "idle"
	// PhaseFetching はインサイト取得中。
	PhaseFetching Phase = "fetching"
	// PhaseFetched はインサイト取得完了。
	PhaseFetched Phase = "fetched"
	// PhaseFetchFailed はインサイト取得失敗（終端）。
	PhaseFetchFailed Phase = "fetch_failed"
	// PhaseAnalyzing は分析中。
	PhaseAnalyzing Phase = "analyzing"
	// PhaseAnalyzed は分析完了。
	PhaseAnalyzed Phase = "analyzed"
	// PhaseAnalysisFailed は分析失敗（終端）。
	PhaseAnalysisFailed Phase = "analysis_failed"
	// PhaseReporting はレポート生成中。
	PhaseReporting Phase = "reporting"
	// PhaseReported はレポート生成完了（正常終端）。
	PhaseReported Phase = "reported"
	// PhaseReportFailed はレポート生成失敗（終端）。
	PhaseReportFailed Phase = "report_failed"
)

// PipelineResult は1回のパイプライン実行の結果を保持する。
// Phasesは遷移履歴で、先頭は常にidle、末尾は終端状態となる。
type PipelineResult struct {
	Phases   []Phase
	Insights []*model.Insight
	Analysis *model.InsightAnalysis
	Report   *model.InsightReport
}

// CurrentPhase は最後に記録された状態を返す。
func (r *PipelineResult) CurrentPhase() Phase {
	if len(r.Phases) == 0 {
		return PhaseIdle
	}
	return r.Phases[len(r.Phases)-1]
}

// record は状態遷移を履歴に追記する。
func (r *PipelineResult) record(p Phase) {
	r.Phases = append(r.Phases, p)
}
