package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ignatij/goreport/pkg/llm"
	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/storage"
)

const (
	summaryInputChars  = 1500
	reportFailureText  = "Report generation failed."
	summaryFailureText = "Executive summary: Report completed successfully."
)

// ReportWriterAgent assembles research and analysis output into a formatted
// report with an executive summary. Gateway failures degrade the body and
// summary to fixed placeholders; the same absorbed policy applies to both
// LLM calls this agent makes.
type ReportWriterAgent struct {
	*tracker
	llm   llm.Client
	model string
}

func NewReportWriterAgent(store storage.Store, client llm.Client, model string, logger Logger) *ReportWriterAgent {
	return &ReportWriterAgent{
		tracker: newTracker(
			"ReportWriterAgent",
			"Specializes in creating well-structured, professional reports.",
			store, logger),
		llm:   client,
		model: model,
	}
}

func (a *ReportWriterAgent) Execute(ctx context.Context, input map[string]any) Result {
	research, _ := input["research_findings"].(map[string]any)
	analysis, _ := input["analysis_results"].(map[string]any)
	if len(research) == 0 && len(analysis) == 0 {
		return Failure(a.name, &InputError{
			Agent: a.name,
			Msg:   "requires research findings or analysis results",
		})
	}
	reportType, _ := input["report_type"].(string)
	if reportType == "" {
		reportType = "executive_summary"
	}
	audience, _ := input["target_audience"].(string)
	if audience == "" {
		audience = "general"
	}

	a.LogAction("Creating report",
		fmt.Sprintf("Generating %s for %s audience", reportType, audience),
		models.JSONMap{"report_type": reportType})

	prompt := a.reportPrompt(research, analysis, reportType, audience)
	status := "success"

	body, err := a.llm.Generate(ctx, a.model, prompt)
	if err != nil {
		a.logger.Errorf("[%s] LLM call failed, degrading report body: %v", a.name, err)
		status = "mock"
		body = reportFailureText
	}

	formatted := formatReport(body, reportType, audience)
	summary := a.executiveSummary(ctx, formatted)

	wordCount := len(strings.Fields(formatted))
	a.LogAction("Report completed",
		fmt.Sprintf("Successfully generated %s report", reportType),
		models.JSONMap{"word_count": wordCount})

	a.AddToMemory(map[string]any{"report_type": reportType, "summary": summary})

	return Success(a.name, map[string]any{
		"status":            status,
		"report":            formatted,
		"executive_summary": summary,
		"metadata": map[string]any{
			"created_at":      time.Now().UTC().Format(time.RFC3339),
			"report_type":     reportType,
			"target_audience": audience,
			"word_count":      wordCount,
		},
		"agent": a.name,
	})
}

func (a *ReportWriterAgent) reportPrompt(research, analysis map[string]any, reportType, audience string) string {
	researchJSON, err := json.MarshalIndent(research, "", "  ")
	if err != nil {
		researchJSON = []byte(fmt.Sprint(research))
	}
	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		analysisJSON = []byte(fmt.Sprint(analysis))
	}
	prompt := fmt.Sprintf(`You are a professional report writer. Create a %s report.

Research Findings:
%s

Analysis Results:
%s

Target Audience: %s
Report Type: %s

Previous reports context: %s

Please create a well-structured report that includes:
1. Executive Summary
2. Key Findings
3. Detailed Analysis
4. Recommendations
5. Conclusion

The report should be:
- Clear and concise
- Professional in tone
- Appropriate for the %s audience
- Well-organized with proper headings
- Include data-driven insights`,
		reportType, researchJSON, analysisJSON, audience, reportType, a.Context(), audience)
	return truncate(prompt, maxPromptChars)
}

// executiveSummary asks the backend for a ~200 word summary over the start
// of the report body. Failures degrade to a fixed placeholder.
func (a *ReportWriterAgent) executiveSummary(ctx context.Context, report string) string {
	prompt := fmt.Sprintf(`Create a concise executive summary (max 200 words) for this report:

%s

Focus on the most critical findings and recommendations.`, truncate(report, summaryInputChars))

	summary, err := a.llm.Generate(ctx, a.model, prompt)
	if err != nil {
		a.logger.Errorf("[%s] Executive summary generation failed: %v", a.name, err)
		return summaryFailureText
	}
	return summary
}

func formatReport(content, reportType, audience string) string {
	return fmt.Sprintf(`# %s Report

**Generated on:** %s
**Target Audience:** %s

---

%s

---

*This report was generated by GoReport*
`,
		titleCase(strings.ReplaceAll(reportType, "_", " ")),
		time.Now().UTC().Format("2006-01-02 15:04 UTC"),
		titleCase(audience),
		content)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
