package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ignatij/goreport/pkg/llm"
	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/storage"
)

const maxRecommendations = 5

// AnalysisAgent turns research findings into insights and recommendations.
type AnalysisAgent struct {
	*tracker
	llm   llm.Client
	model string
}

func NewAnalysisAgent(store storage.Store, client llm.Client, model string, logger Logger) *AnalysisAgent {
	return &AnalysisAgent{
		tracker: newTracker(
			"AnalysisAgent",
			"Specializes in analyzing information and extracting actionable insights.",
			store, logger),
		llm:   client,
		model: model,
	}
}

func (a *AnalysisAgent) Execute(ctx context.Context, input map[string]any) Result {
	research, _ := input["research_findings"].(map[string]any)
	if len(research) == 0 {
		return Failure(a.name, missingField(a.name, "research_findings"))
	}
	analysisType, _ := input["analysis_type"].(string)
	if analysisType == "" {
		analysisType = "comprehensive"
	}

	a.LogAction("Starting analysis",
		fmt.Sprintf("Analyzing data with %s approach", analysisType),
		models.JSONMap{"data_size": len(fmt.Sprint(research))})

	prompt := a.analysisPrompt(research, analysisType)
	status := "success"

	raw, err := a.llm.Generate(ctx, a.model, prompt)
	var results map[string]any
	if err != nil {
		a.logger.Errorf("[%s] LLM call failed, degrading to mock analysis: %v", a.name, err)
		status = "mock"
		results = map[string]any{
			"patterns": []any{"Mock pattern"},
			"insights": []any{"Mock insight"},
			"status":   "mock",
		}
	} else {
		results = parseAnalysis(raw)
	}

	insights := extractInsights(results)
	recommendations := recommend(insights)

	a.LogAction("Analysis completed",
		fmt.Sprintf("Generated %d key insights", len(insights)),
		models.JSONMap{"insights_count": len(insights)})

	a.AddToMemory(map[string]any{"analysis_type": analysisType, "insights": insights})

	return Success(a.name, map[string]any{
		"status":           status,
		"analysis_results": results,
		"insights":         insights,
		"recommendations":  recommendations,
		"agent":            a.name,
	})
}

func (a *AnalysisAgent) analysisPrompt(research map[string]any, analysisType string) string {
	data, err := json.MarshalIndent(research, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprint(research))
	}
	prompt := fmt.Sprintf(`You are an expert data analyst. Analyze the following information:

Data: %s

Analysis Type: %s

Please provide:
1. Key patterns and trends
2. Critical insights
3. Potential opportunities
4. Risk factors or concerns
5. Data quality assessment

Context from previous analyses: %s

Provide a structured analysis with clear, actionable insights.`, data, analysisType, a.Context())
	return truncate(prompt, maxPromptChars)
}

func parseAnalysis(raw string) map[string]any {
	var results map[string]any
	if err := json.Unmarshal([]byte(raw), &results); err == nil && results != nil {
		return results
	}
	return map[string]any{
		"raw_analysis": raw,
		"patterns":     []any{},
		"insights":     []any{raw},
	}
}

// extractInsights scans the analysis keys for insight/finding markers and
// structures each hit. Keys are walked in sorted order so the output is
// deterministic.
func extractInsights(analysis map[string]any) []map[string]any {
	keys := make([]string, 0, len(analysis))
	for k := range analysis {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	insights := []map[string]any{}
	for _, k := range keys {
		lower := strings.ToLower(k)
		if !strings.Contains(lower, "insight") && !strings.Contains(lower, "finding") {
			continue
		}
		insights = append(insights, map[string]any{
			"type":        k,
			"description": fmt.Sprint(analysis[k]),
			"importance":  "high",
		})
	}
	return insights
}

// recommend derives recommendations from at most the first 5 insights.
func recommend(insights []map[string]any) []string {
	recommendations := []string{}
	for i, insight := range insights {
		if i >= maxRecommendations {
			break
		}
		recommendations = append(recommendations,
			fmt.Sprintf("Based on %v: Consider %v", insight["type"], insight["description"]))
	}
	return recommendations
}
