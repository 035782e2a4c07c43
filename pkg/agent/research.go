package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ignatij/goreport/pkg/llm"
	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/storage"
)

// maxPromptChars trims prompts before dispatch; small local models choke on
// very long inputs.
const maxPromptChars = 4000

// ResearchAgent gathers information on a topic. Gateway failures are
// absorbed into a degraded mock payload so research stays best-effort.
type ResearchAgent struct {
	*tracker
	llm   llm.Client
	model string
}

func NewResearchAgent(store storage.Store, client llm.Client, model string, logger Logger) *ResearchAgent {
	return &ResearchAgent{
		tracker: newTracker(
			"ResearchAgent",
			"Specializes in researching topics and gathering relevant information from various sources.",
			store, logger),
		llm:   client,
		model: model,
	}
}

func (a *ResearchAgent) Execute(ctx context.Context, input map[string]any) Result {
	topic, _ := input["topic"].(string)
	if topic == "" {
		return Failure(a.name, missingField(a.name, "topic"))
	}
	questions := toStringSlice(input["questions"])

	a.LogAction("Starting research",
		fmt.Sprintf("Researching topic: %s", topic),
		models.JSONMap{"topic": topic, "questions": questions})

	prompt := a.researchPrompt(topic, questions)
	status := "success"

	raw, err := a.llm.Generate(ctx, a.model, prompt)
	var findings map[string]any
	if err != nil {
		a.logger.Errorf("[%s] LLM call failed, degrading to mock findings: %v", a.name, err)
		status = "mock"
		findings = map[string]any{
			"overview":     "Research completed",
			"key_findings": []any{"Finding 1", "Finding 2"},
			"status":       "mock",
		}
	} else {
		findings = parseFindings(raw)
	}

	a.LogAction("Research completed",
		fmt.Sprintf("Successfully gathered information on %s", topic),
		models.JSONMap{"findings_count": countList(findings["key_findings"])})

	a.AddToMemory(map[string]any{"topic": topic, "findings": findings})

	return Success(a.name, map[string]any{
		"status":            status,
		"topic":             topic,
		"research_findings": findings,
		"agent":             a.name,
	})
}

func (a *ResearchAgent) researchPrompt(topic string, questions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert research assistant. Research the following topic thoroughly:

Topic: %s

Context from previous research: %s

Please provide:
1. Overview of the topic
2. Key findings and insights
3. Important statistics or data points
4. Current trends and developments
5. Potential challenges or considerations
`, topic, a.Context())

	if len(questions) > 0 {
		b.WriteString("\nSpecific questions to address:\n")
		for i, q := range questions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
	}
	b.WriteString("\nProvide the response in a structured JSON format.")
	return truncate(b.String(), maxPromptChars)
}

// parseFindings structures the raw LLM response. Non-JSON responses are
// wrapped into a minimal findings map instead of failing the agent.
func parseFindings(raw string) map[string]any {
	var findings map[string]any
	if err := json.Unmarshal([]byte(raw), &findings); err == nil && findings != nil {
		if _, ok := findings["status"]; !ok {
			findings["status"] = "completed"
		}
		return findings
	}
	return map[string]any{
		"overview":     truncate(raw, 500),
		"key_findings": []any{raw},
		"raw_response": raw,
		"status":       "completed",
	}
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

func countList(v any) int {
	switch vv := v.(type) {
	case []any:
		return len(vv)
	case []string:
		return len(vv)
	default:
		return 0
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
