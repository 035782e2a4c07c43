package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ignatij/goreport/pkg/llm"
	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/storage"
)

type logger struct{}

func (l logger) Infof(format string, args ...interface{}) {
	// no-op
}

func (l logger) Errorf(format string, args ...interface{}) {
	// no-op
}

// fakeGateway returns canned responses or errors and records prompts.
type fakeGateway struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGateway) Generate(ctx context.Context, model, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

// failingLogStore rejects agent log writes to exercise best-effort logging.
type failingLogStore struct {
	storage.Store
}

func (s *failingLogStore) SaveAgentLog(models.AgentLog) error {
	return errors.New("ledger unavailable")
}

func TestTrackerMemory(t *testing.T) {
	t.Run("CapAtTen", func(t *testing.T) {
		tr := newTracker("TestAgent", "test", storage.NewMockStore(), logger{})
		for i := 0; i < 15; i++ {
			tr.AddToMemory(map[string]any{"n": i})
		}
		assert.Equal(t, 10, tr.memorySize())

		contents := tr.memoryContents()
		for i, c := range contents {
			assert.Equal(t, i+5, c["n"]) // oldest five evicted
		}
	})

	t.Run("LengthIsMinOfAppendsAndCap", func(t *testing.T) {
		for _, n := range []int{0, 1, 3, 10, 11, 25} {
			tr := newTracker("TestAgent", "test", storage.NewMockStore(), logger{})
			for i := 0; i < n; i++ {
				tr.AddToMemory(map[string]any{"n": i})
			}
			want := n
			if want > 10 {
				want = 10
			}
			assert.Equal(t, want, tr.memorySize(), "after %d appends", n)
		}
	})

	t.Run("ContextEmpty", func(t *testing.T) {
		tr := newTracker("TestAgent", "test", storage.NewMockStore(), logger{})
		assert.Equal(t, "No previous context.", tr.Context())
	})

	t.Run("ContextLastThree", func(t *testing.T) {
		tr := newTracker("TestAgent", "test", storage.NewMockStore(), logger{})
		for i := 0; i < 5; i++ {
			tr.AddToMemory(map[string]any{"marker": fmt.Sprintf("entry-%d", i)})
		}
		ctx := tr.Context()
		assert.Contains(t, ctx, "entry-2")
		assert.Contains(t, ctx, "entry-3")
		assert.Contains(t, ctx, "entry-4")
		assert.NotContains(t, ctx, "entry-0")
		assert.NotContains(t, ctx, "entry-1")
	})
}

func TestTrackerLogAction(t *testing.T) {
	t.Run("AppendsTaggedRow", func(t *testing.T) {
		store := storage.NewMockStore()
		tr := newTracker("TestAgent", "test", store, logger{})
		tr.SetTaskID("task-1")
		tr.LogAction("Doing work", "because the test asked", models.JSONMap{"k": "v"})

		logs, err := store.ListAgentLogs("task-1")
		assert.NoError(t, err)
		assert.Len(t, logs, 1)
		assert.Equal(t, "TestAgent", logs[0].AgentName)
		assert.Equal(t, "Doing work", logs[0].Action)
		assert.Equal(t, "because the test asked", logs[0].Reasoning)
	})

	t.Run("WriteFailureNeverAbortsWork", func(t *testing.T) {
		store := &failingLogStore{Store: storage.NewMockStore()}
		gw := &fakeGateway{response: `{"overview":"ok","key_findings":["f1"]}`}
		ag := NewResearchAgent(store, gw, "phi:latest", logger{})
		ag.SetTaskID("task-2")

		res := ag.Execute(context.Background(), map[string]any{"topic": "logging"})
		assert.NoError(t, res.Err)
		assert.Equal(t, "success", res.Payload["status"])
	})
}

func TestResearchAgent(t *testing.T) {
	newAgent := func(gw *fakeGateway) *ResearchAgent {
		return NewResearchAgent(storage.NewMockStore(), gw, "phi:latest", logger{})
	}

	t.Run("MissingTopic", func(t *testing.T) {
		ag := newAgent(&fakeGateway{})
		res := ag.Execute(context.Background(), map[string]any{})
		assert.Error(t, res.Err)
		var inputErr *InputError
		assert.ErrorAs(t, res.Err, &inputErr)
		assert.Contains(t, res.Err.Error(), "topic")
	})

	t.Run("StructuredResponse", func(t *testing.T) {
		gw := &fakeGateway{response: `{"overview":"an overview","key_findings":["f1","f2"]}`}
		ag := newAgent(gw)
		res := ag.Execute(context.Background(), map[string]any{
			"topic":     "AI in Healthcare",
			"questions": []string{"benefits?", "risks?"},
		})
		assert.NoError(t, res.Err)
		assert.Equal(t, "success", res.Payload["status"])
		assert.Equal(t, "AI in Healthcare", res.Payload["topic"])
		assert.Equal(t, "ResearchAgent", res.Payload["agent"])

		findings := res.Payload["research_findings"].(map[string]any)
		assert.Equal(t, "an overview", findings["overview"])
		assert.Equal(t, "completed", findings["status"])

		// Prompt embeds topic and enumerated questions
		assert.Len(t, gw.prompts, 1)
		assert.Contains(t, gw.prompts[0], "AI in Healthcare")
		assert.Contains(t, gw.prompts[0], "1. benefits?")
		assert.Contains(t, gw.prompts[0], "2. risks?")
	})

	t.Run("NonJSONResponseWrapped", func(t *testing.T) {
		ag := newAgent(&fakeGateway{response: "plain text answer"})
		res := ag.Execute(context.Background(), map[string]any{"topic": "x"})
		assert.NoError(t, res.Err)
		findings := res.Payload["research_findings"].(map[string]any)
		assert.Equal(t, "plain text answer", findings["raw_response"])
		assert.Equal(t, "plain text answer", findings["overview"])
	})

	t.Run("GatewayFailureDegradesToMock", func(t *testing.T) {
		ag := newAgent(&fakeGateway{err: &llm.GatewayError{Message: "backend unreachable"}})
		res := ag.Execute(context.Background(), map[string]any{"topic": "x"})
		assert.NoError(t, res.Err)
		assert.Equal(t, "mock", res.Payload["status"])
		findings := res.Payload["research_findings"].(map[string]any)
		assert.Equal(t, "mock", findings["status"])
	})
}

func TestAnalysisAgent(t *testing.T) {
	newAgent := func(gw *fakeGateway) *AnalysisAgent {
		return NewAnalysisAgent(storage.NewMockStore(), gw, "phi:latest", logger{})
	}
	research := map[string]any{"overview": "o", "key_findings": []any{"f"}}

	t.Run("MissingResearchFindings", func(t *testing.T) {
		ag := newAgent(&fakeGateway{})
		res := ag.Execute(context.Background(), map[string]any{"analysis_type": "comprehensive"})
		assert.Error(t, res.Err)
		var inputErr *InputError
		assert.ErrorAs(t, res.Err, &inputErr)
		assert.Contains(t, res.Err.Error(), "research_findings")
	})

	t.Run("InsightExtraction", func(t *testing.T) {
		gw := &fakeGateway{response: `{"key_insights":"market is growing","finding_costs":"costs rising","patterns":["p1"]}`}
		ag := newAgent(gw)
		res := ag.Execute(context.Background(), map[string]any{"research_findings": research})
		assert.NoError(t, res.Err)

		insights := res.Payload["insights"].([]map[string]any)
		assert.Len(t, insights, 2) // key_insights + finding_costs, not patterns
		assert.Equal(t, "finding_costs", insights[0]["type"])
		assert.Equal(t, "key_insights", insights[1]["type"])
		assert.Equal(t, "high", insights[0]["importance"])

		recommendations := res.Payload["recommendations"].([]string)
		assert.Len(t, recommendations, 2)
		assert.Contains(t, recommendations[0], "finding_costs")
		assert.Contains(t, recommendations[0], "costs rising")
	})

	t.Run("RecommendationsCappedAtFive", func(t *testing.T) {
		response := `{"insight_a":"a","insight_b":"b","insight_c":"c","insight_d":"d","insight_e":"e","insight_f":"f","insight_g":"g"}`
		ag := newAgent(&fakeGateway{response: response})
		res := ag.Execute(context.Background(), map[string]any{"research_findings": research})
		assert.NoError(t, res.Err)
		assert.Len(t, res.Payload["insights"].([]map[string]any), 7)
		assert.Len(t, res.Payload["recommendations"].([]string), 5)
	})

	t.Run("GatewayFailureDegradesToMock", func(t *testing.T) {
		ag := newAgent(&fakeGateway{err: &llm.GatewayError{Message: "timeout"}})
		res := ag.Execute(context.Background(), map[string]any{"research_findings": research})
		assert.NoError(t, res.Err)
		assert.Equal(t, "mock", res.Payload["status"])
		results := res.Payload["analysis_results"].(map[string]any)
		assert.Equal(t, "mock", results["status"])
	})
}

func TestReportWriterAgent(t *testing.T) {
	newAgent := func(gw *fakeGateway) *ReportWriterAgent {
		return NewReportWriterAgent(storage.NewMockStore(), gw, "phi:latest", logger{})
	}
	research := map[string]any{"overview": "o"}
	analysis := map[string]any{"insights": []any{"i"}}

	t.Run("MissingAllUpstreamData", func(t *testing.T) {
		ag := newAgent(&fakeGateway{})
		res := ag.Execute(context.Background(), map[string]any{"report_type": "executive_summary"})
		assert.Error(t, res.Err)
		var inputErr *InputError
		assert.ErrorAs(t, res.Err, &inputErr)
		assert.Contains(t, res.Err.Error(), "requires research findings or analysis results")
	})

	t.Run("FormatsReport", func(t *testing.T) {
		gw := &fakeGateway{response: "report body text"}
		ag := newAgent(gw)
		res := ag.Execute(context.Background(), map[string]any{
			"research_findings": research,
			"analysis_results":  analysis,
			"report_type":       "executive_summary",
			"target_audience":   "general",
		})
		assert.NoError(t, res.Err)
		assert.Equal(t, "success", res.Payload["status"])

		report := res.Payload["report"].(string)
		assert.Contains(t, report, "# Executive Summary Report")
		assert.Contains(t, report, "**Target Audience:** General")
		assert.Contains(t, report, "report body text")

		// Body call plus the separate executive summary call
		assert.Len(t, gw.prompts, 2)
		assert.Contains(t, gw.prompts[1], "max 200 words")

		metadata := res.Payload["metadata"].(map[string]any)
		assert.Equal(t, "executive_summary", metadata["report_type"])
		assert.NotZero(t, metadata["word_count"])
	})

	t.Run("GatewayFailureDegradesBodyAndSummary", func(t *testing.T) {
		ag := newAgent(&fakeGateway{err: &llm.GatewayError{StatusCode: 503, Message: "unavailable"}})
		res := ag.Execute(context.Background(), map[string]any{"research_findings": research})
		assert.NoError(t, res.Err)
		assert.Equal(t, "mock", res.Payload["status"])
		assert.Contains(t, res.Payload["report"].(string), "Report generation failed.")
		assert.Equal(t, "Executive summary: Report completed successfully.", res.Payload["executive_summary"])
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	t.Run("CreateKnownAgents", func(t *testing.T) {
		for _, key := range []string{ResearchKey, AnalysisKey, ReportKey} {
			ag, err := r.Create(key, storage.NewMockStore(), &fakeGateway{}, "phi:latest", logger{})
			assert.NoError(t, err)
			assert.NotEmpty(t, ag.Name())
			assert.NotEmpty(t, ag.Description())
		}
	})

	t.Run("UnknownAgent", func(t *testing.T) {
		_, err := r.Create("nonexistent", storage.NewMockStore(), &fakeGateway{}, "phi:latest", logger{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not registered")
	})

	t.Run("ListSorted", func(t *testing.T) {
		infos := r.List()
		assert.Len(t, infos, 3)
		assert.Equal(t, "analysis", infos[0].Name)
		assert.Equal(t, "report", infos[1].Name)
		assert.Equal(t, "research", infos[2].Name)
	})
}
