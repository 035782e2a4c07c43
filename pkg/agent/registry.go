package agent

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/ignatij/goreport/pkg/llm"
	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/storage"
)

// Agent keys used by the coordinator's pipelines.
const (
	ResearchKey = "research"
	AnalysisKey = "analysis"
	ReportKey   = "report"
)

// Constructor builds a fresh agent instance bound to a task's ledger and
// gateway. The coordinator calls it once per task per stage.
type Constructor func(store storage.Store, client llm.Client, model string, logger Logger) Agent

// Registry maps agent keys to constructors. It is populated once at process
// start and read-only afterwards.
type Registry struct {
	ctors        map[string]Constructor
	descriptions map[string]string
}

// NewRegistry returns a registry holding the built-in agents.
func NewRegistry() *Registry {
	r := &Registry{
		ctors:        make(map[string]Constructor),
		descriptions: make(map[string]string),
	}
	r.register(ResearchKey,
		"Specializes in researching topics and gathering relevant information from various sources.",
		func(store storage.Store, client llm.Client, model string, logger Logger) Agent {
			return NewResearchAgent(store, client, model, logger)
		})
	r.register(AnalysisKey,
		"Specializes in analyzing information and extracting actionable insights.",
		func(store storage.Store, client llm.Client, model string, logger Logger) Agent {
			return NewAnalysisAgent(store, client, model, logger)
		})
	r.register(ReportKey,
		"Specializes in creating well-structured, professional reports.",
		func(store storage.Store, client llm.Client, model string, logger Logger) Agent {
			return NewReportWriterAgent(store, client, model, logger)
		})
	return r
}

func (r *Registry) register(key, description string, ctor Constructor) {
	r.ctors[key] = ctor
	r.descriptions[key] = description
}

// Create builds a fresh instance of the agent registered under key.
func (r *Registry) Create(key string, store storage.Store, client llm.Client, model string, logger Logger) (Agent, error) {
	ctor, ok := r.ctors[key]
	if !ok {
		return nil, errors.Errorf("agent %q is not registered", key)
	}
	return ctor(store, client, model, logger), nil
}

// List describes the registered agents, sorted by key.
func (r *Registry) List() []models.AgentInfo {
	keys := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.AgentInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.AgentInfo{Name: k, Description: r.descriptions[k]})
	}
	return out
}
