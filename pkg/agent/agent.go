// Package agent contains the LLM-backed units of work the coordinator
// sequences into a pipeline. Each agent consumes a structured input map,
// produces a structured output payload, logs its reasoning to the ledger
// and keeps bounded short-term memory of prior invocations.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/storage"
)

// Logger defines the logging interface for agents
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Agent is the single capability every pipeline stage exposes.
// Execute must not be called concurrently on one instance; the coordinator
// constructs fresh instances per task so memory is never shared across tasks.
type Agent interface {
	Name() string
	Description() string
	SetTaskID(taskID string)
	Execute(ctx context.Context, input map[string]any) Result
}

const (
	memoryLimit   = 10
	contextWindow = 3
	noContext     = "No previous context."
)

type memoryEntry struct {
	Timestamp time.Time
	Content   map[string]any
}

// tracker carries the identity, short-term memory and ledger logging
// behavior shared by all agents. Concrete agents embed it.
type tracker struct {
	name        string
	description string
	taskID      string
	memory      []memoryEntry
	store       storage.Store
	logger      Logger
	mu          sync.Mutex
}

func newTracker(name, description string, store storage.Store, logger Logger) *tracker {
	return &tracker{
		name:        name,
		description: description,
		store:       store,
		logger:      logger,
	}
}

func (t *tracker) Name() string        { return t.name }
func (t *tracker) Description() string { return t.description }

// SetTaskID tags subsequent ledger logs with the task being worked on.
func (t *tracker) SetTaskID(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.taskID = taskID
}

// LogAction appends one agent action row to the ledger. Logging is
// best-effort: a write failure is reported to the process log and swallowed,
// never aborting the agent's primary work.
func (t *tracker) LogAction(action, reasoning string, metadata models.JSONMap) {
	t.mu.Lock()
	taskID := t.taskID
	t.mu.Unlock()

	entry := models.AgentLog{
		TaskID:    taskID,
		AgentName: t.name,
		Action:    action,
		Reasoning: reasoning,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
	if err := t.store.SaveAgentLog(entry); err != nil {
		t.logger.Errorf("Failed to log agent action: %v", err)
		return
	}
	t.logger.Infof("[%s] Action: %s | Reasoning: %s", t.name, action, reasoning)
}

// AddToMemory appends one record, evicting the oldest past the 10-entry cap.
func (t *tracker) AddToMemory(content map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memory = append(t.memory, memoryEntry{Timestamp: time.Now().UTC(), Content: content})
	if len(t.memory) > memoryLimit {
		t.memory = t.memory[len(t.memory)-memoryLimit:]
	}
}

// Context renders the last 3 memory entries as a text block for the next
// prompt.
func (t *tracker) Context() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.memory) == 0 {
		return noContext
	}
	start := len(t.memory) - contextWindow
	if start < 0 {
		start = 0
	}
	out := "Previous context:\n"
	for _, mem := range t.memory[start:] {
		raw, err := json.MarshalIndent(mem.Content, "", "  ")
		if err != nil {
			raw = []byte(fmt.Sprint(mem.Content))
		}
		out += fmt.Sprintf("- %s\n", raw)
	}
	return out
}

// memorySize is used by tests to assert the FIFO cap.
func (t *tracker) memorySize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.memory)
}

func (t *tracker) memoryContents() []map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]map[string]any, len(t.memory))
	for i, m := range t.memory {
		out[i] = m.Content
	}
	return out
}
