package models

import (
	"encoding/json"
	"time"
)

type TaskStatus string

const (
	RunningTaskStatus   TaskStatus = "RUNNING"
	CompletedTaskStatus TaskStatus = "COMPLETED"
	FailedTaskStatus    TaskStatus = "FAILED"
)

type TaskType string

const (
	FullAnalysisTaskType TaskType = "full_analysis"
	ResearchOnlyTaskType TaskType = "research_only"
	ReportOnlyTaskType   TaskType = "report_only"
)

// TaskRequest describes a single unit of work submitted to the coordinator.
// It is immutable once submitted; the coordinator snapshots it into the
// execution ledger before any agent runs.
type TaskRequest struct {
	TaskType       TaskType `json:"task_type"`
	Topic          string   `json:"topic"`
	Questions      []string `json:"questions,omitempty"`
	ReportType     string   `json:"report_type"`
	TargetAudience string   `json:"target_audience"`
	AnalysisType   string   `json:"analysis_type"`
}

// ApplyDefaults fills the optional request fields the same way the API
// documents them: executive_summary report for a general audience with a
// comprehensive analysis.
func (r *TaskRequest) ApplyDefaults() {
	if r.TaskType == "" {
		r.TaskType = FullAnalysisTaskType
	}
	if r.ReportType == "" {
		r.ReportType = "executive_summary"
	}
	if r.TargetAudience == "" {
		r.TargetAudience = "general"
	}
	if r.AnalysisType == "" {
		r.AnalysisType = "comprehensive"
	}
}

// Snapshot renders the request as a generic map for persistence in the
// ledger's input_data column.
func (r TaskRequest) Snapshot() (JSONMap, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// TaskExecution is the ledger row tracking one task's lifecycle.
type TaskExecution struct {
	ID          int64      `json:"id" db:"id"`                             // Auto-incremented row ID
	TaskID      string     `json:"task_id" db:"task_id"`                   // Unique identifier assigned at submission
	TaskType    string     `json:"task_type" db:"task_type"`               // e.g. "full_analysis"
	Status      TaskStatus `json:"status" db:"status"`                     // RUNNING -> COMPLETED | FAILED, monotonic
	InputData   JSONMap    `json:"input_data" db:"input_data"`             // Snapshot of the TaskRequest
	OutputData  JSONMap    `json:"output_data,omitempty" db:"output_data"` // Merged stage results, set on COMPLETED
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`             // Submission timestamp
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"` // Set only on terminal status
	ErrorMsg    string     `json:"error,omitempty" db:"error_msg"`         // Set only on FAILED
}

// TaskResponse is what the boundary layer returns to callers of SubmitTask.
type TaskResponse struct {
	TaskID  string         `json:"task_id"`
	Status  TaskStatus     `json:"status"`
	Results map[string]any `json:"results,omitempty"`
	Error   string         `json:"error,omitempty"`
}
