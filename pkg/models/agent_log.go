package models

import "time"

// AgentLog records one action an agent took while working on a task,
// including the reasoning behind it. Append-only.
type AgentLog struct {
	ID        int64     `json:"id" db:"id"`                       // Auto-incremented log ID
	TaskID    string    `json:"task_id" db:"task_id"`             // Task being worked on
	AgentName string    `json:"agent_name" db:"agent_name"`       // Acting agent
	Action    string    `json:"action" db:"action"`               // Short label (e.g. "Starting research")
	Reasoning string    `json:"reasoning" db:"reasoning"`         // Why the agent took this action
	Timestamp time.Time `json:"timestamp" db:"timestamp"`         // Time of the action
	Metadata  JSONMap   `json:"metadata,omitempty" db:"metadata"` // Open key/value details
}

// AgentInfo describes an available agent for the /agents listing.
type AgentInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
