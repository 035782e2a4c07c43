package storage

import (
	"github.com/ignatij/goreport/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a task ID has never been issued.
var ErrNotFound = errors.New("task not found")

// Store defines the execution ledger operations for GoReport.
// Begin returns a transactional view of the store; writes through it are
// committed atomically per Commit.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Task operations
	SaveTask(t models.TaskExecution) (int64, error)
	GetTask(taskID string) (models.TaskExecution, error)
	UpdateTaskStatus(taskID string, status models.TaskStatus, output models.JSONMap, errorMsg string) error
	ListTasks(offset, limit int) ([]models.TaskExecution, error)

	// Agent log operations
	SaveAgentLog(l models.AgentLog) error
	ListAgentLogs(taskID string) ([]models.AgentLog, error)
}
