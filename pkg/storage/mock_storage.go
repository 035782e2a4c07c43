package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/ignatij/goreport/pkg/models"
	"github.com/pkg/errors"
)

// mockStore implements storage.Store with in-memory storage.
// It is the only shared mutable resource across concurrent tasks, so all
// operations serialize on a single mutex; readers get copies.
type mockStore struct {
	mu        sync.Mutex
	tasks     []models.TaskExecution
	logs      []models.AgentLog
	nextID    int64 // For task row IDs
	nextLogID int64
}

func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) Begin() (Store, error) {
	return m, nil
}

func (m *mockStore) Commit() error {
	return nil
}

func (m *mockStore) Rollback() error {
	// No-op: writes are applied immediately; single-row semantics make each
	// call atomic on its own.
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

func (m *mockStore) SaveTask(t models.TaskExecution) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tasks {
		if existing.TaskID == t.TaskID {
			return 0, errors.New("task already exists")
		}
	}
	m.nextID++
	t.ID = m.nextID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.tasks = append(m.tasks, t)
	return t.ID, nil
}

func (m *mockStore) GetTask(taskID string) (models.TaskExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.TaskID == taskID {
			return t, nil
		}
	}
	return models.TaskExecution{}, ErrNotFound
}

func (m *mockStore) UpdateTaskStatus(taskID string, status models.TaskStatus, output models.JSONMap, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.TaskID == taskID {
			m.tasks[i].Status = status
			m.tasks[i].OutputData = output
			m.tasks[i].ErrorMsg = errorMsg
			if status == models.CompletedTaskStatus || status == models.FailedTaskStatus {
				now := time.Now().UTC()
				m.tasks[i].CompletedAt = &now
			}
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) ListTasks(offset, limit int) ([]models.TaskExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := make([]models.TaskExecution, len(m.tasks))
	copy(sorted, m.tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(sorted) {
		return []models.TaskExecution{}, nil
	}
	end := len(sorted)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return sorted[offset:end], nil
}

func (m *mockStore) SaveAgentLog(l models.AgentLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextLogID++
	l.ID = m.nextLogID
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	m.logs = append(m.logs, l)
	return nil
}

func (m *mockStore) ListAgentLogs(taskID string) ([]models.AgentLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var logs []models.AgentLog
	for _, l := range m.logs {
		if l.TaskID == taskID {
			logs = append(logs, l)
		}
	}
	return logs, nil
}
