package storage

import (
	"database/sql"
	"fmt"

	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// SaveTask inserts a new task execution row and returns its row ID
func (s *PostgresStore) SaveTask(t models.TaskExecution) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO task_executions (task_id, task_type, status, input_data, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.TaskID, t.TaskType, t.Status, t.InputData, t.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save task %s: %w", t.TaskID, err)
	}
	return id, nil
}

// GetTask retrieves a task execution by its task ID
func (s *PostgresStore) GetTask(taskID string) (models.TaskExecution, error) {
	var t models.TaskExecution
	err := s.db.Get(&t, "SELECT * FROM task_executions WHERE task_id = $1", taskID)
	if err == sql.ErrNoRows {
		return models.TaskExecution{}, storage.ErrNotFound
	}
	if err != nil {
		return models.TaskExecution{}, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return t, nil
}

// UpdateTaskStatus moves a task to a new status, recording output or error.
// completed_at is stamped exactly when the status turns terminal.
func (s *PostgresStore) UpdateTaskStatus(taskID string, status models.TaskStatus, output models.JSONMap, errorMsg string) error {
	_, err := s.db.Exec(`
		UPDATE task_executions
		SET status = $1,
		output_data = $2,
		error_msg = $3,
		completed_at = CASE WHEN $4 IN ('COMPLETED', 'FAILED') THEN CURRENT_TIMESTAMP ELSE completed_at END
		WHERE task_id = $5`,
		// PostgreSQL interprets the parameters in the CASE clause as separate so passing the status twice
		status, output, errorMsg, status, taskID)
	return err
}

// ListTasks returns task executions newest first
func (s *PostgresStore) ListTasks(offset, limit int) ([]models.TaskExecution, error) {
	tasks := []models.TaskExecution{}
	query := "SELECT * FROM task_executions ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2"
	err := s.db.Select(&tasks, query, offset, limit)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// SaveAgentLog appends one agent action row
func (s *PostgresStore) SaveAgentLog(l models.AgentLog) error {
	_, err := s.db.Exec(`
		INSERT INTO agent_logs (task_id, agent_name, action, reasoning, timestamp, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.TaskID, l.AgentName, l.Action, l.Reasoning, l.Timestamp, l.Metadata)
	return err
}

// ListAgentLogs retrieves all agent actions for a task in append order
func (s *PostgresStore) ListAgentLogs(taskID string) ([]models.AgentLog, error) {
	var logs []models.AgentLog
	err := s.db.Select(&logs, "SELECT * FROM agent_logs WHERE task_id = $1 ORDER BY id", taskID)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
