package service

import (
	"fmt"
	"time"

	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/storage"
)

// LedgerService wraps the transactional writes the coordinator makes to the
// execution ledger: one row at task creation, one at the terminal
// transition. Agents never write task rows.
type LedgerService struct {
	store  storage.Store
	logger Logger
}

func NewLedgerService(store storage.Store, logger Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
	}
}

// CreateTask writes the initial RUNNING row with the request snapshot.
func (ls *LedgerService) CreateTask(taskID string, req models.TaskRequest) (err error) {
	input, err := req.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot request: %v", err)
	}

	txStore, err := ls.store.Begin()
	if err != nil {
		ls.logger.Errorf("Failed to begin transaction for CreateTask: %v", err)
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ls.logger.Errorf("Failed to rollback: %v", rollbackErr)
			}
		} else {
			if commitErr := txStore.Commit(); commitErr != nil {
				ls.logger.Errorf("Failed to commit: %v", commitErr)
				err = commitErr
			}
		}
	}()

	task := models.TaskExecution{
		TaskID:    taskID,
		TaskType:  string(req.TaskType),
		Status:    models.RunningTaskStatus,
		InputData: input,
		CreatedAt: time.Now().UTC(),
	}
	if _, err = txStore.SaveTask(task); err != nil {
		ls.logger.Errorf("Failed to save task %s: %v", taskID, err)
		return fmt.Errorf("failed to save task %s: %v", taskID, err)
	}
	return nil
}

// FinishTask records the terminal transition. Status must be COMPLETED or
// FAILED; the store stamps completed_at alongside.
func (ls *LedgerService) FinishTask(taskID string, status models.TaskStatus, output models.JSONMap, errMsg string) (err error) {
	txStore, err := ls.store.Begin()
	if err != nil {
		ls.logger.Errorf("Failed to begin transaction for FinishTask: %v", err)
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				ls.logger.Errorf("Failed to rollback: %v", rollbackErr)
			}
		} else {
			if commitErr := txStore.Commit(); commitErr != nil {
				ls.logger.Errorf("Failed to commit: %v", commitErr)
				err = commitErr
			}
		}
	}()

	if err = txStore.UpdateTaskStatus(taskID, status, output, errMsg); err != nil {
		ls.logger.Errorf("Failed to update task %s status to %s: %v", taskID, status, err)
		return fmt.Errorf("failed to update task %s status: %v", taskID, err)
	}
	return nil
}
