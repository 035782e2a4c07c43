package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ignatij/goreport/pkg/agent"
	"github.com/ignatij/goreport/pkg/llm"
	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/storage"
)

// Logger defines the logging interface for CoordinatorService
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

const defaultListLimit = 10

// CoordinatorService translates one TaskRequest into an ordered agent
// pipeline, executes it stage by stage and records the task's lifecycle in
// the execution ledger.
//
// Per task: created -> RUNNING (one ledger write at submission), then the
// stages run strictly sequentially, each awaited to completion before the
// next starts. Any stage returning an error result halts the remaining
// pipeline and marks the task FAILED; otherwise the stage payloads are
// merged under their stage keys and the task is marked COMPLETED.
type CoordinatorService struct {
	store    storage.Store
	ledger   *LedgerService
	registry *agent.Registry
	llm      llm.Client
	model    string
	logger   Logger
}

func NewCoordinatorService(store storage.Store, client llm.Client, model string, logger Logger) *CoordinatorService {
	return &CoordinatorService{
		store:    store,
		ledger:   NewLedgerService(store, logger),
		registry: agent.NewRegistry(),
		llm:      client,
		model:    model,
		logger:   logger,
	}
}

// pipelineFor maps a task type to its fixed stage ordering.
func pipelineFor(taskType models.TaskType) ([]string, error) {
	switch taskType {
	case models.FullAnalysisTaskType:
		return []string{agent.ResearchKey, agent.AnalysisKey, agent.ReportKey}, nil
	case models.ResearchOnlyTaskType:
		return []string{agent.ResearchKey}, nil
	case models.ReportOnlyTaskType:
		return []string{agent.ReportKey}, nil
	default:
		return nil, errors.Errorf("unknown task type %q", taskType)
	}
}

// SubmitTask runs one task through its pipeline and blocks until the task
// reaches a terminal state. A stage failure yields a FAILED response, not an
// error; errors are reserved for invalid requests and ledger failures.
func (s *CoordinatorService) SubmitTask(ctx context.Context, req models.TaskRequest) (models.TaskResponse, error) {
	req.ApplyDefaults()
	stages, err := pipelineFor(req.TaskType)
	if err != nil {
		return models.TaskResponse{}, err
	}
	if req.Topic == "" && containsStage(stages, agent.ResearchKey) {
		return models.TaskResponse{}, errors.New("topic cannot be empty")
	}

	taskID := uuid.NewString()
	if err := s.ledger.CreateTask(taskID, req); err != nil {
		return models.TaskResponse{}, err
	}
	s.logger.Infof("Created task %s (%s)", taskID, req.TaskType)

	// Fresh agent instances per task; memory is never shared across tasks.
	agents := make(map[string]agent.Agent, len(stages))
	for _, stage := range stages {
		ag, err := s.registry.Create(stage, s.store, s.llm, s.model, s.logger)
		if err != nil {
			return models.TaskResponse{}, err
		}
		ag.SetTaskID(taskID)
		agents[stage] = ag
	}

	results := make(map[string]any, len(stages))
	for _, stage := range stages {
		s.logger.Infof("Dispatching %s stage for task %s", stage, taskID)
		res := agents[stage].Execute(ctx, s.stageInput(stage, req, results))
		if res.Err != nil {
			s.logger.Errorf("Stage %s failed for task %s: %v", stage, taskID, res.Err)
			// Partial payloads from completed stages are kept; with none,
			// output_data stays NULL.
			var partial models.JSONMap
			if len(results) > 0 {
				partial = models.JSONMap(results)
			}
			if finErr := s.ledger.FinishTask(taskID, models.FailedTaskStatus, partial, res.Err.Error()); finErr != nil {
				s.logger.Errorf("Failed to record failure of task %s: %v", taskID, finErr)
			}
			return models.TaskResponse{
				TaskID:  taskID,
				Status:  models.FailedTaskStatus,
				Results: results,
				Error:   res.Err.Error(),
			}, nil
		}
		results[stage] = res.Payload
	}

	if err := s.ledger.FinishTask(taskID, models.CompletedTaskStatus, models.JSONMap(results), ""); err != nil {
		return models.TaskResponse{}, err
	}
	s.logger.Infof("Completed task %s", taskID)
	return models.TaskResponse{
		TaskID:  taskID,
		Status:  models.CompletedTaskStatus,
		Results: results,
	}, nil
}

// stageInput wires each stage's input from the request and the payloads of
// the stages before it. No data is dropped or renamed en route.
func (s *CoordinatorService) stageInput(stage string, req models.TaskRequest, results map[string]any) map[string]any {
	switch stage {
	case agent.ResearchKey:
		return map[string]any{
			"topic":     req.Topic,
			"questions": req.Questions,
		}
	case agent.AnalysisKey:
		return map[string]any{
			"research_findings": payloadField(results, agent.ResearchKey, "research_findings"),
			"analysis_type":     req.AnalysisType,
		}
	case agent.ReportKey:
		return map[string]any{
			"research_findings": payloadField(results, agent.ResearchKey, "research_findings"),
			"analysis_results":  payloadField(results, agent.AnalysisKey, "analysis_results"),
			"report_type":       req.ReportType,
			"target_audience":   req.TargetAudience,
		}
	default:
		return map[string]any{}
	}
}

func payloadField(results map[string]any, stage, field string) any {
	payload, ok := results[stage].(map[string]any)
	if !ok {
		return nil
	}
	return payload[field]
}

func containsStage(stages []string, stage string) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}

// GetTask fetches one task execution; storage.ErrNotFound passes through
// for the boundary layer to map to a not-found response.
func (s *CoordinatorService) GetTask(taskID string) (models.TaskExecution, error) {
	return s.store.GetTask(taskID)
}

// ListTasks returns recent tasks, newest first.
func (s *CoordinatorService) ListTasks(offset, limit int) ([]models.TaskExecution, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListTasks(offset, limit)
}

// GetTaskLogs returns the agent actions recorded for a task in append order.
func (s *CoordinatorService) GetTaskLogs(taskID string) ([]models.AgentLog, error) {
	if _, err := s.store.GetTask(taskID); err != nil {
		return nil, err
	}
	return s.store.ListAgentLogs(taskID)
}

// ListAgents describes the available agents, the coordinator included.
func (s *CoordinatorService) ListAgents() []models.AgentInfo {
	agents := s.registry.List()
	return append(agents, models.AgentInfo{
		Name:        coordinatorName,
		Description: coordinatorDescription,
	})
}
