package service

import (
	"context"
	"encoding/json"

	"github.com/ignatij/goreport/pkg/agent"
	"github.com/ignatij/goreport/pkg/models"
)

const (
	coordinatorName        = "TaskCoordinator"
	coordinatorDescription = "Coordinates multiple agents to complete complex tasks."
)

// coordinatorAgent exposes the coordinator itself through the Agent
// interface, so a pipeline of pipelines can be composed the same way a
// single stage is invoked.
type coordinatorAgent struct {
	svc *CoordinatorService
}

// AsAgent wraps the coordinator as an invocable agent.
func (s *CoordinatorService) AsAgent() agent.Agent {
	return &coordinatorAgent{svc: s}
}

func (c *coordinatorAgent) Name() string        { return coordinatorName }
func (c *coordinatorAgent) Description() string { return coordinatorDescription }

// SetTaskID is a no-op: the coordinator assigns its own task IDs at
// submission.
func (c *coordinatorAgent) SetTaskID(string) {}

func (c *coordinatorAgent) Execute(ctx context.Context, input map[string]any) agent.Result {
	raw, err := json.Marshal(input)
	if err != nil {
		return agent.Failure(coordinatorName, err)
	}
	var req models.TaskRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return agent.Failure(coordinatorName, &agent.InputError{Agent: coordinatorName, Msg: err.Error()})
	}

	resp, err := c.svc.SubmitTask(ctx, req)
	if err != nil {
		return agent.Failure(coordinatorName, err)
	}
	return agent.Success(coordinatorName, map[string]any{
		"task_id": resp.TaskID,
		"status":  string(resp.Status),
		"results": resp.Results,
		"error":   resp.Error,
		"agent":   coordinatorName,
	})
}
