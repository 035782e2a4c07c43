package service

import "fmt"

// HealthStatus reports the readiness of the service and its collaborators:
// the ledger, the registered agents and the configured LLM backend.
type HealthStatus struct {
	Status   string   `json:"status"`
	Database string   `json:"database"`
	Agents   []string `json:"agents"`
	Model    string   `json:"model"`
}

// Healthy reports whether every collaborator checked out.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// Health probes the ledger with a cheap read and describes the agents and
// model this service runs with.
func (s *CoordinatorService) Health() HealthStatus {
	h := HealthStatus{
		Status:   "healthy",
		Database: "connected",
		Model:    s.model,
	}
	if _, err := s.store.ListTasks(0, 1); err != nil {
		h.Status = "degraded"
		h.Database = fmt.Sprintf("error: %v", err)
	}
	for _, info := range s.ListAgents() {
		h.Agents = append(h.Agents, info.Name)
	}
	return h
}
