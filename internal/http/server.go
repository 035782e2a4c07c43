package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ignatij/goreport/internal/log"
	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/service"
	"github.com/ignatij/goreport/pkg/storage"
)

// StartServer exposes the coordinator over HTTP and blocks.
func StartServer(port string, svc *service.CoordinatorService) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler(svc))
	mux.HandleFunc("/tasks", TasksHandler(svc))
	mux.HandleFunc("/tasks/", TaskByIDHandler(svc))
	mux.HandleFunc("/agents", AgentsHandler(svc))

	log.GetLogger().Infof("Starting GoReport server on :%s", port)
	return http.ListenAndServe(":"+port, mux)
}

// HealthHandler serves GET /health with the database, agent and model
// status. A degraded service answers 503 so probes can act on it.
func HealthHandler(svc *service.CoordinatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := svc.Health()
		status := http.StatusOK
		if !health.Healthy() {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	}
}

// TasksHandler serves POST /tasks (submit) and GET /tasks (list).
func TasksHandler(svc *service.CoordinatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			submitTaskHTTP(w, r, svc)
		case http.MethodGet:
			listTasksHTTP(w, r, svc)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// TaskByIDHandler serves GET /tasks/{id} and GET /tasks/{id}/logs.
func TaskByIDHandler(svc *service.CoordinatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/tasks/")
		taskID, sub, _ := strings.Cut(rest, "/")
		if taskID == "" {
			http.Error(w, "Missing task id", http.StatusBadRequest)
			return
		}
		switch sub {
		case "":
			getTaskHTTP(w, svc, taskID)
		case "logs":
			getTaskLogsHTTP(w, svc, taskID)
		default:
			http.NotFound(w, r)
		}
	}
}

// AgentsHandler serves GET /agents.
func AgentsHandler(svc *service.CoordinatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, svc.ListAgents())
	}
}

func submitTaskHTTP(w http.ResponseWriter, r *http.Request, svc *service.CoordinatorService) {
	var req models.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.GetLogger().Errorf("Invalid task request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	resp, err := svc.SubmitTask(r.Context(), req)
	if err != nil {
		log.GetLogger().Errorf("Failed to submit task: %v", err)
		http.Error(w, fmt.Sprintf("Failed to submit task: %v", err), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func listTasksHTTP(w http.ResponseWriter, r *http.Request, svc *service.CoordinatorService) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 10)
	tasks, err := svc.ListTasks(offset, limit)
	if err != nil {
		log.GetLogger().Errorf("Failed to list tasks: %v", err)
		http.Error(w, fmt.Sprintf("Failed to list tasks: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func getTaskHTTP(w http.ResponseWriter, svc *service.CoordinatorService, taskID string) {
	task, err := svc.GetTask(taskID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.GetLogger().Errorf("Failed to get task %s: %v", taskID, err)
		http.Error(w, fmt.Sprintf("Failed to get task: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func getTaskLogsHTTP(w http.ResponseWriter, svc *service.CoordinatorService, taskID string) {
	logs, err := svc.GetTaskLogs(taskID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.GetLogger().Errorf("Failed to get logs for task %s: %v", taskID, err)
		http.Error(w, fmt.Sprintf("Failed to get task logs: %v", err), http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []models.AgentLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
