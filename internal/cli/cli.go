package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignatij/goreport/internal/config"
	internal_http "github.com/ignatij/goreport/internal/http"
	"github.com/ignatij/goreport/internal/log"
	internal_storage "github.com/ignatij/goreport/internal/storage"
	"github.com/ignatij/goreport/pkg/llm"
	"github.com/ignatij/goreport/pkg/models"
	"github.com/ignatij/goreport/pkg/service"
)

func SetupCLI(rootCmd *cobra.Command) {
	settings := config.Load()

	runCmd := &cobra.Command{
		Use:   "run [topic]",
		Short: "Run a full analysis pipeline for a topic (CLI)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			svc, closeStore := initService(cmd, settings)
			defer closeStore()

			questions, _ := cmd.Flags().GetStringArray("question")
			reportType, _ := cmd.Flags().GetString("report-type")
			audience, _ := cmd.Flags().GetString("audience")
			analysisType, _ := cmd.Flags().GetString("analysis-type")

			req := models.TaskRequest{
				TaskType:       models.FullAnalysisTaskType,
				Topic:          args[0],
				Questions:      questions,
				ReportType:     reportType,
				TargetAudience: audience,
				AnalysisType:   analysisType,
			}
			resp, err := svc.SubmitTask(context.Background(), req)
			if err != nil {
				log.GetLogger().Errorf("Failed to run task: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to run task: %v\n", err)
				os.Exit(1)
			}
			printJSON(resp)
		},
	}
	runCmd.Flags().StringArray("question", nil, "Specific question to address (repeatable)")
	runCmd.Flags().String("report-type", "executive_summary", "Report type")
	runCmd.Flags().String("audience", "general", "Target audience")
	runCmd.Flags().String("analysis-type", "comprehensive", "Analysis type")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent tasks (CLI)",
		Run: func(cmd *cobra.Command, args []string) {
			svc, closeStore := initService(cmd, settings)
			defer closeStore()

			offset, _ := cmd.Flags().GetInt("offset")
			limit, _ := cmd.Flags().GetInt("limit")
			tasks, err := svc.ListTasks(offset, limit)
			if err != nil {
				log.GetLogger().Errorf("Failed to list tasks: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to list tasks: %v\n", err)
				os.Exit(1)
			}
			if len(tasks) == 0 {
				fmt.Fprintf(os.Stdout, "No tasks found.\n")
				return
			}
			fmt.Fprintf(os.Stdout, "Tasks:\n")
			for _, t := range tasks {
				fmt.Fprintf(os.Stdout, "- ID: %s, Type: %s, Status: %s, Created: %s\n",
					t.TaskID, t.TaskType, t.Status, t.CreatedAt.Format(time.RFC3339))
			}
		},
	}
	listCmd.Flags().Int("offset", 0, "Number of tasks to skip")
	listCmd.Flags().Int("limit", 10, "Maximum number of tasks to return")

	getCmd := &cobra.Command{
		Use:   "get [task-id]",
		Short: "Show a task execution, optionally with its agent logs (CLI)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			svc, closeStore := initService(cmd, settings)
			defer closeStore()

			task, err := svc.GetTask(args[0])
			if err != nil {
				log.GetLogger().Errorf("Failed to get task: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to get task: %v\n", err)
				os.Exit(1)
			}
			printJSON(task)

			withLogs, _ := cmd.Flags().GetBool("logs")
			if !withLogs {
				return
			}
			logs, err := svc.GetTaskLogs(args[0])
			if err != nil {
				log.GetLogger().Errorf("Failed to get task logs: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to get task logs: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Agent logs:\n")
			for _, l := range logs {
				fmt.Fprintf(os.Stdout, "- [%s] %s: %s\n", l.AgentName, l.Action, l.Reasoning)
			}
		},
	}
	getCmd.Flags().Bool("logs", false, "Include agent logs")

	agentsCmd := &cobra.Command{
		Use:   "agents",
		Short: "List available agents (CLI)",
		Run: func(cmd *cobra.Command, args []string) {
			svc, closeStore := initService(cmd, settings)
			defer closeStore()

			for _, info := range svc.ListAgents() {
				fmt.Fprintf(os.Stdout, "- %s: %s\n", info.Name, info.Description)
			}
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the GoReport HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			svc, closeStore := initService(cmd, settings)
			defer closeStore()

			port, _ := cmd.Flags().GetString("port")
			if port == "" {
				port = settings.HTTPPort
			}
			if err := internal_http.StartServer(port, svc); err != nil {
				log.GetLogger().Errorf("Server failed: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("port", "", "HTTP port (defaults to HTTP_PORT)")

	rootCmd.AddCommand(runCmd, listCmd, getCmd, agentsCmd, serveCmd)
}

func initService(cmd *cobra.Command, settings config.Settings) (*service.CoordinatorService, func()) {
	dbConnStr, err := cmd.Flags().GetString("db")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving db flag: %v", err)
		os.Exit(1)
	}
	if dbConnStr == "" {
		dbConnStr = settings.DatabaseURL
	}
	if dbConnStr == "" {
		fmt.Fprintln(os.Stderr, "Error: --db flag or DATABASE_URL required")
		os.Exit(1)
	}
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}

	client := llm.NewOllamaClient(settings.OllamaHost, settings.LLMTimeout)
	svc := service.NewCoordinatorService(store, client, settings.LLMModel, log.GetLogger())
	return svc, func() {
		if err := store.Close(); err != nil {
			log.GetLogger().Errorf("Failed to close store: %v", err)
		}
	}
}

func printJSON(v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to render output: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, string(raw))
}
