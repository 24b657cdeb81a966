package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/observability"
	"github.com/obraflow/site-progress/internal/schemas"
	"github.com/obraflow/site-progress/internal/types"
	"github.com/spf13/cobra"
)

var (
	registerProject  string
	registerSchedule string
	registerMemory   bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a project schedule",
	Long:  `Validate a schedule definition file against its JSON Schema and register it as the project's new revision.`,
	RunE:  runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerProject, "project", "", "Project UUID (required)")
	registerCmd.Flags().StringVar(&registerSchedule, "schedule", "", "Path to schedule definition JSON (required)")
	registerCmd.Flags().BoolVar(&registerMemory, "memory", false, "Use an in-memory store (dry run)")
	_ = registerCmd.MarkFlagRequired("project")
	_ = registerCmd.MarkFlagRequired("schedule")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(_ *cobra.Command, _ []string) error {
	projectID, err := uuid.Parse(registerProject)
	if err != nil {
		return fmt.Errorf("invalid project UUID: %w", err)
	}

	if schemaPath := schemas.ResolveSchemaPath(schemas.ScheduleDefinitionSchema); schemaPath != "" {
		if err := schemas.ValidateFile(schemaPath, registerSchedule); err != nil {
			return fmt.Errorf("schedule file failed schema validation: %w", err)
		}
	}

	data, err := os.ReadFile(registerSchedule)
	if err != nil {
		return fmt.Errorf("failed to read schedule file: %w", err)
	}

	var req types.RegisterScheduleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to parse schedule file: %w", err)
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	ctx := context.Background()
	engine, closeStore, err := newEngine(ctx, registerMemory)
	if err != nil {
		return err
	}
	defer closeStore()

	sched, err := engine.RegisterSchedule(ctx, projectID, req.Activities)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintSchedule(sched)
	return nil
}
