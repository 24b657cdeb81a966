package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/observability"
	"github.com/obraflow/site-progress/internal/types"
	"github.com/spf13/cobra"
)

var (
	snapshotProject string
	snapshotDate    string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the reconciled progress snapshot",
	Long:  `Reconcile expected and actual progress for a project at a reference date (default today) and print the result.`,
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotProject, "project", "", "Project UUID (required)")
	snapshotCmd.Flags().StringVar(&snapshotDate, "date", "", "Reference date YYYY-MM-DD (default today)")
	_ = snapshotCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(_ *cobra.Command, _ []string) error {
	projectID, err := uuid.Parse(snapshotProject)
	if err != nil {
		return fmt.Errorf("invalid project UUID: %w", err)
	}

	referenceDate := types.Today()
	if snapshotDate != "" {
		referenceDate, err = types.ParseDate(snapshotDate)
		if err != nil {
			return err
		}
	}

	ctx := context.Background()
	engine, closeStore, err := newEngine(ctx, false)
	if err != nil {
		return err
	}
	defer closeStore()

	snapshot, err := engine.Snapshot(ctx, projectID, referenceDate)
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintSnapshot(snapshot)
	return nil
}
