package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/observability"
	"github.com/obraflow/site-progress/internal/schemas"
	"github.com/obraflow/site-progress/internal/types"
	"github.com/spf13/cobra"
)

var (
	submitProject    string
	submitFile       string
	submitActivity   string
	submitProgress   float64
	submitConfidence float64
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a progress observation",
	Long:  `Submit one activity-progress observation, either from a JSON file or from flags. Rejections are reported, not errors.`,
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitProject, "project", "", "Project UUID (required)")
	submitCmd.Flags().StringVar(&submitFile, "file", "", "Path to observation JSON")
	submitCmd.Flags().StringVar(&submitActivity, "activity", "", "Activity name as detected")
	submitCmd.Flags().Float64Var(&submitProgress, "progress", -1, "Observed progress percent (0-100)")
	submitCmd.Flags().Float64Var(&submitConfidence, "confidence", -1, "Detector confidence (0-1)")
	_ = submitCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(_ *cobra.Command, _ []string) error {
	projectID, err := uuid.Parse(submitProject)
	if err != nil {
		return fmt.Errorf("invalid project UUID: %w", err)
	}

	req, err := buildObservationRequest()
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid observation: %w", err)
	}

	ctx := context.Background()
	engine, closeStore, err := newEngine(ctx, false)
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := engine.ApplyObservation(ctx, projectID, req.Observation(time.Now().UTC()))
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	if !result.Accepted {
		printer.PrintRejection(req.ActivityNameRaw, result.RejectReason)
		return nil
	}

	fmt.Printf("Accepted: %s -> %.1f%% (project actual %.2f%%)\n",
		result.ActivityName, result.State.LastActualProgressPercent, result.ActualWeightedPercent)
	return nil
}

func buildObservationRequest() (*types.SubmitObservationRequest, error) {
	if submitFile != "" {
		if schemaPath := schemas.ResolveSchemaPath(schemas.ProgressObservationSchema); schemaPath != "" {
			if err := schemas.ValidateFile(schemaPath, submitFile); err != nil {
				return nil, fmt.Errorf("observation file failed schema validation: %w", err)
			}
		}

		data, err := os.ReadFile(submitFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read observation file: %w", err)
		}
		var req types.SubmitObservationRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to parse observation file: %w", err)
		}
		return &req, nil
	}

	if submitActivity == "" || submitProgress < 0 {
		return nil, fmt.Errorf("either --file or both --activity and --progress are required")
	}

	req := &types.SubmitObservationRequest{
		ActivityNameRaw:         submitActivity,
		ObservedProgressPercent: submitProgress,
	}
	if submitConfidence >= 0 {
		confidence := submitConfidence
		req.SourceConfidence = &confidence
	}
	return req, nil
}
