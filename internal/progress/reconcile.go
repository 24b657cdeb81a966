package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/schedule"
	"github.com/obraflow/site-progress/internal/types"
)

// ClassifyVariance maps a variance to a schedule health classification. The
// boundary is inclusive: a variance of exactly ±threshold is still on track.
func ClassifyVariance(variancePercent, thresholdPercent float64) types.ScheduleHealth {
	switch {
	case variancePercent < -thresholdPercent:
		return types.HealthBehind
	case variancePercent > thresholdPercent:
		return types.HealthAhead
	default:
		return types.HealthOnTrack
	}
}

// BuildSnapshot reconciles expected and actual progress into a snapshot. Pure
// function over its inputs: calling it twice with the same schedule, states,
// and reference date yields an identical snapshot. Per-activity rows follow
// the schedule's declaration order.
func BuildSnapshot(sched *types.ScheduleDefinition, states map[string]types.ActivityProgressState, referenceDate types.Date, cfg Config) *types.ProgressSnapshot {
	cfg = cfg.withDefaults()

	expected, degenerate := schedule.ComputeWeightedExpected(sched, referenceDate, cfg.CalendarAdjustmentFactor)
	actual, _ := ComputeWeightedActual(sched, states)
	variance := actual - expected

	rows := make([]types.SnapshotRow, 0, len(sched.Activities))
	for _, a := range sched.Activities {
		actualPercent := 0.0
		if state, ok := states[a.Name]; ok {
			actualPercent = state.LastActualProgressPercent
		}
		rows = append(rows, types.SnapshotRow{
			Name:            a.Name,
			WeightPercent:   a.WeightPercent,
			ExpectedPercent: schedule.ComputeExpected(a, referenceDate, cfg.CalendarAdjustmentFactor),
			ActualPercent:   actualPercent,
			Status:          schedule.StatusOn(a, referenceDate, cfg.CalendarAdjustmentFactor),
		})
	}

	return &types.ProgressSnapshot{
		ProjectID:         sched.ProjectID,
		ScheduleRevision:  sched.RevisionID,
		ReferenceDate:     referenceDate,
		ExpectedPercent:   expected,
		ActualPercent:     actual,
		VariancePercent:   variance,
		Health:            ClassifyVariance(variance, cfg.VarianceThresholdPercent),
		DegenerateWeights: degenerate,
		PerActivity:       rows,
	}
}

// Snapshot loads the project's schedule and progress states and reconciles
// them at the reference date. Pure read; never mutates the store, so callers
// may poll it freely.
func (s *Service) Snapshot(ctx context.Context, projectID uuid.UUID, referenceDate types.Date) (*types.ProgressSnapshot, error) {
	sched, err := s.GetSchedule(ctx, projectID)
	if err != nil {
		return nil, err
	}

	states, err := s.store.ListStates(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress states: %w", err)
	}

	return BuildSnapshot(sched, states, referenceDate, s.cfg), nil
}
