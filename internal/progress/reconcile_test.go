package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyVariance_InclusiveBoundary(t *testing.T) {
	assert.Equal(t, types.HealthOnTrack, ClassifyVariance(-5.0, 5))
	assert.Equal(t, types.HealthOnTrack, ClassifyVariance(5.0, 5))
	assert.Equal(t, types.HealthBehind, ClassifyVariance(-5.01, 5))
	assert.Equal(t, types.HealthAhead, ClassifyVariance(5.01, 5))
	assert.Equal(t, types.HealthOnTrack, ClassifyVariance(0, 5))
}

func TestBuildSnapshot_SiteScenario(t *testing.T) {
	// Two-activity schedule reconciled two weeks in: prumada finished, the
	// masonry behind, a stray tiling observation rejected upstream.
	sched := &types.ScheduleDefinition{
		ProjectID:  uuid.New(),
		RevisionID: 1,
		Activities: []types.Activity{
			{Name: "prumada", WeightPercent: 2, StartDate: types.NewDate(2025, 3, 24), DurationDays: 2},
			{Name: "alvenaria", WeightPercent: 12, StartDate: types.NewDate(2025, 3, 24), DurationDays: 27},
		},
	}
	states := map[string]types.ActivityProgressState{
		"prumada":   {ActivityName: "prumada", LastActualProgressPercent: 100},
		"alvenaria": {ActivityName: "alvenaria", LastActualProgressPercent: 45},
	}

	snapshot := BuildSnapshot(sched, states, types.NewDate(2025, 4, 8), Config{CalendarAdjustmentFactor: 1.0})

	assert.InDelta(t, 61.90, snapshot.ExpectedPercent, 0.01)
	assert.InDelta(t, 44.29, snapshot.ActualPercent, 0.01) // (2*100 + 12*45) / 14
	assert.InDelta(t, -17.62, snapshot.VariancePercent, 0.01)
	assert.Equal(t, types.HealthBehind, snapshot.Health)
	assert.False(t, snapshot.DegenerateWeights)

	require.Len(t, snapshot.PerActivity, 2)
	assert.Equal(t, "prumada", snapshot.PerActivity[0].Name)
	assert.Equal(t, types.StatusShouldBeComplete, snapshot.PerActivity[0].Status)
	assert.Equal(t, 100.0, snapshot.PerActivity[0].ActualPercent)

	assert.Equal(t, "alvenaria", snapshot.PerActivity[1].Name)
	assert.Equal(t, types.StatusInProgress, snapshot.PerActivity[1].Status)
	assert.InDelta(t, 55.56, snapshot.PerActivity[1].ExpectedPercent, 0.01)
	assert.Equal(t, 45.0, snapshot.PerActivity[1].ActualPercent)
}

func TestBuildSnapshot_Idempotent(t *testing.T) {
	sched := &types.ScheduleDefinition{
		ProjectID:  uuid.New(),
		RevisionID: 3,
		Activities: []types.Activity{
			{Name: "alvenaria", WeightPercent: 12, StartDate: types.NewDate(2025, 3, 24), DurationDays: 27},
		},
	}
	states := map[string]types.ActivityProgressState{
		"alvenaria": {ActivityName: "alvenaria", LastActualProgressPercent: 45},
	}
	ref := types.NewDate(2025, 4, 8)

	first := BuildSnapshot(sched, states, ref, Config{})
	second := BuildSnapshot(sched, states, ref, Config{})

	assert.Equal(t, first, second)
}

func TestBuildSnapshot_VarianceBoundary(t *testing.T) {
	// 10-day activity, 5 days in: expected exactly 50
	sched := &types.ScheduleDefinition{
		ProjectID: uuid.New(),
		Activities: []types.Activity{
			{Name: "alvenaria", WeightPercent: 100, StartDate: types.NewDate(2025, 3, 24), DurationDays: 10},
		},
	}
	ref := types.NewDate(2025, 3, 29)
	cfg := Config{CalendarAdjustmentFactor: 1.0}

	onTrack := BuildSnapshot(sched, map[string]types.ActivityProgressState{
		"alvenaria": {ActivityName: "alvenaria", LastActualProgressPercent: 45},
	}, ref, cfg)
	assert.InDelta(t, -5.0, onTrack.VariancePercent, 0.0001)
	assert.Equal(t, types.HealthOnTrack, onTrack.Health)

	behind := BuildSnapshot(sched, map[string]types.ActivityProgressState{
		"alvenaria": {ActivityName: "alvenaria", LastActualProgressPercent: 44.99},
	}, ref, cfg)
	assert.Equal(t, types.HealthBehind, behind.Health)
}

func TestBuildSnapshot_MissingStateCountsAsZero(t *testing.T) {
	sched := &types.ScheduleDefinition{
		ProjectID: uuid.New(),
		Activities: []types.Activity{
			{Name: "prumada", WeightPercent: 2, StartDate: types.NewDate(2025, 3, 24), DurationDays: 2},
			{Name: "alvenaria", WeightPercent: 12, StartDate: types.NewDate(2025, 3, 24), DurationDays: 27},
		},
	}

	snapshot := BuildSnapshot(sched, nil, types.NewDate(2025, 4, 8), Config{CalendarAdjustmentFactor: 1.0})

	assert.Equal(t, 0.0, snapshot.ActualPercent)
	assert.Equal(t, 0.0, snapshot.PerActivity[0].ActualPercent)
}

func TestBuildSnapshot_DegenerateWeights(t *testing.T) {
	sched := &types.ScheduleDefinition{
		ProjectID: uuid.New(),
		Activities: []types.Activity{
			{Name: "alvenaria", WeightPercent: 0, StartDate: types.NewDate(2025, 3, 24), DurationDays: 10},
		},
	}

	snapshot := BuildSnapshot(sched, nil, types.NewDate(2025, 4, 8), Config{})

	assert.True(t, snapshot.DegenerateWeights)
	assert.Equal(t, 0.0, snapshot.ExpectedPercent)
	assert.Equal(t, 0.0, snapshot.ActualPercent)
	assert.Equal(t, types.HealthOnTrack, snapshot.Health)
}

func TestComputeWeightedActual(t *testing.T) {
	sched := &types.ScheduleDefinition{
		Activities: []types.Activity{
			{Name: "prumada", WeightPercent: 2},
			{Name: "alvenaria", WeightPercent: 12},
		},
	}

	actual, degenerate := ComputeWeightedActual(sched, map[string]types.ActivityProgressState{
		"alvenaria": {ActivityName: "alvenaria", LastActualProgressPercent: 45},
	})
	assert.False(t, degenerate)
	assert.InDelta(t, 38.57, actual, 0.01) // (12*45) / 14

	actual, degenerate = ComputeWeightedActual(&types.ScheduleDefinition{}, nil)
	assert.True(t, degenerate)
	assert.Equal(t, 0.0, actual)
}

func TestServiceSnapshot_EndToEnd(t *testing.T) {
	svc, projectID := newTestService(t, Config{CalendarAdjustmentFactor: 1.0})
	ctx := context.Background()

	_, err := svc.ApplyObservation(ctx, projectID, types.ProgressObservation{
		ActivityNameRaw:         "Prumada",
		ObservedProgressPercent: 100,
		ObservedAt:              time.Date(2025, 3, 26, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = svc.ApplyObservation(ctx, projectID, types.ProgressObservation{
		ActivityNameRaw:         "alvenaria",
		ObservedProgressPercent: 45,
		ObservedAt:              time.Date(2025, 4, 8, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(ctx, projectID, types.NewDate(2025, 4, 8))
	require.NoError(t, err)

	assert.Equal(t, projectID, snapshot.ProjectID)
	assert.Equal(t, int64(1), snapshot.ScheduleRevision)
	assert.InDelta(t, 61.90, snapshot.ExpectedPercent, 0.01)
	assert.InDelta(t, 44.29, snapshot.ActualPercent, 0.01)
	assert.Equal(t, types.HealthBehind, snapshot.Health)
}
