package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/matching"
	"github.com/obraflow/site-progress/internal/schedule"
	"github.com/obraflow/site-progress/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedule() []types.ActivityInput {
	return []types.ActivityInput{
		{Name: "Prumada", WeightPercent: 2, StartDate: "2025-03-24", DurationDays: 2},
		{Name: "Alvenaria", WeightPercent: 12, StartDate: "2025-03-24", DurationDays: 27},
	}
}

func newTestService(t *testing.T, cfg Config) (*Service, uuid.UUID) {
	t.Helper()
	svc := NewService(NewMemoryStore(), cfg)
	projectID := uuid.New()
	_, err := svc.RegisterSchedule(context.Background(), projectID, testSchedule())
	require.NoError(t, err)
	return svc, projectID
}

func observation(name string, percent float64) types.ProgressObservation {
	return types.ProgressObservation{
		ActivityNameRaw:         name,
		ObservedProgressPercent: percent,
		ObservedAt:              time.Date(2025, 4, 8, 10, 0, 0, 0, time.UTC),
	}
}

func TestRegisterSchedule_AssignsRevisions(t *testing.T) {
	svc := NewService(NewMemoryStore(), Config{})
	projectID := uuid.New()
	ctx := context.Background()

	first, err := svc.RegisterSchedule(ctx, projectID, testSchedule())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.RevisionID)

	second, err := svc.RegisterSchedule(ctx, projectID, testSchedule())
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.RevisionID)
}

func TestRegisterSchedule_InvalidInput(t *testing.T) {
	svc := NewService(NewMemoryStore(), Config{})

	_, err := svc.RegisterSchedule(context.Background(), uuid.New(), []types.ActivityInput{
		{Name: "alvenaria", WeightPercent: 10, StartDate: "2025-03-24", DurationDays: 5},
		{Name: "ALVENARIA", WeightPercent: 5, StartDate: "2025-03-24", DurationDays: 5},
	})

	var dupErr *schedule.DuplicateActivityError
	assert.ErrorAs(t, err, &dupErr)
}

func TestGetSchedule_NotFound(t *testing.T) {
	svc := NewService(NewMemoryStore(), Config{})

	_, err := svc.GetSchedule(context.Background(), uuid.New())

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestApplyObservation_Accepted(t *testing.T) {
	svc, projectID := newTestService(t, Config{})
	ctx := context.Background()

	result, err := svc.ApplyObservation(ctx, projectID, observation("Alvenaria", 45))
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, "alvenaria", result.ActivityName)
	require.NotNil(t, result.State)
	assert.Equal(t, 45.0, result.State.LastActualProgressPercent)
	assert.Equal(t, int64(1), result.State.Revision)
	// (12 * 45) / 14
	assert.InDelta(t, 38.57, result.ActualWeightedPercent, 0.01)
}

func TestApplyObservation_UnmatchedDoesNotContaminate(t *testing.T) {
	svc, projectID := newTestService(t, Config{})
	ctx := context.Background()

	_, err := svc.ApplyObservation(ctx, projectID, observation("alvenaria", 45))
	require.NoError(t, err)

	result, err := svc.ApplyObservation(ctx, projectID, observation("ceramica_piso", 80))
	require.NoError(t, err)

	assert.False(t, result.Accepted)
	assert.Equal(t, types.RejectNotInSchedule, result.RejectReason)
	assert.Nil(t, result.State)
	// Weighted actual unchanged by the rejection
	assert.InDelta(t, 38.57, result.ActualWeightedPercent, 0.01)

	// No phantom activity state was created
	snapshot, err := svc.Snapshot(ctx, projectID, types.NewDate(2025, 4, 8))
	require.NoError(t, err)
	assert.Len(t, snapshot.PerActivity, 2)

	// The rejection is still in the audit log
	rejected, err := svc.ListObservations(ctx, projectID, types.OutcomeRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "ceramica_piso", rejected[0].Observation.ActivityNameRaw)
	assert.Equal(t, types.RejectNotInSchedule, rejected[0].RejectReason)
}

func TestApplyObservation_AliasMatch(t *testing.T) {
	svc, projectID := newTestService(t, Config{
		Aliases: matching.AliasTable{"levantamento de parede": "alvenaria"},
	})

	result, err := svc.ApplyObservation(context.Background(), projectID, observation("Levantamento de Parede", 30))
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, "alvenaria", result.ActivityName)
}

func TestApplyObservation_ConfidenceGate(t *testing.T) {
	svc, projectID := newTestService(t, Config{MinConfidence: 0.5})
	ctx := context.Background()

	low := 0.3
	obs := observation("alvenaria", 45)
	obs.SourceConfidence = &low

	result, err := svc.ApplyObservation(ctx, projectID, obs)
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, types.RejectLowConfidence, result.RejectReason)
	assert.Equal(t, "alvenaria", result.ActivityName)

	high := 0.9
	obs.SourceConfidence = &high
	result, err = svc.ApplyObservation(ctx, projectID, obs)
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestApplyObservation_MissingConfidencePassesGate(t *testing.T) {
	svc, projectID := newTestService(t, Config{MinConfidence: 0.5})

	result, err := svc.ApplyObservation(context.Background(), projectID, observation("alvenaria", 45))
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestApplyObservation_RegressionBlocked(t *testing.T) {
	svc, projectID := newTestService(t, Config{})
	ctx := context.Background()

	_, err := svc.ApplyObservation(ctx, projectID, observation("alvenaria", 45))
	require.NoError(t, err)

	result, err := svc.ApplyObservation(ctx, projectID, observation("alvenaria", 40))
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, types.RejectRegressionBlocked, result.RejectReason)

	// State keeps the higher value
	snapshot, err := svc.Snapshot(ctx, projectID, types.NewDate(2025, 4, 8))
	require.NoError(t, err)
	assert.Equal(t, 45.0, snapshot.PerActivity[1].ActualPercent)
}

func TestApplyObservation_RegressionAllowed(t *testing.T) {
	svc, projectID := newTestService(t, Config{AllowProgressRegression: true})
	ctx := context.Background()

	_, err := svc.ApplyObservation(ctx, projectID, observation("alvenaria", 45))
	require.NoError(t, err)

	result, err := svc.ApplyObservation(ctx, projectID, observation("alvenaria", 40))
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, 40.0, result.State.LastActualProgressPercent)
	assert.Equal(t, int64(2), result.State.Revision)
}

func TestApplyObservation_EqualProgressIsNotRegression(t *testing.T) {
	svc, projectID := newTestService(t, Config{})
	ctx := context.Background()

	_, err := svc.ApplyObservation(ctx, projectID, observation("alvenaria", 45))
	require.NoError(t, err)

	result, err := svc.ApplyObservation(ctx, projectID, observation("alvenaria", 45))
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestApplyObservation_AuditLogOrder(t *testing.T) {
	svc, projectID := newTestService(t, Config{})
	ctx := context.Background()

	_, err := svc.ApplyObservation(ctx, projectID, observation("prumada", 100))
	require.NoError(t, err)
	_, err = svc.ApplyObservation(ctx, projectID, observation("ceramica_piso", 80))
	require.NoError(t, err)
	_, err = svc.ApplyObservation(ctx, projectID, observation("alvenaria", 45))
	require.NoError(t, err)

	records, err := svc.ListObservations(ctx, projectID, "")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, types.OutcomeAccepted, records[0].Outcome)
	assert.Equal(t, types.OutcomeRejected, records[1].Outcome)
	assert.Equal(t, types.OutcomeAccepted, records[2].Outcome)
	assert.Equal(t, int64(1), records[0].ScheduleRevision)
}

// conflictStore wraps MemoryStore and forces the first n PutState calls to
// fail with a revision conflict.
type conflictStore struct {
	*MemoryStore
	conflictsLeft int
}

func (c *conflictStore) PutState(ctx context.Context, state types.ActivityProgressState, expectedRevision int64) error {
	if c.conflictsLeft > 0 {
		c.conflictsLeft--
		return ErrRevisionConflict
	}
	return c.MemoryStore.PutState(ctx, state, expectedRevision)
}

func TestApplyObservation_RetriesOnRevisionConflict(t *testing.T) {
	store := &conflictStore{MemoryStore: NewMemoryStore(), conflictsLeft: 2}
	svc := NewService(store, Config{})
	projectID := uuid.New()
	ctx := context.Background()

	_, err := svc.RegisterSchedule(ctx, projectID, testSchedule())
	require.NoError(t, err)

	result, err := svc.ApplyObservation(ctx, projectID, observation("alvenaria", 45))
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, 45.0, result.State.LastActualProgressPercent)

	// Lost attempts must not leave extra accepted records
	accepted, err := svc.ListObservations(ctx, projectID, types.OutcomeAccepted)
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
}

// racingStore wraps MemoryStore so the first PutState loses to a concurrent
// writer: the competitor's value lands and the caller sees a conflict.
type racingStore struct {
	*MemoryStore
	competitorPercent float64
	raced             bool
}

func (r *racingStore) PutState(ctx context.Context, state types.ActivityProgressState, expectedRevision int64) error {
	if !r.raced {
		r.raced = true
		competitor := state
		competitor.LastActualProgressPercent = r.competitorPercent
		if err := r.MemoryStore.PutState(ctx, competitor, expectedRevision); err != nil {
			return err
		}
		return ErrRevisionConflict
	}
	return r.MemoryStore.PutState(ctx, state, expectedRevision)
}

func TestApplyObservation_LostRaceRejectionLeavesNoAcceptedRecord(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore(), competitorPercent: 50}
	svc := NewService(store, Config{})
	projectID := uuid.New()
	ctx := context.Background()

	_, err := svc.RegisterSchedule(ctx, projectID, testSchedule())
	require.NoError(t, err)

	// The competitor lands 50 first; the retry re-decides 45 as a regression
	result, err := svc.ApplyObservation(ctx, projectID, observation("alvenaria", 45))
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, types.RejectRegressionBlocked, result.RejectReason)

	// The rejected observation must not appear as accepted in the audit log
	accepted, err := svc.ListObservations(ctx, projectID, types.OutcomeAccepted)
	require.NoError(t, err)
	assert.Empty(t, accepted)

	rejected, err := svc.ListObservations(ctx, projectID, types.OutcomeRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, 45.0, rejected[0].Observation.ObservedProgressPercent)

	// The competitor's value is still the authoritative state
	state, err := store.GetState(ctx, projectID, "alvenaria")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 50.0, state.LastActualProgressPercent)
}

func TestApplyObservation_ConcurrencyErrorAfterMaxAttempts(t *testing.T) {
	store := &conflictStore{MemoryStore: NewMemoryStore(), conflictsLeft: maxApplyAttempts}
	svc := NewService(store, Config{})
	projectID := uuid.New()
	ctx := context.Background()

	_, err := svc.RegisterSchedule(ctx, projectID, testSchedule())
	require.NoError(t, err)

	_, err = svc.ApplyObservation(ctx, projectID, observation("alvenaria", 45))

	var concurrencyErr *ConcurrencyError
	require.ErrorAs(t, err, &concurrencyErr)
	assert.Equal(t, "alvenaria", concurrencyErr.ActivityName)
	assert.ErrorIs(t, err, ErrRevisionConflict)
}

func TestApplyObservation_UnknownProject(t *testing.T) {
	svc := NewService(NewMemoryStore(), Config{})

	_, err := svc.ApplyObservation(context.Background(), uuid.New(), observation("alvenaria", 45))

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
