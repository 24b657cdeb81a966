package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/matching"
	"github.com/obraflow/site-progress/internal/schedule"
	"github.com/obraflow/site-progress/internal/types"
)

// Engine defaults. The 1.4 working-to-calendar-day factor comes from the
// planning convention used on site; it is injected configuration, not a
// correctness constant.
const (
	DefaultCalendarAdjustmentFactor = 1.4
	DefaultVarianceThresholdPercent = 5.0
)

// maxApplyAttempts bounds the compare-and-set retry loop in ApplyObservation.
const maxApplyAttempts = 3

// Config holds the engine tunables.
type Config struct {
	CalendarAdjustmentFactor float64
	MinConfidence            float64 // 0 disables the confidence gate
	AllowProgressRegression  bool
	VarianceThresholdPercent float64
	Aliases                  matching.AliasTable
}

// withDefaults fills unset numeric tunables with the engine defaults.
func (c Config) withDefaults() Config {
	if c.CalendarAdjustmentFactor <= 0 {
		c.CalendarAdjustmentFactor = DefaultCalendarAdjustmentFactor
	}
	if c.VarianceThresholdPercent <= 0 {
		c.VarianceThresholdPercent = DefaultVarianceThresholdPercent
	}
	return c
}

// Service is the stateless computation layer over the persistence store. All
// methods are safe for concurrent use; the only mutation point is
// ApplyObservation, which serializes per (project, activity) through the
// state store's compare-and-set.
type Service struct {
	store Store
	cfg   Config
}

// NewService creates a progress service over the given store.
func NewService(store Store, cfg Config) *Service {
	return &Service{store: store, cfg: cfg.withDefaults()}
}

// Config returns the effective engine configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// RegisterSchedule validates the activities and replaces the project's
// schedule with a new revision.
func (s *Service) RegisterSchedule(ctx context.Context, projectID uuid.UUID, inputs []types.ActivityInput) (*types.ScheduleDefinition, error) {
	activities, err := schedule.BuildActivities(inputs)
	if err != nil {
		return nil, err
	}

	sched, err := s.store.SaveSchedule(ctx, projectID, activities, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}
	return sched, nil
}

// GetSchedule returns the project's current schedule definition.
func (s *Service) GetSchedule(ctx context.Context, projectID uuid.UUID) (*types.ScheduleDefinition, error) {
	sched, err := s.store.GetSchedule(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if sched == nil {
		return nil, &NotFoundError{ProjectID: projectID}
	}
	return sched, nil
}

// ApplyResult reports how an observation was disposed of. A rejection is a
// normal outcome, not an error: the observation stays in the audit log but is
// excluded from the authoritative state.
type ApplyResult struct {
	Accepted              bool                         `json:"accepted"`
	RejectReason          types.RejectReason           `json:"reject_reason,omitempty"`
	ActivityName          string                       `json:"activity_name,omitempty"`
	State                 *types.ActivityProgressState `json:"state,omitempty"`
	ActualWeightedPercent float64                      `json:"actual_weighted_percent"`
}

// ApplyObservation validates an observation against the schedule and folds it
// into the per-activity progress state. Every decision is appended to the
// audit log exactly once: rejections as they are made, acceptances on the
// attempt that wins the state write. Concurrent applications for the same
// activity serialize on the state revision; the loop re-reads and re-decides
// on conflict, up to maxApplyAttempts.
func (s *Service) ApplyObservation(ctx context.Context, projectID uuid.UUID, obs types.ProgressObservation) (*ApplyResult, error) {
	sched, err := s.GetSchedule(ctx, projectID)
	if err != nil {
		return nil, err
	}

	match := matching.Match(sched, obs.ActivityNameRaw, s.cfg.Aliases)
	if !match.Matched() {
		return s.reject(ctx, sched, obs, match.Reason, "")
	}
	activity := match.Activity

	if obs.SourceConfidence != nil && s.cfg.MinConfidence > 0 && *obs.SourceConfidence < s.cfg.MinConfidence {
		return s.reject(ctx, sched, obs, types.RejectLowConfidence, activity.Name)
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		current, err := s.store.GetState(ctx, projectID, activity.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load progress state: %w", err)
		}

		currentPercent := 0.0
		currentRevision := int64(0)
		if current != nil {
			currentPercent = current.LastActualProgressPercent
			currentRevision = current.Revision
		}

		if !s.cfg.AllowProgressRegression && obs.ObservedProgressPercent < currentPercent {
			return s.reject(ctx, sched, obs, types.RejectRegressionBlocked, activity.Name)
		}

		updated := types.ActivityProgressState{
			ProjectID:                 projectID,
			ActivityName:              activity.Name,
			LastActualProgressPercent: obs.ObservedProgressPercent,
			ObservedAt:                obs.ObservedAt,
			Revision:                  currentRevision + 1,
		}

		err = s.store.PutState(ctx, updated, currentRevision)
		if errors.Is(err, ErrRevisionConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to persist progress state: %w", err)
		}

		// Accepted record only for the attempt that won the write: a lost
		// race re-decides, and may reject, so logging earlier would leave
		// accepted records the replayed history cannot reproduce.
		if err := s.appendRecord(ctx, sched, obs, types.OutcomeAccepted, "", activity.Name); err != nil {
			return nil, err
		}

		actual, err := s.weightedActual(ctx, sched)
		if err != nil {
			return nil, err
		}
		return &ApplyResult{
			Accepted:              true,
			ActivityName:          activity.Name,
			State:                 &updated,
			ActualWeightedPercent: actual,
		}, nil
	}

	return nil, &ConcurrencyError{ProjectID: projectID, ActivityName: activity.Name, Attempts: maxApplyAttempts}
}

// ListObservations returns the project's audit trail, optionally filtered by
// outcome, in append order.
func (s *Service) ListObservations(ctx context.Context, projectID uuid.UUID, outcome types.ObservationOutcome) ([]types.ObservationRecord, error) {
	records, err := s.store.ListObservations(ctx, projectID, outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	return records, nil
}

// reject records the rejection in the audit log and returns it as a normal
// result. The authoritative state and the weighted aggregate are untouched.
func (s *Service) reject(ctx context.Context, sched *types.ScheduleDefinition, obs types.ProgressObservation, reason types.RejectReason, matchedActivity string) (*ApplyResult, error) {
	if err := s.appendRecord(ctx, sched, obs, types.OutcomeRejected, reason, matchedActivity); err != nil {
		return nil, err
	}

	actual, err := s.weightedActual(ctx, sched)
	if err != nil {
		return nil, err
	}
	return &ApplyResult{
		Accepted:              false,
		RejectReason:          reason,
		ActivityName:          matchedActivity,
		ActualWeightedPercent: actual,
	}, nil
}

func (s *Service) appendRecord(ctx context.Context, sched *types.ScheduleDefinition, obs types.ProgressObservation, outcome types.ObservationOutcome, reason types.RejectReason, matchedActivity string) error {
	record := types.ObservationRecord{
		ID:               uuid.New(),
		ProjectID:        sched.ProjectID,
		ScheduleRevision: sched.RevisionID,
		Observation:      obs,
		Outcome:          outcome,
		RejectReason:     reason,
		MatchedActivity:  matchedActivity,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.AppendObservation(ctx, record); err != nil {
		return fmt.Errorf("failed to append observation record: %w", err)
	}
	return nil
}

func (s *Service) weightedActual(ctx context.Context, sched *types.ScheduleDefinition) (float64, error) {
	states, err := s.store.ListStates(ctx, sched.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to list progress states: %w", err)
	}
	actual, _ := ComputeWeightedActual(sched, states)
	return actual, nil
}
