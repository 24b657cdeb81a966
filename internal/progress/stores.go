package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/types"
)

// ScheduleStore persists schedule definitions, one document per revision.
// Saving assigns the next revision for the project and fully replaces the
// previous definition; lookups return the latest revision, or (nil, nil) when
// no schedule has been registered.
type ScheduleStore interface {
	SaveSchedule(ctx context.Context, projectID uuid.UUID, activities []types.Activity, createdAt time.Time) (*types.ScheduleDefinition, error)
	GetSchedule(ctx context.Context, projectID uuid.UUID) (*types.ScheduleDefinition, error)
}

// StateStore persists one ActivityProgressState per (project, activity).
// PutState is a compare-and-set: it must fail with ErrRevisionConflict when
// the stored revision no longer matches expectedRevision (0 for a state that
// does not exist yet).
type StateStore interface {
	GetState(ctx context.Context, projectID uuid.UUID, activityName string) (*types.ActivityProgressState, error)
	ListStates(ctx context.Context, projectID uuid.UUID) (map[string]types.ActivityProgressState, error)
	PutState(ctx context.Context, state types.ActivityProgressState, expectedRevision int64) error
}

// ObservationLog is the append-only audit trail. Records are never deleted,
// rejected observations included, so any snapshot can be reconstructed by
// replaying the log. An empty outcome filter lists everything.
type ObservationLog interface {
	AppendObservation(ctx context.Context, record types.ObservationRecord) error
	ListObservations(ctx context.Context, projectID uuid.UUID, outcome types.ObservationOutcome) ([]types.ObservationRecord, error)
}

// Store bundles the three persistence concerns; both the Postgres and the
// in-memory implementations satisfy it.
type Store interface {
	ScheduleStore
	StateStore
	ObservationLog
}
