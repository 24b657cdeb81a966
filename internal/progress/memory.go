package progress

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/types"
)

// MemoryStore is an in-process Store implementation with the same revision
// semantics as the Postgres store. Used by tests, the CLI's --memory mode,
// and the audit-replay tool.
type MemoryStore struct {
	mu           sync.RWMutex
	schedules    map[uuid.UUID]*types.ScheduleDefinition
	states       map[uuid.UUID]map[string]types.ActivityProgressState
	observations map[uuid.UUID][]types.ObservationRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		schedules:    make(map[uuid.UUID]*types.ScheduleDefinition),
		states:       make(map[uuid.UUID]map[string]types.ActivityProgressState),
		observations: make(map[uuid.UUID][]types.ObservationRecord),
	}
}

// SaveSchedule replaces the project's schedule with the next revision.
func (m *MemoryStore) SaveSchedule(_ context.Context, projectID uuid.UUID, activities []types.Activity, createdAt time.Time) (*types.ScheduleDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	revision := int64(1)
	if prior, ok := m.schedules[projectID]; ok {
		revision = prior.RevisionID + 1
	}

	sched := &types.ScheduleDefinition{
		ProjectID:  projectID,
		RevisionID: revision,
		Activities: append([]types.Activity(nil), activities...),
		CreatedAt:  createdAt,
	}
	m.schedules[projectID] = sched

	copied := *sched
	return &copied, nil
}

// GetSchedule returns the latest schedule revision, or (nil, nil) when absent.
func (m *MemoryStore) GetSchedule(_ context.Context, projectID uuid.UUID) (*types.ScheduleDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sched, ok := m.schedules[projectID]
	if !ok {
		return nil, nil
	}
	copied := *sched
	copied.Activities = append([]types.Activity(nil), sched.Activities...)
	return &copied, nil
}

// GetState returns the activity's progress state, or (nil, nil) when absent.
func (m *MemoryStore) GetState(_ context.Context, projectID uuid.UUID, activityName string) (*types.ActivityProgressState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[projectID][activityName]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// ListStates returns all progress states for a project keyed by activity name.
func (m *MemoryStore) ListStates(_ context.Context, projectID uuid.UUID) (map[string]types.ActivityProgressState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[string]types.ActivityProgressState, len(m.states[projectID]))
	for name, state := range m.states[projectID] {
		states[name] = state
	}
	return states, nil
}

// PutState writes the state if the stored revision still matches
// expectedRevision (0 for no existing state); otherwise ErrRevisionConflict.
func (m *MemoryStore) PutState(_ context.Context, state types.ActivityProgressState, expectedRevision int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := int64(0)
	if existing, ok := m.states[state.ProjectID][state.ActivityName]; ok {
		current = existing.Revision
	}
	if current != expectedRevision {
		return ErrRevisionConflict
	}

	if m.states[state.ProjectID] == nil {
		m.states[state.ProjectID] = make(map[string]types.ActivityProgressState)
	}
	m.states[state.ProjectID][state.ActivityName] = state
	return nil
}

// AppendObservation appends an audit record. Records are never removed.
func (m *MemoryStore) AppendObservation(_ context.Context, record types.ObservationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observations[record.ProjectID] = append(m.observations[record.ProjectID], record)
	return nil
}

// ListObservations returns audit records in append order, optionally filtered
// by outcome.
func (m *MemoryStore) ListObservations(_ context.Context, projectID uuid.UUID, outcome types.ObservationOutcome) ([]types.ObservationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []types.ObservationRecord
	for _, record := range m.observations[projectID] {
		if outcome == "" || record.Outcome == outcome {
			records = append(records, record)
		}
	}
	return records, nil
}
