package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/obraflow/site-progress/internal/progress"
	"github.com/obraflow/site-progress/internal/types"
)

// GetState retrieves the progress state for one activity of a project.
// Returns (nil, nil) when no observation has been accepted yet.
func (db *DB) GetState(ctx context.Context, projectID uuid.UUID, activityName string) (*types.ActivityProgressState, error) {
	var state types.ActivityProgressState
	err := db.pool.QueryRow(ctx,
		`SELECT project_id, activity_name, last_actual_progress_percent, observed_at, revision
		 FROM progress_states
		 WHERE project_id = $1 AND activity_name = $2`,
		projectID, activityName,
	).Scan(&state.ProjectID, &state.ActivityName, &state.LastActualProgressPercent, &state.ObservedAt, &state.Revision)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress state: %w", err)
	}
	return &state, nil
}

// ListStates retrieves all progress states for a project keyed by activity name.
func (db *DB) ListStates(ctx context.Context, projectID uuid.UUID) (map[string]types.ActivityProgressState, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT project_id, activity_name, last_actual_progress_percent, observed_at, revision
		 FROM progress_states
		 WHERE project_id = $1`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]types.ActivityProgressState)
	for rows.Next() {
		var state types.ActivityProgressState
		if err := rows.Scan(&state.ProjectID, &state.ActivityName, &state.LastActualProgressPercent, &state.ObservedAt, &state.Revision); err != nil {
			return nil, fmt.Errorf("failed to scan progress state: %w", err)
		}
		states[state.ActivityName] = state
	}
	return states, nil
}

// PutState writes the state only if the stored revision still matches
// expectedRevision. A revision of 0 means the state must not exist yet.
// Returns progress.ErrRevisionConflict when the compare-and-set loses.
func (db *DB) PutState(ctx context.Context, state types.ActivityProgressState, expectedRevision int64) error {
	if expectedRevision == 0 {
		result, err := db.pool.Exec(ctx,
			`INSERT INTO progress_states (project_id, activity_name, last_actual_progress_percent, observed_at, revision)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (project_id, activity_name) DO NOTHING`,
			state.ProjectID, state.ActivityName, state.LastActualProgressPercent, state.ObservedAt, state.Revision,
		)
		if err != nil {
			return fmt.Errorf("failed to insert progress state: %w", err)
		}
		if result.RowsAffected() == 0 {
			return progress.ErrRevisionConflict
		}
		return nil
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE progress_states
		 SET last_actual_progress_percent = $3, observed_at = $4, revision = $5
		 WHERE project_id = $1 AND activity_name = $2 AND revision = $6`,
		state.ProjectID, state.ActivityName, state.LastActualProgressPercent, state.ObservedAt, state.Revision, expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return progress.ErrRevisionConflict
	}
	return nil
}
