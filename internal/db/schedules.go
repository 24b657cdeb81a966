package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/obraflow/site-progress/internal/types"
)

// SaveSchedule inserts a new schedule revision for the project. The revision
// counter is assigned in the insert so concurrent registrations cannot reuse
// a revision; the unique index on (project_id, revision_id) backs this up.
func (db *DB) SaveSchedule(ctx context.Context, projectID uuid.UUID, activities []types.Activity, createdAt time.Time) (*types.ScheduleDefinition, error) {
	activitiesJSON, err := json.Marshal(activities)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal activities: %w", err)
	}

	var revision int64
	err = db.pool.QueryRow(ctx,
		`INSERT INTO schedules (project_id, revision_id, activities, created_at)
		 VALUES ($1,
		         (SELECT COALESCE(MAX(revision_id), 0) + 1 FROM schedules WHERE project_id = $1),
		         $2, $3)
		 RETURNING revision_id`,
		projectID, activitiesJSON, createdAt,
	).Scan(&revision)
	if err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	return &types.ScheduleDefinition{
		ProjectID:  projectID,
		RevisionID: revision,
		Activities: activities,
		CreatedAt:  createdAt,
	}, nil
}

// GetSchedule retrieves the latest schedule revision for a project.
// Returns (nil, nil) when no schedule is registered.
func (db *DB) GetSchedule(ctx context.Context, projectID uuid.UUID) (*types.ScheduleDefinition, error) {
	var sched types.ScheduleDefinition
	var activitiesJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT project_id, revision_id, activities, created_at
		 FROM schedules
		 WHERE project_id = $1
		 ORDER BY revision_id DESC
		 LIMIT 1`,
		projectID,
	).Scan(&sched.ProjectID, &sched.RevisionID, &activitiesJSON, &sched.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	if err := json.Unmarshal(activitiesJSON, &sched.Activities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activities: %w", err)
	}

	return &sched, nil
}
