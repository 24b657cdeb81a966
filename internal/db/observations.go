package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/types"
)

// AppendObservation stores an audit record. The table is append-only: records
// are never updated or deleted, rejected observations included.
func (db *DB) AppendObservation(ctx context.Context, record types.ObservationRecord) error {
	observationJSON, err := json.Marshal(record.Observation)
	if err != nil {
		return fmt.Errorf("failed to marshal observation: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO observations (id, project_id, schedule_revision, observation, outcome, reject_reason, matched_activity, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)`,
		record.ID, record.ProjectID, record.ScheduleRevision, observationJSON,
		string(record.Outcome), string(record.RejectReason), record.MatchedActivity, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append observation: %w", err)
	}
	return nil
}

// ListObservations retrieves audit records for a project in append order,
// optionally filtered by outcome.
func (db *DB) ListObservations(ctx context.Context, projectID uuid.UUID, outcome types.ObservationOutcome) ([]types.ObservationRecord, error) {
	query := `SELECT id, project_id, schedule_revision, observation, outcome,
	                 COALESCE(reject_reason, ''), COALESCE(matched_activity, ''), created_at
	          FROM observations
	          WHERE project_id = $1`
	args := []any{projectID}

	if outcome != "" {
		query += " AND outcome = $2"
		args = append(args, string(outcome))
	}
	query += " ORDER BY created_at, id"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer rows.Close()

	var records []types.ObservationRecord
	for rows.Next() {
		var record types.ObservationRecord
		var observationJSON []byte
		var outcomeStr, reasonStr string

		if err := rows.Scan(&record.ID, &record.ProjectID, &record.ScheduleRevision, &observationJSON,
			&outcomeStr, &reasonStr, &record.MatchedActivity, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		if err := json.Unmarshal(observationJSON, &record.Observation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal observation: %w", err)
		}
		record.Outcome = types.ObservationOutcome(outcomeStr)
		record.RejectReason = types.RejectReason(reasonStr)

		records = append(records, record)
	}
	return records, nil
}
