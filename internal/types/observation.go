package types

import (
	"time"

	"github.com/google/uuid"
)

// ProgressObservation is a single externally-supplied data point reporting an
// activity's progress at a point in time, typically produced by the image
// analysis agents upstream of this engine.
type ProgressObservation struct {
	ActivityNameRaw         string    `json:"activity_name_raw"`
	ObservedProgressPercent float64   `json:"observed_progress_percent"`
	ObservedAt              time.Time `json:"observed_at"`
	SourceConfidence        *float64  `json:"source_confidence,omitempty"`
}

// ObservationOutcome records how the engine disposed of an observation.
type ObservationOutcome string

// Observation outcomes.
const (
	OutcomeAccepted ObservationOutcome = "accepted"
	OutcomeRejected ObservationOutcome = "rejected"
)

// RejectReason explains why an observation was excluded from the authoritative
// progress state. Rejections are expected, frequent outcomes, not faults.
type RejectReason string

// Rejection reasons.
const (
	RejectNotInSchedule     RejectReason = "not_in_schedule"
	RejectLowConfidence     RejectReason = "low_confidence"
	RejectRegressionBlocked RejectReason = "regression_blocked"
)

// ObservationRecord is an append-only audit entry. Every observation receives
// exactly one record matching its final disposition, so replaying the accepted
// history reconstructs the authoritative state and any snapshot.
type ObservationRecord struct {
	ID               uuid.UUID           `json:"id"`
	ProjectID        uuid.UUID           `json:"project_id"`
	ScheduleRevision int64               `json:"schedule_revision"`
	Observation      ProgressObservation `json:"observation"`
	Outcome          ObservationOutcome  `json:"outcome"`
	RejectReason     RejectReason        `json:"reject_reason,omitempty"`
	MatchedActivity  string              `json:"matched_activity,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}
