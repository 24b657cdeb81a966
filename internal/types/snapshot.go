package types

import "github.com/google/uuid"

// ActivityStatus classifies an activity against the reference date.
type ActivityStatus string

// Activity statuses derived from comparing the reference date to the
// activity's [start_date, end_date) window.
const (
	StatusNotStarted       ActivityStatus = "not_started"
	StatusInProgress       ActivityStatus = "in_progress"
	StatusShouldBeComplete ActivityStatus = "should_be_complete"
)

// ScheduleHealth classifies the variance between actual and expected progress.
type ScheduleHealth string

// Schedule health classifications.
const (
	HealthAhead   ScheduleHealth = "ahead"
	HealthOnTrack ScheduleHealth = "on_track"
	HealthBehind  ScheduleHealth = "behind"
)

// SnapshotRow is the per-activity line of a progress snapshot, emitted in the
// schedule's declaration order.
type SnapshotRow struct {
	Name            string         `json:"name"`
	WeightPercent   float64        `json:"weight_percent"`
	ExpectedPercent float64        `json:"expected_percent"`
	ActualPercent   float64        `json:"actual_percent"`
	Status          ActivityStatus `json:"status"`
}

// ProgressSnapshot is the reconciled view of a project's schedule at a
// reference date. It is recomputed on demand from the current schedule and
// progress states; identical inputs produce an identical snapshot.
type ProgressSnapshot struct {
	ProjectID         uuid.UUID      `json:"project_id"`
	ScheduleRevision  int64          `json:"schedule_revision"`
	ReferenceDate     Date           `json:"reference_date"`
	ExpectedPercent   float64        `json:"schedule_weighted_expected_percent"`
	ActualPercent     float64        `json:"actual_weighted_percent"`
	VariancePercent   float64        `json:"variance_percent"`
	Health            ScheduleHealth `json:"status"`
	DegenerateWeights bool           `json:"degenerate_weights,omitempty"`
	PerActivity       []SnapshotRow  `json:"per_activity"`
}
