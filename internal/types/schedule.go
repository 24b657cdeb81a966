package types

import (
	"time"

	"github.com/google/uuid"
)

// Activity is a named, weighted unit of construction work with a planned
// start date and duration. Names are stored normalized (lowercase, trimmed,
// internal whitespace collapsed) and act as the join key for observations.
type Activity struct {
	Name          string  `json:"name"`
	WeightPercent float64 `json:"weight_percent"`
	StartDate     Date    `json:"start_date"`
	DurationDays  int     `json:"duration_days"` // working days; calendar-adjusted at computation time
}

// ScheduleDefinition is the complete, versioned set of activities for one
// project. A new revision fully replaces the previous one; activities are
// immutable within a revision. Declaration order is preserved so snapshot
// rows are emitted in a stable, diffable order.
type ScheduleDefinition struct {
	ProjectID  uuid.UUID  `json:"project_id"`
	RevisionID int64      `json:"revision_id"`
	Activities []Activity `json:"activities"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Activity looks up an activity by its normalized name.
func (s *ScheduleDefinition) Activity(name string) (*Activity, bool) {
	for i := range s.Activities {
		if s.Activities[i].Name == name {
			return &s.Activities[i], true
		}
	}
	return nil, false
}

// TotalWeight returns the sum of all declared activity weights. Callers must
// normalize aggregates by this sum, never by an assumed 100.
func (s *ScheduleDefinition) TotalWeight() float64 {
	total := 0.0
	for _, a := range s.Activities {
		total += a.WeightPercent
	}
	return total
}
