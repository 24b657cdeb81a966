package types

import (
	"time"

	"github.com/google/uuid"
)

// ActivityProgressState is the engine-owned last-known actual progress for one
// activity of one project. Revision is an optimistic-concurrency token: writes
// must present the revision they read, so concurrent observation application
// for the same activity serializes on a compare-and-set.
type ActivityProgressState struct {
	ProjectID                 uuid.UUID `json:"project_id"`
	ActivityName              string    `json:"activity_name"`
	LastActualProgressPercent float64   `json:"last_actual_progress_percent"`
	ObservedAt                time.Time `json:"observed_at"`
	Revision                  int64     `json:"revision"`
}
