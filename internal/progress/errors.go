// Package progress implements the actual-progress aggregator and the
// variance reconciler over a repository interface: observations are validated,
// folded into per-activity state with optimistic concurrency, and reconciled
// against the schedule's expected-progress curve.
package progress

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRevisionConflict is returned by StateStore implementations when a write
// presents a stale revision. The aggregator retries a bounded number of times
// before surfacing a ConcurrencyError.
var ErrRevisionConflict = errors.New("progress state revision conflict")

// NotFoundError indicates no schedule is registered for a project. Distinct
// from a registered-but-malformed schedule, which is a validation error.
type NotFoundError struct {
	ProjectID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no schedule registered for project %s", e.ProjectID)
}

// ConcurrencyError indicates observation application kept losing the
// compare-and-set race for an activity's state and ran out of retries.
type ConcurrencyError struct {
	ProjectID    uuid.UUID
	ActivityName string
	Attempts     int
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("failed to apply observation for %s/%s after %d attempts: %v",
		e.ProjectID, e.ActivityName, e.Attempts, ErrRevisionConflict)
}

func (e *ConcurrencyError) Unwrap() error {
	return ErrRevisionConflict
}
