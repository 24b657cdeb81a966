package schedule

import (
	"math"

	"github.com/obraflow/site-progress/internal/types"
)

// AdjustedDurationDays converts a working-day duration to calendar days using
// the configured adjustment factor. A non-positive factor falls back to 1.
func AdjustedDurationDays(durationDays int, factor float64) int {
	if factor <= 0 {
		factor = 1
	}
	return int(math.Ceil(float64(durationDays) * factor))
}

// EndDate returns the activity's derived end date:
// start_date + ceil(duration_days * factor) calendar days.
func EndDate(a types.Activity, factor float64) types.Date {
	return a.StartDate.AddDays(AdjustedDurationDays(a.DurationDays, factor))
}

// ComputeExpected returns the date-driven completion percentage implied purely
// by the schedule: 0 before the start date, 100 at or after the end date, and
// a linear interpolation over elapsed calendar-adjusted days in between.
func ComputeExpected(a types.Activity, referenceDate types.Date, factor float64) float64 {
	if referenceDate.Before(a.StartDate.Time) {
		return 0
	}

	end := EndDate(a, factor)
	if !referenceDate.Before(end.Time) {
		return 100
	}

	total := AdjustedDurationDays(a.DurationDays, factor)
	if total <= 0 {
		return 100
	}

	percent := float64(referenceDate.DaysSince(a.StartDate)) / float64(total) * 100
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// StatusOn classifies the activity against the reference date using the same
// [start_date, end_date) window as ComputeExpected.
func StatusOn(a types.Activity, referenceDate types.Date, factor float64) types.ActivityStatus {
	if referenceDate.Before(a.StartDate.Time) {
		return types.StatusNotStarted
	}
	if !referenceDate.Before(EndDate(a, factor).Time) {
		return types.StatusShouldBeComplete
	}
	return types.StatusInProgress
}

// ComputeWeightedExpected returns the weighted project-level expected progress
// and whether the schedule is degenerate (zero total weight). Weights are
// normalized by the sum actually declared, never by an assumed 100; a zero sum
// yields 0 rather than a division by zero.
func ComputeWeightedExpected(s *types.ScheduleDefinition, referenceDate types.Date, factor float64) (float64, bool) {
	totalWeight := s.TotalWeight()
	if totalWeight == 0 {
		return 0, true
	}

	weighted := 0.0
	for _, a := range s.Activities {
		weighted += a.WeightPercent * ComputeExpected(a, referenceDate, factor)
	}
	return weighted / totalWeight, false
}
