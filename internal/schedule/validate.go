package schedule

import (
	"fmt"

	"github.com/obraflow/site-progress/internal/matching"
	"github.com/obraflow/site-progress/internal/types"
)

// BuildActivities validates schedule-registration input and converts it to
// canonical activities with normalized names, preserving declaration order.
// Rejects negative weights, non-positive durations, and duplicate normalized
// names; a duplicate fails with DuplicateActivityError naming the key.
func BuildActivities(inputs []types.ActivityInput) ([]types.Activity, error) {
	if len(inputs) == 0 {
		return nil, &ValidationError{Message: "schedule has no activities"}
	}

	seen := make(map[string]bool, len(inputs))
	activities := make([]types.Activity, 0, len(inputs))

	for _, input := range inputs {
		name := matching.NormalizeName(input.Name)
		if name == "" {
			return nil, &ValidationError{Message: fmt.Sprintf("activity name %q is empty after normalization", input.Name)}
		}
		if seen[name] {
			return nil, &DuplicateActivityError{Name: name}
		}
		seen[name] = true

		if input.WeightPercent < 0 {
			return nil, &ValidationError{Message: fmt.Sprintf("activity %q has negative weight %.2f", name, input.WeightPercent)}
		}
		if input.DurationDays <= 0 {
			return nil, &ValidationError{Message: fmt.Sprintf("activity %q has non-positive duration %d", name, input.DurationDays)}
		}

		startDate, err := types.ParseDate(input.StartDate)
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("activity %q has invalid start date", name), Cause: err}
		}

		activities = append(activities, types.Activity{
			Name:          name,
			WeightPercent: input.WeightPercent,
			StartDate:     startDate,
			DurationDays:  input.DurationDays,
		})
	}

	return activities, nil
}
