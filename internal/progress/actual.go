package progress

import "github.com/obraflow/site-progress/internal/types"

// ComputeWeightedActual returns the weighted project-level actual progress and
// whether the schedule is degenerate (zero total weight). The weighting rule
// is identical to the expected-progress aggregate: normalize by the sum of
// declared weights, never by an assumed 100. Activities without a recorded
// state contribute 0.
func ComputeWeightedActual(s *types.ScheduleDefinition, states map[string]types.ActivityProgressState) (float64, bool) {
	totalWeight := s.TotalWeight()
	if totalWeight == 0 {
		return 0, true
	}

	weighted := 0.0
	for _, a := range s.Activities {
		if state, ok := states[a.Name]; ok {
			weighted += a.WeightPercent * state.LastActualProgressPercent
		}
	}
	return weighted / totalWeight, false
}
