// Package matching validates observation activity names against the canonical
// schedule. Matching is exact on normalized names, optionally widened by an
// externally supplied alias table. The engine does no fuzzy NLP; free-text
// interpretation belongs to the document and visual agents upstream.
package matching

import (
	"strings"

	"github.com/obraflow/site-progress/internal/types"
)

// NormalizeName normalizes an activity name for matching: lowercase, trimmed,
// internal whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// AliasTable maps alternate detector spellings to canonical activity names.
// Both sides are compared in normalized form.
type AliasTable map[string]string

// Resolve returns the canonical name for a normalized alias, if one exists.
func (t AliasTable) Resolve(normalized string) (string, bool) {
	if t == nil {
		return "", false
	}
	canonical, ok := t[normalized]
	if !ok {
		return "", false
	}
	return NormalizeName(canonical), true
}

// Result is the tagged outcome of matching an observation against a schedule:
// either a matched activity or a rejection reason. Unmatched observations must
// never create activities or contribute to weighted aggregates.
type Result struct {
	Activity *types.Activity
	Reason   types.RejectReason
}

// Matched reports whether the observation resolved to a schedule activity.
func (r Result) Matched() bool {
	return r.Activity != nil
}

// Match resolves a raw activity name against the schedule. Exact normalized
// lookup first, then the alias table; anything else is unmatched.
func Match(schedule *types.ScheduleDefinition, activityNameRaw string, aliases AliasTable) Result {
	normalized := NormalizeName(activityNameRaw)
	if normalized == "" {
		return Result{Reason: types.RejectNotInSchedule}
	}

	if activity, ok := schedule.Activity(normalized); ok {
		return Result{Activity: activity}
	}

	if canonical, ok := aliases.Resolve(normalized); ok {
		if activity, ok := schedule.Activity(canonical); ok {
			return Result{Activity: activity}
		}
	}

	return Result{Reason: types.RejectNotInSchedule}
}
