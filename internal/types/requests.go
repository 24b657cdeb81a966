package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ActivityInput is one activity of a schedule-registration request.
type ActivityInput struct {
	Name          string  `json:"name" validate:"required,min=1"`
	WeightPercent float64 `json:"weight_percent" validate:"gte=0,lte=100"`
	StartDate     string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	DurationDays  int     `json:"duration_days" validate:"required,gt=0"`
}

// RegisterScheduleRequest replaces a project's schedule with a new revision.
type RegisterScheduleRequest struct {
	Activities []ActivityInput `json:"activities" validate:"required,min=1,dive"`
}

// SubmitObservationRequest reports one activity-progress observation.
// ObservedAt defaults to the submission time when omitted.
type SubmitObservationRequest struct {
	ActivityNameRaw         string     `json:"activity_name_raw" validate:"required,min=1"`
	ObservedProgressPercent float64    `json:"observed_progress_percent" validate:"gte=0,lte=100"`
	ObservedAt              *time.Time `json:"observed_at,omitempty"`
	SourceConfidence        *float64   `json:"source_confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// SubmitObservationBatchRequest reports several observations in one call.
type SubmitObservationBatchRequest struct {
	Observations []SubmitObservationRequest `json:"observations" validate:"required,min=1,dive"`
}

// Validate validates the RegisterScheduleRequest using the validator.
func (r *RegisterScheduleRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SubmitObservationRequest using the validator.
func (r *SubmitObservationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SubmitObservationBatchRequest using the validator.
func (r *SubmitObservationBatchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Observation converts the request to a ProgressObservation, filling in the
// observation time when the detector did not supply one.
func (r *SubmitObservationRequest) Observation(now time.Time) ProgressObservation {
	observedAt := now
	if r.ObservedAt != nil {
		observedAt = *r.ObservedAt
	}
	return ProgressObservation{
		ActivityNameRaw:         r.ActivityNameRaw,
		ObservedProgressPercent: r.ObservedProgressPercent,
		ObservedAt:              observedAt,
		SourceConfidence:        r.SourceConfidence,
	}
}
