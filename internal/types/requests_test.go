package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScheduleRequest() *RegisterScheduleRequest {
	return &RegisterScheduleRequest{
		Activities: []ActivityInput{
			{Name: "alvenaria", WeightPercent: 12, StartDate: "2025-03-24", DurationDays: 27},
		},
	}
}

func TestRegisterScheduleRequest_Validate(t *testing.T) {
	assert.NoError(t, validScheduleRequest().Validate())
}

func TestRegisterScheduleRequest_Validate_NoActivities(t *testing.T) {
	req := &RegisterScheduleRequest{}
	assert.Error(t, req.Validate())
}

func TestRegisterScheduleRequest_Validate_BadDate(t *testing.T) {
	req := validScheduleRequest()
	req.Activities[0].StartDate = "24/03/2025"
	assert.Error(t, req.Validate())
}

func TestRegisterScheduleRequest_Validate_WeightOutOfRange(t *testing.T) {
	req := validScheduleRequest()
	req.Activities[0].WeightPercent = 101
	assert.Error(t, req.Validate())

	req = validScheduleRequest()
	req.Activities[0].WeightPercent = -1
	assert.Error(t, req.Validate())
}

func TestRegisterScheduleRequest_Validate_BadDuration(t *testing.T) {
	req := validScheduleRequest()
	req.Activities[0].DurationDays = 0
	assert.Error(t, req.Validate())
}

func TestSubmitObservationRequest_Validate(t *testing.T) {
	req := &SubmitObservationRequest{
		ActivityNameRaw:         "alvenaria",
		ObservedProgressPercent: 45,
	}
	assert.NoError(t, req.Validate())

	req.ObservedProgressPercent = 120
	assert.Error(t, req.Validate())

	req.ObservedProgressPercent = 45
	req.ActivityNameRaw = ""
	assert.Error(t, req.Validate())
}

func TestSubmitObservationRequest_Validate_Confidence(t *testing.T) {
	confidence := 0.8
	req := &SubmitObservationRequest{
		ActivityNameRaw:         "alvenaria",
		ObservedProgressPercent: 45,
		SourceConfidence:        &confidence,
	}
	assert.NoError(t, req.Validate())

	bad := 1.5
	req.SourceConfidence = &bad
	assert.Error(t, req.Validate())
}

func TestSubmitObservationBatchRequest_Validate(t *testing.T) {
	req := &SubmitObservationBatchRequest{
		Observations: []SubmitObservationRequest{
			{ActivityNameRaw: "alvenaria", ObservedProgressPercent: 45},
		},
	}
	assert.NoError(t, req.Validate())

	empty := &SubmitObservationBatchRequest{}
	assert.Error(t, empty.Validate())
}

func TestSubmitObservationRequest_Observation_DefaultsObservedAt(t *testing.T) {
	now := time.Date(2025, 4, 8, 10, 0, 0, 0, time.UTC)

	req := &SubmitObservationRequest{ActivityNameRaw: "alvenaria", ObservedProgressPercent: 45}
	obs := req.Observation(now)
	assert.Equal(t, now, obs.ObservedAt)

	explicit := time.Date(2025, 4, 7, 16, 30, 0, 0, time.UTC)
	req.ObservedAt = &explicit
	obs = req.Observation(now)
	require.Equal(t, explicit, obs.ObservedAt)
	assert.Equal(t, "alvenaria", obs.ActivityNameRaw)
	assert.Equal(t, 45.0, obs.ObservedProgressPercent)
}
