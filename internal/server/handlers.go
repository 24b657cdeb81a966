package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/obraflow/site-progress/internal/types"
	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds how many observations of one batch are applied at
// once. Same-activity applications still serialize on the state revision.
const batchConcurrency = 4

// projectID extracts and parses the {id} path value.
func projectID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

// handleRegisterSchedule replaces the project's schedule with a new revision.
func (s *Server) handleRegisterSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req types.RegisterScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid schedule: "+err.Error())
		return
	}

	sched, err := s.engine.RegisterSchedule(r.Context(), id, req.Activities)
	if err != nil {
		s.engineErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, sched)
}

// handleGetSchedule returns the project's current schedule definition.
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	sched, err := s.engine.GetSchedule(r.Context(), id)
	if err != nil {
		s.engineErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, sched)
}

// handleSubmitObservation applies one observation. A rejection is a 200 with
// accepted=false, not an error: callers surface "detected but not tracked"
// to the user from the reject reason.
func (s *Server) handleSubmitObservation(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req types.SubmitObservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid observation: "+err.Error())
		return
	}

	result, err := s.engine.ApplyObservation(r.Context(), id, req.Observation(time.Now().UTC()))
	if err != nil {
		s.engineErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// BatchEntry is the per-observation outcome of a batch submission, in the
// order the observations were submitted.
type BatchEntry struct {
	Accepted     bool               `json:"accepted"`
	RejectReason types.RejectReason `json:"reject_reason,omitempty"`
	ActivityName string             `json:"activity_name,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// BatchResponse is the response for a batch observation submission.
type BatchResponse struct {
	Results               []BatchEntry `json:"results"`
	ActualWeightedPercent float64      `json:"actual_weighted_percent"`
}

// handleSubmitObservationBatch applies a batch of observations concurrently.
func (s *Server) handleSubmitObservationBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req types.SubmitObservationBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid batch: "+err.Error())
		return
	}

	now := time.Now().UTC()
	entries := make([]BatchEntry, len(req.Observations))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchConcurrency)
	for i, obsReq := range req.Observations {
		g.Go(func() error {
			result, err := s.engine.ApplyObservation(ctx, id, obsReq.Observation(now))
			if err != nil {
				entries[i] = BatchEntry{Error: err.Error()}
				return nil
			}
			entries[i] = BatchEntry{
				Accepted:     result.Accepted,
				RejectReason: result.RejectReason,
				ActivityName: result.ActivityName,
			}
			return nil
		})
	}
	_ = g.Wait() // entries capture per-observation failures

	snapshot, err := s.engine.Snapshot(r.Context(), id, types.Today())
	if err != nil {
		s.engineErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, BatchResponse{
		Results:               entries,
		ActualWeightedPercent: snapshot.ActualPercent,
	})
}

// handleListObservations returns the project's audit trail, optionally
// filtered by ?outcome=accepted|rejected.
func (s *Server) handleListObservations(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	outcome := types.ObservationOutcome(r.URL.Query().Get("outcome"))
	switch outcome {
	case "", types.OutcomeAccepted, types.OutcomeRejected:
	default:
		s.errorResponse(w, http.StatusBadRequest, "Invalid outcome filter")
		return
	}

	records, err := s.engine.ListObservations(r.Context(), id, outcome)
	if err != nil {
		s.engineErrorResponse(w, err)
		return
	}
	if records == nil {
		records = []types.ObservationRecord{}
	}

	s.jsonResponse(w, http.StatusOK, records)
}

// handleSnapshot reconciles the project at ?reference_date (default today).
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	referenceDate := types.Today()
	if raw := r.URL.Query().Get("reference_date"); raw != "" {
		parsed, err := types.ParseDate(raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid reference_date, expected YYYY-MM-DD")
			return
		}
		referenceDate = parsed
	}

	snapshot, err := s.engine.Snapshot(r.Context(), id, referenceDate)
	if err != nil {
		s.engineErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, snapshot)
}
