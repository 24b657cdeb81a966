package server

import (
	"errors"
	"net/http"

	"github.com/obraflow/site-progress/internal/progress"
	"github.com/obraflow/site-progress/internal/schedule"
)

// statusForError maps engine errors to HTTP status codes. Rejected
// observations never reach here: a rejection is a normal result, not an error.
func statusForError(err error) int {
	var notFound *progress.NotFoundError
	var validation *schedule.ValidationError
	var duplicate *schedule.DuplicateActivityError
	var concurrency *progress.ConcurrencyError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &duplicate):
		return http.StatusBadRequest
	case errors.As(err, &concurrency):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// engineErrorResponse writes the engine error with its mapped status.
func (s *Server) engineErrorResponse(w http.ResponseWriter, err error) {
	s.errorResponse(w, statusForError(err), err.Error())
}
