package api

import (
	"errors"
	"net/http"

	"github.com/storyarc/storyarc/internal/api/respond"
	"github.com/storyarc/storyarc/internal/jobqueue"
	"github.com/storyarc/storyarc/internal/model"
)

// writeServiceError maps service-layer errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var full *jobqueue.QueueFullError
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrConflict):
		respond.WriteError(w, http.StatusConflict, err.Error())
	case errors.As(err, &full):
		respond.WriteTooManyRequests(w, "generation queue is full, try again later")
	case errors.Is(err, jobqueue.ErrQueueClosed):
		respond.WriteError(w, http.StatusServiceUnavailable, "service is shutting down")
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
