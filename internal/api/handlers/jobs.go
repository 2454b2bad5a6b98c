package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"field-route-service/internal/api/dto"
	"field-route-service/internal/services"
)

// JobHandler exposes asynchronous planning: submit returns immediately with a
// job id, poll reports progress and the terminal result or error.
type JobHandler struct {
	Runner *services.JobRunner
	Logger zerolog.Logger
}

func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body dto.PlanRequest
	if err := decodeStrict(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	req, err := body.ToDomain()
	if err != nil {
		handleError(w, h.Logger, err)
		return
	}

	job, err := h.Runner.Submit(r.Context(), req)
	if err != nil {
		handleError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.SubmitJobResponse{
		JobID:  job.ID,
		Status: string(job.Status),
	})
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.Runner.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.Logger, err)
		return
	}

	progress := services.JobProgress(job, time.Now().UTC())
	writeJSON(w, http.StatusOK, dto.NewJobStatusResponse(job, progress))
}
