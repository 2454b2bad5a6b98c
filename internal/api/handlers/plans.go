package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"field-route-service/internal/api/dto"
	"field-route-service/internal/services"
)

// PlanHandler exposes the synchronous planning endpoint. It blocks for the
// full planning duration; callers needing bounded latency should use the
// async job endpoints instead.
type PlanHandler struct {
	Planner *services.Planner
	Logger  zerolog.Logger
}

func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
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

	plan, err := h.Planner.Plan(r.Context(), req)
	if err != nil {
		handleError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPlanResponse(plan))
}
