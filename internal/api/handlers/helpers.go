package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"field-route-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeStrict decodes exactly one JSON object, rejecting unknown fields and
// trailing content.
func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// handleError maps domain errors to HTTP responses. Unknown errors are logged
// and hidden behind a generic 500.
func handleError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "validation failed",
			"details": map[string]string{
				verr.Field: verr.Message,
			},
		})
	case errors.Is(err, domain.ErrDepotNotFound):
		writeError(w, http.StatusNotFound, "depot not found")
	case errors.Is(err, domain.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "planning job not found")
	case errors.Is(err, domain.ErrNoWaypoints):
		writeError(w, http.StatusBadRequest, "no waypoints to plan")
	default:
		logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
