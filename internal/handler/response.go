package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/auth"
	"github.com/freeeve/broadside/api/internal/logger"
	"github.com/freeeve/broadside/api/internal/service"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// maxBodyBytes caps request bodies; the largest is a 100-cell board.
const maxBodyBytes = 64 << 10

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// statusFor maps a service or engine error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, battleship.ErrNotYourTurn), errors.Is(err, battleship.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, battleship.ErrRoomFull), errors.Is(err, battleship.ErrInvalidState):
		return http.StatusConflict
	case battleship.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError responds with the mapped status. Internal failures are
// logged in full and reported opaquely.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, gameID string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		l := logger.ForGame(r.Context(), gameID)
		l.Error().Err(err).
			Str("userId", auth.UserIDFromContext(r.Context())).
			Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
