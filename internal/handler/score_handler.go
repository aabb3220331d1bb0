package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/model"
	"github.com/freeeve/broadside/api/internal/repository"
)

// ScoreHandler serves the leaderboard.
type ScoreHandler struct {
	records repository.PlayerRecordStore
}

// NewScoreHandler creates a ScoreHandler.
func NewScoreHandler(records repository.PlayerRecordStore) *ScoreHandler {
	return &ScoreHandler{records: records}
}

// ListScores handles GET /api/v1/scores
func (h *ScoreHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.records.ListScores(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list scores")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if scores == nil {
		scores = []model.Score{}
	}
	writeJSON(w, http.StatusOK, scores)
}
