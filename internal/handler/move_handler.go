package handler

import (
	"net/http"

	"github.com/freeeve/broadside/api/internal/auth"
	"github.com/freeeve/broadside/api/internal/service"
)

// MoveHandler handles attacks.
type MoveHandler struct {
	gameSvc *service.GameService
}

// NewMoveHandler creates a MoveHandler.
func NewMoveHandler(gameSvc *service.GameService) *MoveHandler {
	return &MoveHandler{gameSvc: gameSvc}
}

// SubmitMove handles POST /api/v1/games/{id}/moves
func (h *MoveHandler) SubmitMove(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		Row *int `json:"row"`
		Col *int `json:"col"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Row == nil || req.Col == nil {
		writeError(w, http.StatusBadRequest, "row and col are required")
		return
	}

	game, err := h.gameSvc.SubmitMove(r.Context(), gameID, auth.UserIDFromContext(r.Context()), *req.Row, *req.Col)
	if err != nil {
		writeServiceError(w, r, err, gameID)
		return
	}
	writeGame(w, r, http.StatusOK, game)
}
