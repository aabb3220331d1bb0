package handler

import (
	"net/http"

	"github.com/freeeve/broadside/api/internal/auth"
	"github.com/freeeve/broadside/api/internal/service"
	"github.com/freeeve/broadside/api/pkg/battleship"
)

// GameHandler handles game lifecycle endpoints.
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// writeGame responds with the requester's view of g.
func writeGame(w http.ResponseWriter, r *http.Request, status int, g *battleship.Game) {
	viewer := battleship.Human(auth.UserIDFromContext(r.Context()))
	writeJSON(w, status, g.ViewFor(viewer))
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		IsAI bool `json:"is_ai"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	game, err := h.gameSvc.CreateGame(r.Context(), userID, req.IsAI)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeGame(w, r, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	lobby, err := h.gameSvc.ListGames(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

// Lobby handles GET /api/v1/lobby. Signed-in users get their categorized
// lobby; guests get the public view.
func (h *GameHandler) Lobby(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID != "" {
		h.ListGames(w, r)
		return
	}
	lobby, err := h.gameSvc.ListGamesForGuest(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.gameSvc.GetGame(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, r, err, gameID)
		return
	}
	writeGame(w, r, http.StatusOK, game)
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.gameSvc.JoinGame(r.Context(), gameID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, gameID)
		return
	}
	writeGame(w, r, http.StatusOK, game)
}

// SubmitBoard handles POST /api/v1/games/{id}/board. The board may be a
// 10x10 array or a flat row-major array of 100 cells.
func (h *GameHandler) SubmitBoard(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	var req struct {
		Board *battleship.Board `json:"board"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid board: "+err.Error())
		return
	}
	if req.Board == nil {
		writeError(w, http.StatusBadRequest, "board is required")
		return
	}

	game, err := h.gameSvc.SubmitBoard(r.Context(), gameID, auth.UserIDFromContext(r.Context()), *req.Board)
	if err != nil {
		writeServiceError(w, r, err, gameID)
		return
	}
	writeGame(w, r, http.StatusOK, game)
}

// AutoPlace handles POST /api/v1/games/{id}/board/auto
func (h *GameHandler) AutoPlace(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.gameSvc.AutoPlaceBoard(r.Context(), gameID, auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, gameID)
		return
	}
	writeGame(w, r, http.StatusOK, game)
}
