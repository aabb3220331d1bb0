package handler

import (
	"net/http"

	"github.com/freeeve/broadside/api/internal/auth"
	"github.com/freeeve/broadside/api/internal/middleware"
	"github.com/freeeve/broadside/api/internal/repository"
	"github.com/freeeve/broadside/api/internal/service"
)

// RouterDeps are the collaborators the HTTP routes are built from.
type RouterDeps struct {
	GameSvc       *service.GameService
	Users         repository.UserRepository
	Records       repository.PlayerRecordStore
	JWT           *auth.JWTManager
	Google        *auth.OAuthProvider // optional
	Hub           *Hub
	DevMode       bool
	SecureCookies bool
	AllowedOrigin string
}

// NewRouter registers every route. Game, user and score routes under
// /api/v1 require an access token; auth routes and the lobby do not.
func NewRouter(d RouterDeps) *http.ServeMux {
	authHandler := NewAuthHandler(d.Google, d.JWT, d.Users, d.DevMode, d.SecureCookies)
	userHandler := NewUserHandler(d.Users)
	scoreHandler := NewScoreHandler(d.Records)
	gameHandler := NewGameHandler(d.GameSvc)
	moveHandler := NewMoveHandler(d.GameSvc)
	wsHandler := NewWSHandler(d.Hub, d.JWT, d.AllowedOrigin)

	mux := http.NewServeMux()
	authMw := auth.Middleware(d.JWT)
	optionalMw := auth.OptionalMiddleware(d.JWT)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth (public)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /api/v1/auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /api/v1/auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("GET /api/v1/auth/dev", authHandler.DevLogin)

	// Guests see the public lobby.
	mux.Handle("GET /api/v1/lobby", optionalMw(http.HandlerFunc(gameHandler.Lobby)))

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("PATCH /users/me", userHandler.UpdateMe)
	api.HandleFunc("GET /users/{id}", userHandler.GetUser)
	api.HandleFunc("GET /scores", scoreHandler.ListScores)
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	api.HandleFunc("POST /games/{id}/board", gameHandler.SubmitBoard)
	api.HandleFunc("POST /games/{id}/board/auto", gameHandler.AutoPlace)
	api.HandleFunc("POST /games/{id}/moves", moveHandler.SubmitMove)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(middleware.JSON(api))))

	// WebSocket (auth via query param or cookie, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	return mux
}
