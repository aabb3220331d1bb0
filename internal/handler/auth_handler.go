package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/broadside/api/internal/auth"
	"github.com/freeeve/broadside/api/internal/model"
	"github.com/freeeve/broadside/api/internal/repository"
)

// AuthHandler handles password accounts, OAuth2 login and token refresh.
type AuthHandler struct {
	google        *auth.OAuthProvider // nil when Google sign-in is not configured
	jwtMgr        *auth.JWTManager
	userRepo      repository.UserRepository
	devMode       bool
	secureCookies bool
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(google *auth.OAuthProvider, jwtMgr *auth.JWTManager, userRepo repository.UserRepository, devMode, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		google:        google,
		jwtMgr:        jwtMgr,
		userRepo:      userRepo,
		devMode:       devMode,
		secureCookies: secureCookies,
	}
}

type authResponse struct {
	*auth.TokenPair
	User *model.User `json:"user,omitempty"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// issue writes a fresh token pair for user and sets the access cookie.
func (h *AuthHandler) issue(w http.ResponseWriter, status int, user *model.User) {
	tokens, err := h.jwtMgr.GenerateTokenPair(user.ID)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("Failed to generate tokens")
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	auth.SetAccessCookie(w, tokens.AccessToken, h.jwtMgr.AccessExpiry(), h.secureCookies)
	writeJSON(w, status, authResponse{TokenPair: tokens, User: user})
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = auth.NormalizeUsername(req.Username)
	if err := auth.ValidateCredentials(req.Username, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	user, err := h.userRepo.CreateWithPassword(r.Context(), req.Username, hash)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to create user")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	log.Info().Str("userId", user.ID).Str("username", user.Username).Msg("User registered")
	h.issue(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.userRepo.FindByUsername(r.Context(), auth.NormalizeUsername(req.Username))
	if err != nil {
		log.Error().Err(err).Msg("Failed to look up user")
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	h.issue(w, http.StatusOK, user)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearAccessCookie(w, h.secureCookies)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GoogleLogin redirects to Google's OAuth2 consent screen.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}
	state := auth.NewState()
	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((10 * time.Minute).Seconds()),
	})
	http.Redirect(w, r, h.google.LoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles the OAuth2 callback from Google.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}
	c, err := r.Cookie(auth.StateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code parameter")
		return
	}

	info, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("Google exchange failed")
		writeError(w, http.StatusUnauthorized, "oauth exchange failed")
		return
	}

	user, err := h.userRepo.Upsert(r.Context(), "google", info.ID, info.Name, info.Picture)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upsert Google user")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	h.issue(w, http.StatusOK, user)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := h.jwtMgr.ValidateToken(req.RefreshToken, auth.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	user, err := h.userRepo.FindByID(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("userId", claims.UserID).Msg("Failed to look up user")
		writeError(w, http.StatusInternalServerError, "failed to refresh token")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	h.issue(w, http.StatusOK, user)
}

// DevLogin creates or upserts a test user and returns a JWT token pair.
// Only available in dev mode.
func (h *AuthHandler) DevLogin(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	user, err := h.userRepo.Upsert(r.Context(), "dev", "dev-"+name, name, "")
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("Failed to upsert dev user")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	h.issue(w, http.StatusOK, user)
}
