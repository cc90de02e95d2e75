// Package handler provides HTTP handlers for the web API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mayabot/maya/internal/discord"
	"github.com/mayabot/maya/internal/lichess"
	"github.com/mayabot/maya/internal/middleware"
	"github.com/mayabot/maya/internal/models"
	apierrors "github.com/mayabot/maya/internal/pkg/errors"
	"github.com/mayabot/maya/internal/pkg/response"
	"github.com/mayabot/maya/internal/service"
)

// AuthHandler handles login, logout and provider linking.
type AuthHandler struct {
	data          *service.DataService
	discord       *discord.Client
	lichess       *lichess.Client
	validate      *validator.Validate
	logger        *slog.Logger
	secureCookies bool
}

// NewAuthHandler creates an auth handler. secureCookies should be true
// whenever the web frontend is served over HTTPS.
func NewAuthHandler(
	data *service.DataService,
	discordClient *discord.Client,
	lichessClient *lichess.Client,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		data:          data,
		discord:       discordClient,
		lichess:       lichessClient,
		validate:      validator.New(),
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// Routes returns a chi router with the auth routes. Login starts
// unauthenticated; everything else requires a valid session.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/discord/url", h.DiscordAuthURL)
	r.Post("/discord", h.DiscordAuthorize)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(h.data))
		r.Get("/discord", h.DiscordCurrentUser)
		r.Delete("/discord", h.DiscordRevoke)
		r.Get("/lichess/url", h.LichessAuthURL)
		r.Post("/lichess", h.LichessLink)
		r.Delete("/lichess", h.LichessUnlink)
	})

	return r
}

// DiscordCurrentUser handles GET /auth/discord: the Discord profile behind
// the caller's session, fetched with a self-healing access token.
func (h *AuthHandler) DiscordCurrentUser(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	user, err := h.data.GetDiscordUser(r.Context(), session.DiscordUserID)
	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			response.Error(w, apierrors.ErrUpstreamProvider)
			return
		}
		h.logger.Error("discord user fetch failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}
	if user == nil {
		response.Error(w, apierrors.ErrNoAccount)
		return
	}

	response.OK(w, user)
}

// DiscordAuthURL handles GET /auth/discord/url. The frontend supplies an
// opaque state it verifies on callback.
func (h *AuthHandler) DiscordAuthURL(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		response.Error(w, apierrors.NewValidationError("state", "state is required"))
		return
	}
	response.OK(w, map[string]string{"url": h.discord.AuthCodeURL(state)})
}

// DiscordAuthorizeRequest is the body for POST /auth/discord.
type DiscordAuthorizeRequest struct {
	Code string `json:"code" validate:"required"`
}

// DiscordAuthorize handles POST /auth/discord: it exchanges the callback
// code, upserts the account, opens (or reuses) the caller's session and sets
// the session cookie.
func (h *AuthHandler) DiscordAuthorize(w http.ResponseWriter, r *http.Request) {
	var req DiscordAuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.Error(w, apierrors.NewValidationError("code", "code is required"))
		return
	}

	pair, err := h.discord.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		h.logger.Warn("discord code exchange failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrUpstreamProvider)
		return
	}

	user, err := h.discord.CurrentUser(r.Context(), pair.AccessToken)
	if err != nil {
		h.logger.Warn("discord user fetch failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrUpstreamProvider)
		return
	}

	account := &models.Account{
		UserID:       user.ID,
		AccessToken:  &pair.AccessToken,
		RefreshToken: &pair.RefreshToken,
		TokenType:    &pair.TokenType,
		ExpiresAt:    &pair.ExpiresAt,
		Scope:        &pair.Scope,
	}
	if err := h.data.CreateAccount(r.Context(), account); err != nil {
		h.logger.Error("account upsert failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}

	session, err := h.data.GetOrCreateSession(r.Context(), user.ID, middleware.RealIP(r), r.UserAgent())
	if err != nil {
		h.logger.Error("session creation failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}

	h.setSessionCookie(w, session.ID, 30*24*time.Hour)
	response.OK(w, user)
}

// DiscordRevoke handles DELETE /auth/discord: it revokes the OAuth tokens at
// Discord, clears them locally and destroys the caller's session.
func (h *AuthHandler) DiscordRevoke(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	if err := h.data.RevokeAccess(r.Context(), session.DiscordUserID); err != nil {
		if errors.Is(err, service.ErrUpstream) {
			response.Error(w, apierrors.ErrUpstreamProvider)
			return
		}
		h.logger.Error("revocation failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}

	if err := h.data.DestroySession(r.Context(), session.ID); err != nil {
		h.logger.Error("session destroy failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}

	h.setSessionCookie(w, "", -time.Hour)
	response.NoContent(w)
}

// LichessAuthURL handles GET /auth/lichess/url. The frontend holds the PKCE
// verifier and sends only the derived challenge.
func (h *AuthHandler) LichessAuthURL(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	challenge := r.URL.Query().Get("code_challenge")
	if state == "" || challenge == "" {
		response.Error(w, apierrors.NewValidationError("code_challenge", "state and code_challenge are required"))
		return
	}
	response.OK(w, map[string]string{"url": h.lichess.AuthCodeURL(state, challenge)})
}

// LichessLinkRequest is the body for POST /auth/lichess.
type LichessLinkRequest struct {
	Code         string `json:"code" validate:"required"`
	CodeVerifier string `json:"code_verifier" validate:"required"`
}

// LichessLink handles POST /auth/lichess: it exchanges the PKCE code and
// stores the lichess identity as a connection on the caller's account.
func (h *AuthHandler) LichessLink(w http.ResponseWriter, r *http.Request) {
	var req LichessLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.Error(w, apierrors.NewValidationError("code", "code and code_verifier are required"))
		return
	}

	token, err := h.lichess.ExchangeCode(r.Context(), req.Code, req.CodeVerifier)
	if err != nil {
		h.logger.Warn("lichess code exchange failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrUpstreamProvider)
		return
	}

	lichessAccount, err := h.lichess.CurrentAccount(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Warn("lichess account fetch failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrUpstreamProvider)
		return
	}

	session := middleware.GetSession(r.Context())
	conn := &models.AccountConnection{
		DiscordUserID:  session.DiscordUserID,
		ConnectionName: "lichess",
		UserID:         lichessAccount.ID,
		AccessToken:    token.AccessToken,
	}
	if err := h.data.CreateAccountConnection(r.Context(), conn); err != nil {
		h.logger.Error("connection create failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}

	response.Created(w, conn)
}

// LichessUnlink handles DELETE /auth/lichess.
func (h *AuthHandler) LichessUnlink(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	conn, err := h.data.GetAccountConnection(r.Context(), session.DiscordUserID, "lichess")
	if err != nil {
		h.logger.Error("connection lookup failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}
	if conn == nil {
		response.Error(w, apierrors.ErrNotLinked)
		return
	}

	if err := h.data.UnlinkAccountConnection(r.Context(), session.DiscordUserID, "lichess"); err != nil {
		h.logger.Error("connection unlink failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}

	response.NoContent(w)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
