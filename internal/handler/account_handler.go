package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mayabot/maya/internal/middleware"
	apierrors "github.com/mayabot/maya/internal/pkg/errors"
	"github.com/mayabot/maya/internal/pkg/response"
	"github.com/mayabot/maya/internal/service"
)

// AccountHandler serves the authenticated account surface.
type AccountHandler struct {
	data   *service.DataService
	logger *slog.Logger
}

// NewAccountHandler creates an account handler.
func NewAccountHandler(data *service.DataService, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{data: data, logger: logger}
}

// Routes returns a chi router with the account routes. Every route requires
// a valid session.
func (h *AccountHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Session(h.data))

	r.Get("/me", h.Me)
	r.Get("/connections", h.Connections)
	r.Get("/sessions", h.Sessions)
	r.Delete("/sessions/{id}", h.DestroySession)

	return r
}

// Me handles GET /account/me: the live Discord profile behind the session,
// fetched with a self-healing access token.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
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
		// The account row exists but its tokens were revoked.
		response.Error(w, apierrors.ErrNoAccount)
		return
	}

	response.OK(w, user)
}

// Connections handles GET /account/connections.
func (h *AccountHandler) Connections(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	conns, err := h.data.GetAccountConnections(r.Context(), session.DiscordUserID)
	if err != nil {
		h.logger.Error("connection list failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}

	response.OK(w, conns)
}

// Sessions handles GET /account/sessions: every open session for the user.
func (h *AccountHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	sessions, err := h.data.GetSessions(r.Context(), session.DiscordUserID)
	if err != nil {
		h.logger.Error("session list failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}

	response.OK(w, sessions)
}

// DestroySession handles DELETE /account/sessions/{id}. Users may only
// destroy their own sessions.
func (h *AccountHandler) DestroySession(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	id := chi.URLParam(r, "id")

	target, err := h.data.GetSession(r.Context(), id)
	if err != nil {
		h.logger.Error("session lookup failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}
	if target == nil || target.DiscordUserID != session.DiscordUserID {
		response.Error(w, apierrors.NewNotFoundError("session"))
		return
	}

	if err := h.data.DestroySession(r.Context(), id); err != nil {
		h.logger.Error("session destroy failed", slog.String("error", err.Error()))
		response.Error(w, apierrors.ErrInternal)
		return
	}

	response.NoContent(w)
}
