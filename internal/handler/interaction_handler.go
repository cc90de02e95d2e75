package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mayabot/maya/internal/bot"
	apierrors "github.com/mayabot/maya/internal/pkg/errors"
	"github.com/mayabot/maya/internal/pkg/response"
)

// InteractionHandler exposes the dispatch engine to the gateway worker. The
// worker decodes Discord gateway events and relays them here; replies flow
// back as JSON for it to render.
type InteractionHandler struct {
	dispatcher *bot.Dispatcher
	logger     *slog.Logger
}

// NewInteractionHandler creates an interaction handler.
func NewInteractionHandler(dispatcher *bot.Dispatcher, logger *slog.Logger) *InteractionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionHandler{dispatcher: dispatcher, logger: logger}
}

// Routes returns a chi router with the interaction routes.
func (h *InteractionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/commands", h.Command)
	r.Post("/buttons", h.Button)
	return r
}

// Command handles POST /interactions/commands.
func (h *InteractionHandler) Command(w http.ResponseWriter, r *http.Request) {
	var ev bot.CommandEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	reply, err := h.dispatcher.HandleCommand(r.Context(), &ev)
	if err != nil {
		if errors.Is(err, bot.ErrUnknownCommand) || errors.Is(err, bot.ErrUnknownSubcommand) {
			response.Error(w, apierrors.NewNotFoundError("command"))
			return
		}
		h.logger.Error("command dispatch failed",
			slog.String("command", ev.Name),
			slog.String("error", err.Error()),
		)
		response.Error(w, apierrors.ErrInternal)
		return
	}
	if reply == nil {
		response.NoContent(w)
		return
	}

	response.OK(w, reply)
}

// Button handles POST /interactions/buttons.
func (h *InteractionHandler) Button(w http.ResponseWriter, r *http.Request) {
	var ev bot.ButtonEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	reply, err := h.dispatcher.HandleButton(r.Context(), &ev)
	if err != nil {
		h.logger.Error("button dispatch failed",
			slog.String("custom_id", ev.CustomID),
			slog.String("error", err.Error()),
		)
		response.Error(w, apierrors.ErrInternal)
		return
	}
	if reply == nil {
		response.NoContent(w)
		return
	}

	response.OK(w, reply)
}
