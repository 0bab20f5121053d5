package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/storyworld/internal/session"
	"github.com/jwebster45206/storyworld/pkg/narrator"
	"github.com/jwebster45206/storyworld/pkg/stories"
)

type CreateWorldRequest struct {
	Story string `json:"story"`
	Lang  string `json:"lang,omitempty"`
}

type EventsResponse struct {
	Events []session.Offer `json:"events"`
}

type WorldHandler struct {
	runner *session.Runner
	stream http.Handler
	logger *slog.Logger
}

func NewWorldHandler(runner *session.Runner, logger *slog.Logger) *WorldHandler {
	return &WorldHandler{
		runner: runner,
		logger: logger,
	}
}

// WithStream serves /v1/worlds/{id}/stream with s.
func (h *WorldHandler) WithStream(s http.Handler) *WorldHandler {
	h.stream = s
	return h
}

// ServeHTTP handles HTTP requests for world operations
// Routes:
// POST   /v1/worlds              - Create a world of a story
// GET    /v1/worlds/{id}         - Read a world
// DELETE /v1/worlds/{id}         - Delete a world
// GET    /v1/worlds/{id}/events  - List the events the narrator offers
// POST   /v1/worlds/{id}/events  - Trigger an event
// POST   /v1/worlds/{id}/reset   - Restart the story in place
// GET    /v1/worlds/{id}/stream  - Websocket feed of world changes
func (h *WorldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, hasID, action, err := parseWorldPath(r.URL.Path)
	if err != nil {
		h.logger.Warn("Invalid world path", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/worlds/{id}[/events|/reset|/stream]")
		return
	}

	switch {
	case !hasID:
		if r.Method != http.MethodPost {
			methodNotAllowed(w, h.logger, r, http.MethodPost)
			return
		}
		h.handleCreate(w, r)

	case action == "":
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			methodNotAllowed(w, h.logger, r, http.MethodGet, http.MethodDelete)
		}

	case action == "events":
		switch r.Method {
		case http.MethodGet:
			h.handleAvailable(w, r, id)
		case http.MethodPost:
			h.handleTrigger(w, r, id)
		default:
			methodNotAllowed(w, h.logger, r, http.MethodGet, http.MethodPost)
		}

	case action == "reset":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, h.logger, r, http.MethodPost)
			return
		}
		h.handleReset(w, r, id)

	case action == "stream" && h.stream != nil:
		h.stream.ServeHTTP(w, r)

	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown world action: "+action)
	}
}

func (h *WorldHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if err := validateBody(createWorldSchema, body); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	var req CreateWorldRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Lang == "" {
		req.Lang = requestLang(r)
	}

	snap, err := h.runner.Create(r.Context(), req.Story, req.Lang)
	if err != nil {
		if errors.Is(err, stories.ErrUnknownStory) {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.fail(w, err)
		return
	}
	w.Header().Set("Location", "/v1/worlds/"+snap.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, snap)
}

func (h *WorldHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	snap, err := h.runner.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, snap)
}

func (h *WorldHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.runner.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorldHandler) handleAvailable(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	offers, err := h.runner.Available(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, EventsResponse{Events: offers})
}

func (h *WorldHandler) handleTrigger(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if err := validateBody(eventSchema, body); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.runner.Trigger(r.Context(), id, body)
	if err != nil {
		if errors.Is(err, narrator.ErrUnknownEvent) || errors.Is(err, narrator.ErrMalformedEvent) {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.fail(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *WorldHandler) handleReset(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	snap, err := h.runner.Reset(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, snap)
}

func (h *WorldHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read request body")
		return nil, false
	}
	return body, true
}

// fail maps runner errors that carry no request fault.
func (h *WorldHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, "World not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, h.logger, http.StatusServiceUnavailable, "World is busy, try again")
	default:
		h.logger.Error("World request failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}
