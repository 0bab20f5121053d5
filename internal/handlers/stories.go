package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/storyworld/internal/session"
)

type StoriesResponse struct {
	Stories []session.StoryInfo `json:"stories"`
}

// StoriesHandler lists the bundled stories.
// GET /v1/stories?lang=cs
type StoriesHandler struct {
	runner *session.Runner
	logger *slog.Logger
}

func NewStoriesHandler(runner *session.Runner, logger *slog.Logger) *StoriesHandler {
	return &StoriesHandler{runner: runner, logger: logger}
}

func (h *StoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, r, http.MethodGet)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, StoriesResponse{Stories: h.runner.Stories(requestLang(r))})
}
