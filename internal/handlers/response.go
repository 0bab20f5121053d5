package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// maxBodyBytes bounds request bodies; event payloads are tiny.
const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, logger *slog.Logger, r *http.Request, allowed ...string) {
	logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, logger, http.StatusMethodNotAllowed,
		fmt.Sprintf("Method not allowed. Supported: %s.", strings.Join(allowed, ", ")))
}

var errBadPath = errors.New("invalid path")

// parseWorldPath splits /v1/worlds[/{id}[/{action}]]. hasID is false for the
// collection path.
func parseWorldPath(path string) (id uuid.UUID, hasID bool, action string, err error) {
	rest := strings.Trim(strings.TrimPrefix(path, "/v1/worlds"), "/")
	if rest == "" {
		return uuid.Nil, false, "", nil
	}
	parts := strings.Split(rest, "/")
	if len(parts) > 2 {
		return uuid.Nil, false, "", errBadPath
	}
	id, err = uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, false, "", fmt.Errorf("%w: bad world id", errBadPath)
	}
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, true, action, nil
}

// requestLang prefers the lang query parameter over Accept-Language.
func requestLang(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	return r.Header.Get("Accept-Language")
}
