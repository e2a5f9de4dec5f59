package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("writeJSON encode error", "err", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	writeJSON(w, logger, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// internalError logs err and answers with an opaque 500.
func internalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("internal error", "err", err, "method", r.Method, "path", r.URL.Path)
	writeError(w, logger, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// parseDepth reads a non-negative integer query parameter. An absent
// parameter yields 0.
func parseDepth(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, logger, http.StatusBadRequest, "INVALID_PARAM", "invalid "+name+": "+raw)
		return 0, false
	}
	return n, true
}
