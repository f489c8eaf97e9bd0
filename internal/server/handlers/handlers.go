// Package handlers implements HTTP request handlers for the alarmd API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dwsmith1983/alarmd/internal/engine"
	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Handlers contains all HTTP handler dependencies.
type Handlers struct {
	engine *engine.Engine
	repo   *store.Instances
	logger *slog.Logger
}

// New creates a new Handlers instance.
func New(eng *engine.Engine) *Handlers {
	return &Handlers{
		engine: eng,
		repo:   eng.Repository(),
		logger: slog.Default(),
	}
}

// SetLogger overrides the default logger.
func (h *Handlers) SetLogger(l *slog.Logger) {
	if l != nil {
		h.logger = l
	}
}

// writeError logs the internal error and returns a sanitized JSON error to the client.
func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err, "status", status)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeEngineError maps lifecycle and store sentinels to status codes.
func (h *Handlers) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "instance not found", err)
	case errors.Is(err, engine.ErrInvalidTransition):
		h.writeError(w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, types.ErrInvalidInstance):
		h.writeError(w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, engine.ErrScheduler):
		h.writeError(w, http.StatusBadGateway, "wake scheduler unavailable", err)
	default:
		h.writeError(w, http.StatusInternalServerError, "instance store failure", err)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
