package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/evote/internal/logger"
)

var knownLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

func (h *Handlers) logLevelResponse() LogLevelResponse {
	return LogLevelResponse{
		Level:   strings.ToLower(h.Log.GetLevel().String()),
		HTTPLog: h.Log.IsHTTPLoggingEnabled(),
	}
}

func (h *Handlers) handleGetLogLevel(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.logLevelResponse())
}

// handleSetLogLevel changes the level and, optionally, request logging
func (h *Handlers) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req LogLevelRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if req.Level != "" {
		if !knownLevels[strings.ToLower(strings.TrimSpace(req.Level))] {
			h.respondError(w, r, BadRequest("Unknown log level: "+req.Level))
			return
		}
		h.Log.SetLevel(logger.ParseLevel(req.Level))
	}
	if req.HTTPLog != nil {
		if *req.HTTPLog {
			h.Log.EnableHTTPLogging()
		} else {
			h.Log.DisableHTTPLogging()
		}
	}

	resp := h.logLevelResponse()
	h.Log.Info("Logging settings changed", "level", resp.Level, "http_log", resp.HTTPLog)
	respondOK(w, resp)
}

// handleHealth pings the database
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	if h.Hub != nil {
		resp.Clients = h.Hub.ClientCount()
	}

	status := http.StatusOK
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			h.Log.Error("Health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	respondJSON(w, status, resp)
}
