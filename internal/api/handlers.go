package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/giftwell/edgegate/internal/api/presenter"
	"github.com/giftwell/edgegate/internal/buildinfo"
	"github.com/giftwell/edgegate/internal/cache"
	"github.com/giftwell/edgegate/internal/core"
)

// handleHealth responds with a simple OK status to indicate the gateway
// itself is healthy. Reachable even when the upstream is down.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAbout responds with service information including version and commit hash.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, buildinfo.GetBuildInfo(), http.StatusOK)
}

type StatsResponse struct {
	Cache       cache.Stats `json:"cache"`
	RateBuckets int         `json:"rate_buckets"`
}

// handleStats reports verification-cache counters and live rate buckets.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, StatsResponse{
		Cache:       s.cache.Stats(),
		RateBuckets: s.limiter.Len(),
	}, http.StatusOK)
}

// handleRateReset drops the rate bucket for a (scope, identity) pair so
// support can unblock a user without waiting for the window to pass.
func (s *Server) handleRateReset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := q.Get("scope")
	identity := q.Get("identity")
	if scope == "" || identity == "" {
		presenter.Error(w, r, "scope and identity parameters are required", http.StatusBadRequest)
		return
	}

	s.limiter.Reset(scope, identity)
	log.Ctx(r.Context()).Info().
		Str("scope", scope).
		Str("identity", identity).
		Msg("rate bucket reset")

	presenter.JSON(w, r, map[string]string{"status": "reset"}, http.StatusOK)
}

// handleListTasks responds with the list of tasks and their statuses.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.taskManager.ListStatus(), http.StatusOK)
}

type TriggerTaskResponse struct {
	Status string `json:"status"`
}

// handleTriggerTask triggers a specific task by name.
func (s *Server) handleTriggerTask(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		presenter.Error(w, r, "missing task name", http.StatusBadRequest)
		return
	}
	if err := s.taskManager.Trigger(name); err != nil {
		presenter.Error(w, r, err.Error(), http.StatusNotFound)
		return
	}
	presenter.JSON(w, r, TriggerTaskResponse{Status: "triggered"}, http.StatusOK)
}

// handleLogsForTask retrieves logs for a specific task.
func (s *Server) handleLogsForTask(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		presenter.Error(w, r, "missing task name", http.StatusBadRequest)
		return
	}
	logs, err := s.taskManager.GetLogs(name)
	if err != nil {
		presenter.Error(w, r, err.Error(), http.StatusNotFound)
		return
	}
	presenter.JSON(w, r, logs, http.StatusOK)
}

type recentAuditor interface {
	GetRecent(limit int) ([]core.AuditEntry, error)
}

// handleListAudits returns recent audit entries when the configured sink
// supports reading them back (the memory sink does; file does not).
func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.auditor.(recentAuditor)
	if !ok {
		presenter.Error(w, r, "configured audit sink is not readable", http.StatusNotImplemented)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v <= 0 {
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	entries, err := reader.GetRecent(limit)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to retrieve audit logs")
		presenter.Error(w, r, "failed to retrieve audit logs", http.StatusInternalServerError)
		return
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}
