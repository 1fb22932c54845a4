// Package api exposes the gateway's own HTTP surface: the health probe
// and the JWT-guarded operational endpoints. Everything else is proxied
// through to the downstream application by the dispatcher.
package api

import (
	"net/http"

	"github.com/giftwell/edgegate/internal/api/middleware"
	"github.com/giftwell/edgegate/internal/audit"
	"github.com/giftwell/edgegate/internal/cache"
	"github.com/giftwell/edgegate/internal/core"
	"github.com/giftwell/edgegate/internal/rate"
	"github.com/giftwell/edgegate/internal/tasks"
)

type Server struct {
	cache       *cache.Cache
	limiter     *rate.Limiter
	taskManager *tasks.Manager
	auditor     core.Auditor
}

func NewServer(
	decisionCache *cache.Cache,
	limiter *rate.Limiter,
	taskManager *tasks.Manager,
	auditor core.Auditor,
) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}

	return &Server{
		cache:       decisionCache,
		limiter:     limiter,
		taskManager: taskManager,
		auditor:     auditor,
	}
}

// Routes builds the gateway-local mux: health, admin surface, and the
// forward handler for everything else. An empty signing key disables the
// admin surface entirely.
func (s *Server) Routes(healthPath, adminPrefix string, adminSigningKey []byte, forward http.Handler) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+healthPath, s.handleHealth)

	// admin routes
	if len(adminSigningKey) > 0 {
		adminMux := http.NewServeMux()
		adminMux.HandleFunc("GET "+adminPrefix+AboutRoute, s.handleAbout)
		adminMux.HandleFunc("GET "+adminPrefix+StatsRoute, s.handleStats)
		adminMux.HandleFunc("POST "+adminPrefix+RateResetRoute, s.handleRateReset)
		adminMux.HandleFunc("GET "+adminPrefix+ListTasksRoute, s.handleListTasks)
		adminMux.HandleFunc("POST "+adminPrefix+TriggerTaskRoute, s.handleTriggerTask)
		adminMux.HandleFunc("GET "+adminPrefix+LogsForTaskRoute, s.handleLogsForTask)
		adminMux.HandleFunc("GET "+adminPrefix+ListAuditsRoute, s.handleListAudits)
		mux.Handle(adminPrefix, middleware.AdminAuth(adminSigningKey)(adminMux))
	}

	// everything else goes downstream
	mux.Handle("/", forward)

	return mux
}
