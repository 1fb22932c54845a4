package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/giftwell/edgegate/internal/api"
	"github.com/giftwell/edgegate/internal/api/middleware"
	"github.com/giftwell/edgegate/internal/api/presenter"
	"github.com/giftwell/edgegate/internal/audit"
	"github.com/giftwell/edgegate/internal/cache"
	"github.com/giftwell/edgegate/internal/config"
	"github.com/giftwell/edgegate/internal/gateway"
	"github.com/giftwell/edgegate/internal/logging"
	"github.com/giftwell/edgegate/internal/rate"
	"github.com/giftwell/edgegate/internal/rules"
	"github.com/giftwell/edgegate/internal/tasks"
	"github.com/giftwell/edgegate/pkg/client"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the edge authentication gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		if err := requireConfigFlag(); err != nil {
			return err
		}
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.Bypass.Enabled {
			log.Warn().Msg("dev bypass is ENABLED; all requests carry a synthetic identity")
		}

		upstream := client.New(cfg.Upstream.BaseURL, cfg.App,
			client.WithServiceToken(cfg.Upstream.ServiceToken),
			client.WithTimeout(cfg.Upstream.Timeout),
			client.WithRetry(cfg.Upstream.MaxAttempts, cfg.Upstream.RetryBackoff),
		)

		decisionCache := cache.New(cache.TTLs{
			Allowed: cfg.Cache.AllowedTTL,
			Denied:  cfg.Cache.DeniedTTL,
			Error:   cfg.Cache.ErrorTTL,
		})
		limiter := rate.New(cfg.RateLimit.Limit, cfg.RateLimit.Window)

		rulesEngine, err := rules.Compile(cfg.Rules)
		if err != nil {
			return fmt.Errorf("compiling access rules: %w", err)
		}
		log.Info().Msgf("Compiled %d access rule(s)", rulesEngine.Len())

		auditor, err := audit.Build(cfg.Audit)
		if err != nil {
			return fmt.Errorf("building auditor: %w", err)
		}
		defer func() {
			if err := auditor.Close(); err != nil {
				log.Error().Err(err).Msg("closing auditor")
			}
		}()

		taskManager := tasks.NewManager()
		registerSweepers(taskManager, decisionCache, limiter)
		defer taskManager.Stop()

		forward, err := buildForwardProxy(cfg.Forward.Target)
		if err != nil {
			return fmt.Errorf("building forward proxy: %w", err)
		}

		gw := gateway.New(cfg, upstream, upstream, decisionCache, limiter, rulesEngine, auditor)
		srv := api.NewServer(decisionCache, limiter, taskManager, auditor)
		inner := srv.Routes(
			cfg.Routes.HealthPath,
			cfg.Routes.AdminPrefix,
			[]byte(cfg.Admin.SigningKey),
			forward,
		)

		server := &http.Server{
			Addr: addr,
			Handler: middleware.RecoverMiddleware(
				middleware.RequestIDMiddleware(
					middleware.LoggingMiddleware(cfg.Routes.HealthPath)(
						gw.Middleware(inner)))),
		}

		go func() {
			log.Info().Msgf("Starting gateway on %s (forwarding to %s)...", addr, cfg.Forward.Target)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down gateway...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Gateway exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
}

func buildForwardProxy(target string) (http.Handler, error) {
	targetURL, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(targetURL)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Ctx(r.Context()).Error().Err(err).Msg("downstream unreachable")
		presenter.Error(w, r, "downstream unavailable", http.StatusBadGateway)
	}
	return proxy, nil
}

func registerSweepers(m *tasks.Manager, decisionCache *cache.Cache, limiter *rate.Limiter) {
	m.Register("cache-sweep", time.Minute, func(_ context.Context, logger logging.InternalLogger) error {
		removed := decisionCache.Sweep()
		logger.Info("removed %d expired cache entries", removed)
		return nil
	})
	m.Register("bucket-sweep", time.Minute, func(_ context.Context, logger logging.InternalLogger) error {
		removed := limiter.Sweep()
		logger.Info("removed %d stale rate buckets", removed)
		return nil
	})
}
