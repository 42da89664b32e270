package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/todoist-daily/internal/config"
	"github.com/teemow/todoist-daily/internal/daily"
	"github.com/teemow/todoist-daily/internal/instrumentation"
	"github.com/teemow/todoist-daily/internal/logging"
	"github.com/teemow/todoist-daily/internal/server"
	"github.com/teemow/todoist-daily/internal/todoist"
)

const metricsStartupTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Long: `Start the HTTP server that renders the daily task list.

Users log in with Todoist OAuth; the access token is kept in a cookie.

OAuth Configuration:
  --client-id / TODOIST_CLIENT_ID and --client-secret / TODOIST_CLIENT_SECRET
  are required. Set --base-url / BASE_URL to the public origin so the
  redirect URI sent to Todoist points back at this server.

Observability:
  Prometheus metrics are served on --metrics-addr (default :9090).
  Health checks are served on /healthz, /readyz and /healthz/detailed.
  Instrumentation is configured with the INSTRUMENTATION_* and OTEL_*
  environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger = logging.WithService(logger, instrumentation.DefaultServiceName)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during instrumentation shutdown", logging.Err(err))
		}
	}()
	metrics := provider.Metrics()

	if cfg.MetricsEnabled && provider.Enabled() {
		metricsServer, err := startMetricsServer(cfg.MetricsAddr, provider)
		if err != nil {
			return err
		}
		logger.Info("metrics server ready", "addr", metricsServer.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	redirectURL := cfg.RedirectURL()
	if redirectURL == "" {
		logger.Warn("BASE_URL not set, Todoist will redirect to the callback registered for the app")
	} else if err := server.ValidateHTTPSRequirement(cfg.BaseURL); err != nil {
		logger.Warn("insecure base URL", logging.Err(err))
	}

	oauth := todoist.NewOAuth(cfg.ClientID, cfg.ClientSecret, redirectURL,
		todoist.WithOAuthMetrics(metrics))

	newSource := func(ctx context.Context, token string) daily.Source {
		return todoist.NewClient(ctx, token,
			todoist.WithTimeout(cfg.TodoistTimeout),
			todoist.WithProjectLabel(cfg.ProjectName),
			todoist.WithMetrics(metrics),
			todoist.WithLogger(logger),
		)
	}

	srv, err := server.New(server.Config{
		BasePath:         cfg.BasePath,
		ProjectName:      cfg.ProjectName,
		Location:         cfg.Location,
		CookieKey:        cfg.CookieKey,
		CookieSecure:     cfg.CookieSecure,
		RateLimitRate:    cfg.RateLimitRate,
		RateLimitBurst:   cfg.RateLimitBurst,
		TrustProxy:       cfg.TrustProxy,
		FetchConcurrency: cfg.FetchConcurrency,
	}, oauth, newSource,
		server.WithMetrics(metrics),
		server.WithLogger(logger),
		server.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if len(cfg.CookieKey) == 0 {
		logger.Warn("COOKIE_ENCRYPTION_KEY not set, the token cookie is stored in plain text")
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.Start(cfg.HTTPAddr); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("http server gracefully stopped")
	return nil
}

// startMetricsServer starts the metrics server and waits until its port is bound.
func startMetricsServer(addr string, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(metricsStartupTimeout):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}
