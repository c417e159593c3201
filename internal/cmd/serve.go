package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chatrelay/chatrelay/internal/config"
	errwrap "github.com/chatrelay/chatrelay/internal/errors"
	"github.com/chatrelay/chatrelay/internal/metrics"
	"github.com/chatrelay/chatrelay/internal/observability"
	"github.com/chatrelay/chatrelay/internal/server"
	"github.com/chatrelay/chatrelay/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat gateway",
	Long: `Start the HTTP gateway with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config re-validation (restart to apply listener or provider changes)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		observability.InitServerLogger(AppName, cfg.Logging.Level, "production")
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(AppName, cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}
		metrics.SetServerStartTime(time.Now().Unix())

		router, primary, secondary, err := buildRouter(cfg)
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "provider configuration is invalid")
		}

		redacted := cfg.Redacted()
		logger.Info("Initializing gateway",
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("metrics_enabled", observability.MetricsEnabled()),
			zap.Int("metrics_port", observability.GetMetricsPort()),
			zap.Duration("min_interval", cfg.RateLimit.MinInterval),
			zap.String("primary", primary.ProviderID()),
			zap.String("secondary", secondary.ProviderID()),
			zap.String("primary_key", redacted.AILink.Primary.APIKey),
			zap.String("secondary_key", redacted.AILink.Secondary.APIKey))

		var health *handlers.HealthManager
		if cfg.Health.Enabled {
			health = handlers.NewHealthManager(versionInfo.Version)
			health.RegisterChecker("providers", handlers.ProviderConfigChecker(cfg.AILink))
			health.RegisterChecker("telemetry", handlers.TelemetryChecker(cfg.Metrics.Enabled))
		}

		chat := handlers.NewChatHandler(router)
		if cfg.Server.MaxBodyBytes > 0 {
			chat.MaxBodyBytes = cfg.Server.MaxBodyBytes
		}

		srv := server.New(server.Config{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AdminToken:     cfg.Admin.Token,
		}, server.Dependencies{Chat: chat, Health: health})

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 10 * time.Second
		}

		// LIFO: the server stops before the logger is flushed.
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			observability.Sync()
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: re-validating configuration")
			return reloadConfig(ctx)
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 2)
		go func() {
			logger.Info("Starting HTTP server...", zap.String("addr", srv.Addr()))
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
		go func() {
			// Listen returns once shutdown handlers have run.
			err := signals.Listen(cmd.Context())
			if err != nil {
				logger.Error("Signal handler error", zap.Error(err))
			}
			errChan <- err
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}
		return nil
	},
}

// reloadConfig re-reads the config file and validates it. Running listeners
// and provider clients keep their settings until restart.
func reloadConfig(ctx context.Context) error {
	logger := observability.ServerLogger
	v := viper.GetViper()

	used, err := config.ReadFile(v, cfgFile)
	if err != nil {
		logger.Error("Failed to reload config file", zap.Error(err))
		return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
	}
	if _, err := config.Load(v); err != nil {
		logger.Error("Reloaded configuration is invalid", zap.Error(err))
		return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
	}

	logger.Info("Configuration re-validated; restart to apply listener or provider changes",
		zap.String("file", used))
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 3000, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
