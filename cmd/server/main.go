package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"emirates-studios/internal/clock"
	"emirates-studios/internal/config"
	"emirates-studios/internal/db"
	"emirates-studios/internal/handlers"
	"emirates-studios/internal/models"
	"emirates-studios/internal/services"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "studio-server",
	Short: "Emirates Studios showcase server",
	Long: `Serves the Emirates Studios landing page and runs its testimonial and
portfolio carousels server-side, pushing slide changes to browsers over
WebSocket.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if verbose {
			cfg.Log.Level = "debug"
		}

		logger, err := newLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "studio.yaml", "path to the YAML config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds a zap logger from the log config
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Initialize database
	database, err := db.InitDatabase(cfg.Storage.DBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	store, err := services.NewShowcaseStore(cfg.Storage.DataPath, models.ShowcaseSettings{
		IntervalMs:   cfg.Carousel.IntervalMs,
		AutoAdvance:  cfg.Carousel.AutoAdvance,
		PauseOnHover: cfg.Carousel.PauseOnHover,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize showcase store: %w", err)
	}

	// Initialize services
	wsService := services.NewWebSocketService(logger)
	slideService := services.NewSlideService(database, logger)
	carouselService := services.NewCarouselService(slideService, store, wsService, clock.Real(), logger)
	wsService.SetCommandHandler(carouselService)
	go wsService.Run()
	defer wsService.Stop()

	if err := carouselService.Start(); err != nil {
		return fmt.Errorf("failed to start carousels: %w", err)
	}
	defer carouselService.Close()

	// Initialize handlers
	router := handlers.SetupRoutes(handlers.Handlers{
		Carousel:  handlers.NewCarouselHandler(carouselService, logger),
		Slides:    handlers.NewSlideHandler(slideService, carouselService, logger),
		Showcases: handlers.NewShowcaseHandler(store, slideService, carouselService, logger),
		WebSocket: handlers.NewWebSocketHandler(wsService, cfg.CORS.AllowedOrigins, logger),
		Static:    handlers.NewStaticHandler(cfg.Server.StaticDir, store.DataPath()),
	}, cfg.CORS.AllowedOrigins, logger)

	server := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if cfg.TLS.Enabled {
			server.TLSConfig = &tls.Config{
				MinVersion: getTLSVersion(cfg.TLS.MinVersion),
			}

			logger.Info("starting HTTPS server",
				zap.String("addr", server.Addr),
				zap.String("cert", cfg.TLS.CertFile),
				zap.String("key", cfg.TLS.KeyFile),
				zap.String("minVersion", cfg.TLS.MinVersion))
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			logger.Info("starting HTTP server", zap.String("addr", server.Addr))
			logger.Warn("HTTP mode is not recommended for production")
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// getTLSVersion converts string version to tls.Version constant
func getTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
