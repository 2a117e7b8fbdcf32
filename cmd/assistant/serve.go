package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fikrfree/assistant/internal/api"
	"github.com/fikrfree/assistant/pkg/catalog"
	"github.com/fikrfree/assistant/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant HTTP server",
	Long: `Serve loads the product catalog, indexes it into the vector store
and exposes the chat API until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observability.InitMetrics()
	if err := observability.InitTracing(observability.TraceConfig{
		ServiceName:  "assistant",
		Enabled:      cfg.Tracing.Enabled,
		ExporterType: cfg.Tracing.ExporterType,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	}); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = observability.ShutdownTracing(shutdownCtx)
	}()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close()

	if err := indexCatalog(ctx, d); err != nil {
		return err
	}
	// A catalog reload must also rebuild the retrieval passages, or the
	// generative path keeps answering from the previous catalog.
	d.catalog.OnReload(func(*catalog.Index) {
		reindexCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := indexCatalog(reindexCtx, d); err != nil {
			logger.Error().Err(err).Msg("catalog re-index failed, retrieval passages are stale")
		}
	})
	if cfg.Catalog.WatchEnabled && len(cfg.Catalog.Paths) > 0 {
		if err := d.catalog.StartWatcher(cfg.Catalog.WatchCron); err != nil {
			return fmt.Errorf("start catalog watcher: %w", err)
		}
		logger.Info().Str("schedule", cfg.Catalog.WatchCron).Msg("catalog watcher started")
	}

	sweeper := startSessionSweeper(d, cfg.Sessions.SweepInterval)
	defer func() { <-sweeper.Stop().Done() }()

	feedback, err := api.NewFeedbackLog(cfg.Server.FeedbackFile)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}
	defer feedback.Close()

	server := api.NewServer(api.ServerOptions{
		Assistant: d.assistant,
		Feedback:  feedback,
		Health:    buildHealthChecker(d),
		Logger:    logger,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// startSessionSweeper evicts idle sessions on a fixed interval. The redis
// backend expires sessions via TTL, so its sweep only reconciles the index.
func startSessionSweeper(d *deps, interval time.Duration) *cron.Cron {
	c := cron.New()
	_, _ = c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		removed, err := d.sessions.Sweep(ctx)
		if err != nil {
			d.logger.Error().Err(err).Msg("session sweep failed")
			return
		}
		if removed > 0 {
			d.logger.Info().Int("removed", removed).Msg("expired sessions swept")
		}
	})
	c.Start()
	return c
}

func buildHealthChecker(d *deps) *observability.HealthChecker {
	checker := observability.NewHealthChecker()
	checker.RegisterCheck(&observability.HealthCheck{
		Name: "catalog",
		CheckFunc: func(context.Context) error {
			if d.catalog.Index().Len() == 0 {
				return errors.New("catalog is empty")
			}
			return nil
		},
	})
	if d.redis != nil {
		checker.RegisterCheck(&observability.HealthCheck{
			Name:      "redis",
			Critical:  true,
			CheckFunc: d.redis.Ping,
		})
	}
	return checker
}
