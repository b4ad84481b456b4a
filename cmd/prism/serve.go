package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/prism/internal/api"
	"github.com/newthinker/prism/internal/api/job"
	"github.com/newthinker/prism/internal/app"
	"github.com/newthinker/prism/internal/config"
	"github.com/newthinker/prism/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PRISM server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize logger
	log := logger.Must(debug)
	defer log.Sync()

	// Load config
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	a, err := app.New(cfg, logger.Named(log, "app"))
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	jobTTL := time.Duration(cfg.Server.JobTTLHours) * time.Hour
	if jobTTL <= 0 {
		jobTTL = time.Hour
	}
	maxJobs := cfg.Server.MaxJobs
	if maxJobs <= 0 {
		maxJobs = 100
	}
	jobStore := job.NewStore(maxJobs, jobTTL)

	log.Info("starting PRISM server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{
		JobStore: jobStore,
		Runner:   a.Runner(),
		Defaults: a.Options(),
		Engine:   a.Engine(),
		Reports:  a.Reports(),
		Metrics:  a.Metrics(),
	}, logger.Named(log, "api"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Expired job cleanup
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := jobStore.Cleanup(); removed > 0 {
					log.Debug("cleaned up expired jobs", zap.Int("removed", removed))
				}
				a.Metrics().SetJobsActive("analysis", jobStore.CountActive())
			}
		}
	}()

	// Periodic watchlist analysis
	if len(a.GetWatchlist()) > 0 {
		go func() {
			if err := a.Start(ctx); err != nil && err != context.Canceled {
				log.Error("watchlist loop stopped", zap.Error(err))
			}
		}()
	}

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down PRISM server")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}
