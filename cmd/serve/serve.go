// Package serve implements the HTTP server command for the monitoring
// service.
package serve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AImitSK/skamp-monitoring/cmd/common"
	"github.com/AImitSK/skamp-monitoring/internal/api"
	"github.com/AImitSK/skamp-monitoring/internal/api/middleware"
	"github.com/AImitSK/skamp-monitoring/internal/scheduler"
)

const (
	signalChannelBufferSize = 1
	errorChannelBufferSize  = 1
	defaultShutdownTimeout  = 30 * time.Second
)

// Command returns the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring API server and the pass scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

// run starts the server and the scheduler, then blocks until a signal
// or a server error.
func run(ctx context.Context) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	app, err := common.BuildApp(deps)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Close()

	server := buildServer(deps, app)

	sched := scheduler.New(app.Orchestrator, deps.Config.Crawl.Schedule, deps.Logger)
	if startErr := sched.Start(); startErr != nil {
		return fmt.Errorf("failed to start scheduler: %w", startErr)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		if serveErr := server.Start(serveCtx); serveErr != nil {
			errChan <- serveErr
		}
	}()

	return waitForShutdown(deps, server, sched, errChan)
}

// buildServer wires the HTTP handlers and middleware.
func buildServer(deps *common.CommandDeps, app *common.App) *api.Server {
	security := middleware.NewSecurityMiddleware(middleware.Config{
		MonitoringSecret: deps.Config.Security.MonitoringSecret,
		AdminKey:         deps.Config.Security.AdminKey,
		RateLimit:        deps.Config.Security.RateLimit,
	}, deps.Logger)

	monitoring := api.NewMonitoringHandler(
		app.Orchestrator,
		app.TrackerSvc,
		app.Candidates,
		app.Trackers,
		app.Channels,
		app.Clippings,
		app.Settings,
		deps.Logger,
	)

	admin := api.NewAdminHandler(app.Orchestrator, app.Metrics, deps.Logger)

	return api.NewServer(api.ServerConfig{
		Address:      deps.Config.Server.Address,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}, security, monitoring, admin, deps.Logger)
}

// waitForShutdown blocks until a signal or server error, then shuts
// everything down gracefully.
func waitForShutdown(
	deps *common.CommandDeps,
	server *api.Server,
	sched *scheduler.Scheduler,
	errChan chan error,
) error {
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case serveErr := <-errChan:
		deps.Logger.Error("server error", "error", serveErr.Error())
		sched.Stop()
		return fmt.Errorf("server error: %w", serveErr)
	case sig := <-sigChan:
		deps.Logger.Info("shutdown signal received", "signal", sig.String())
	}

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	deps.Logger.Info("server stopped")
	return nil
}
