package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/cli/config"
	httpctrl "github.com/taskdesk/taskdesk/pkg/controller/http"
	"github.com/taskdesk/taskdesk/pkg/service/worker"
	"github.com/taskdesk/taskdesk/pkg/usecase"
	"github.com/taskdesk/taskdesk/pkg/utils/async"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var enableMetrics bool
	var chatTimeout time.Duration
	var rebuildInterval time.Duration
	var rtCfg runtimeConfig
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("TASKDESK_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose Prometheus metrics on /metrics",
			Value:       true,
			Sources:     cli.EnvVars("TASKDESK_METRICS"),
			Destination: &enableMetrics,
		},
		&cli.DurationFlag{
			Name:        "chat-timeout",
			Usage:       "Upper bound of one chat request (0 for none)",
			Sources:     cli.EnvVars("TASKDESK_CHAT_TIMEOUT"),
			Destination: &chatTimeout,
		},
		&cli.DurationFlag{
			Name:        "rebuild-interval",
			Usage:       "Interval of the background embedding rebuild (0 disables it)",
			Sources:     cli.EnvVars("TASKDESK_REBUILD_INTERVAL"),
			Destination: &rebuildInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, rtCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			rt, err := rtCfg.build(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			var rebuildWorker *worker.EmbeddingRebuildWorker
			if rebuildInterval > 0 {
				rebuildWorker = worker.NewEmbeddingRebuildWorker(rt.uc.Embedding, rebuildInterval, usecase.ErrRebuildInProgress)
				if err := rebuildWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start embedding rebuild worker")
				}
			}

			server := &http.Server{
				Addr: addr,
				Handler: httpctrl.New(rt.uc,
					httpctrl.WithMetrics(enableMetrics),
					httpctrl.WithChatTimeout(chatTimeout),
				),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "metrics", enableMetrics)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop the rebuild worker first
				if rebuildWorker != nil {
					rebuildWorker.Stop()
				}

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				if err := async.Wait(shutdownCtx); err != nil {
					logging.Default().Warn("background jobs did not finish", "error", err.Error())
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
