package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetdeck/fleetdeck/internal/config"
	"github.com/fleetdeck/fleetdeck/internal/events"
	"github.com/fleetdeck/fleetdeck/internal/feed"
	"github.com/fleetdeck/fleetdeck/internal/server"
	"github.com/fleetdeck/fleetdeck/internal/store/postgres"
	"github.com/fleetdeck/fleetdeck/internal/ueba"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the fleetdeck server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create a client connection.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect to Postgres.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		// Create event publisher and feed subscriber.
		var publisher events.Publisher
		var subscriber events.Subscriber
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub

			sub, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				publisher.Close()
				store.Close()
				return err
			}
			subscriber = sub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (FLEETDECK_NATS_URL not set)")
		}

		// Feed service for sorted list queries (live subscriptions when NATS
		// is available).
		feedSvc := feed.New(store, subscriber, logger)

		// Behavioral tracker with its capped persistent log. Batch flushes go
		// to S3 when a bucket is configured.
		var dest ueba.Destination = ueba.NoopDestination{}
		if cfg.UEBAS3Bucket != "" {
			s3Dest, err := ueba.NewS3Destination(
				context.Background(),
				cfg.UEBAS3Bucket,
				cfg.UEBAS3Prefix,
				cfg.UEBAS3Region,
				cfg.UEBAS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 flush destination", "err", err)
			} else {
				dest = s3Dest
				logger.Info("S3 flush destination enabled", "bucket", cfg.UEBAS3Bucket, "prefix", cfg.UEBAS3Prefix)
			}
		}
		tracker := ueba.New(
			ueba.NewFileEventLog(cfg.UEBALogPath),
			logger,
			ueba.WithDestination(dest),
			ueba.WithPublisher(publisher),
		)

		// Start HTTP server.
		caseServer := server.NewCaseServer(store, feedSvc, publisher, tracker, logger)
		handler := server.LoggingMiddleware(logger, caseServer.NewHTTPHandler(cfg.AuthToken))
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: handler,
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("fleetdeck server started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		feedSvc.Close()
		tracker.Close()

		if subscriber != nil {
			subscriber.Close()
		}
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
