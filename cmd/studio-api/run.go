package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/kreaite/studio-core/internal/api_server"
	"github.com/kreaite/studio-core/internal/config"
	"github.com/kreaite/studio-core/internal/events"
	"github.com/kreaite/studio-core/internal/queue"
	"github.com/kreaite/studio-core/internal/store"
	"github.com/kreaite/studio-core/pkg/log"
	"github.com/kreaite/studio-core/pkg/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the studio api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()
		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalf("initializing data store: %v", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			zap.S().Fatalf("running initial migration: %v", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		q := queue.New(
			queue.WithMaxConcurrent(cfg.Service.MaxConcurrentJobs),
			queue.WithRetention(cfg.Service.JobRetention),
			queue.WithCleanupInterval(cfg.Service.JobCleanupInterval),
		)
		registerProcessors(q)

		producer := events.NewEventProducer(&events.StdoutWriter{})
		defer func() { _ = producer.Close() }()

		q.Notify(func(e queue.Event) {
			if e.Type == queue.EventJobCreated {
				metrics.IncreaseJobsCreatedTotalMetric(string(e.Job.Type))
			}
			if e.Job.Status.Finished() && e.Job.CompletedAt != nil {
				metrics.ObserveJobDurationMetric(string(e.Job.Type), string(e.Job.Status), e.Job.CompletedAt.Sub(e.Job.CreatedAt).Seconds())
			}

			stats := q.Stats()
			metrics.UpdateJobsStatusCountMetric(string(queue.JobStatusPending), stats.Pending)
			metrics.UpdateJobsStatusCountMetric(string(queue.JobStatusProcessing), stats.Processing)
			metrics.UpdateJobsStatusCountMetric(string(queue.JobStatusCompleted), stats.Completed)
			metrics.UpdateJobsStatusCountMetric(string(queue.JobStatusFailed), stats.Failed)
			metrics.UpdateJobsStatusCountMetric(string(queue.JobStatusCancelled), stats.Cancelled)

			payload, err := json.Marshal(events.JobEvent{
				JobID:    e.Job.ID,
				UserID:   e.Job.UserID,
				JobType:  string(e.Job.Type),
				Status:   string(e.Job.Status),
				Progress: e.Job.Progress,
				Error:    e.Job.Error,
			})
			if err != nil {
				zap.S().Named("events").Errorw("failed to marshal job event", "error", err)
				return
			}
			if err := producer.Write(ctx, events.JobMessageKind, bytes.NewReader(payload)); err != nil {
				zap.S().Named("events").Errorw("failed to write job event", "error", err)
			}
		})

		q.StartJanitor(ctx)

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalf("creating listener: %s", err)
			}

			server := apiserver.New(cfg, s, q, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalf("Error running server: %s", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalf("creating listener: %s", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalf("Error running metrics server: %s", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
