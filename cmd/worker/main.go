package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/physiotrack/clinic-api/internal/config"
	"github.com/physiotrack/clinic-api/internal/email"
	"github.com/physiotrack/clinic-api/internal/repository/postgres"
	backupService "github.com/physiotrack/clinic-api/internal/service/backup"
	"github.com/physiotrack/clinic-api/internal/service/notification"
	internalWorker "github.com/physiotrack/clinic-api/internal/worker"
	"github.com/physiotrack/clinic-api/pkg/logger"
	"github.com/physiotrack/clinic-api/pkg/messaging/redis"
	"github.com/physiotrack/clinic-api/pkg/metrics"
	"github.com/physiotrack/clinic-api/pkg/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.New("clinic_worker")

	outboxRepo := postgres.NewOutboxRepository(db)
	backupRepo := postgres.NewBackupRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)

	backupSvc := backupService.NewService(backupRepo, snapshotRepo, cfg.Backup, m, &log)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		Channel:       notification.Channel,
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval(),
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    time.Second,
	}, &log, m)

	sender := email.NewSMTPSender(cfg.SMTP)
	dispatcher := notification.NewDispatcher(broker, sender, cfg.SMTP.AdminEmail, &log)

	scheduler := internalWorker.NewBackupScheduler(backupSvc, 24*time.Hour, &log)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("notification dispatcher exited")
		}
	}()
	go func() {
		defer wg.Done()
		scheduler.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down workers")
	cancel()
	wg.Wait()
}
