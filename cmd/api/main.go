package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/physiotrack/clinic-api/internal/config"
	"github.com/physiotrack/clinic-api/internal/handler"
	appointmentHandler "github.com/physiotrack/clinic-api/internal/handler/appointment"
	authHandler "github.com/physiotrack/clinic-api/internal/handler/auth"
	backupHandler "github.com/physiotrack/clinic-api/internal/handler/backup"
	contactHandler "github.com/physiotrack/clinic-api/internal/handler/contact"
	serviceHandler "github.com/physiotrack/clinic-api/internal/handler/service"
	testimonialHandler "github.com/physiotrack/clinic-api/internal/handler/testimonial"
	"github.com/physiotrack/clinic-api/internal/middleware"
	"github.com/physiotrack/clinic-api/internal/repository/postgres"
	"github.com/physiotrack/clinic-api/internal/router"
	appointmentService "github.com/physiotrack/clinic-api/internal/service/appointment"
	backupService "github.com/physiotrack/clinic-api/internal/service/backup"
	"github.com/physiotrack/clinic-api/internal/service/catalog"
	contactService "github.com/physiotrack/clinic-api/internal/service/contact"
	eventService "github.com/physiotrack/clinic-api/internal/service/event"
	testimonialService "github.com/physiotrack/clinic-api/internal/service/testimonial"
	userService "github.com/physiotrack/clinic-api/internal/service/user"
	"github.com/physiotrack/clinic-api/pkg/auth"
	"github.com/physiotrack/clinic-api/pkg/logger"
	"github.com/physiotrack/clinic-api/pkg/metrics"
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

	middleware.RegisterValidators()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(cfg.Database, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	m := metrics.New("clinic")

	appointmentRepo := postgres.NewAppointmentRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	userRepo := postgres.NewUserRepository(db)
	testimonialRepo := postgres.NewTestimonialRepository(db)
	contactRepo := postgres.NewContactRepository(db)
	backupRepo := postgres.NewBackupRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	emitter := eventService.NewService(outboxRepo, &log)

	appointmentSvc := appointmentService.NewService(appointmentRepo, serviceRepo, emitter, m, &log)
	catalogSvc := catalog.NewService(serviceRepo, &log)
	userSvc := userService.NewService(userRepo, jwtService, &log)
	testimonialSvc := testimonialService.NewService(testimonialRepo)
	contactSvc := contactService.NewService(contactRepo)
	backupSvc := backupService.NewService(backupRepo, snapshotRepo, cfg.Backup, m, &log)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	healthH := handler.NewHealthHandler(db)

	appointmentH := appointmentHandler.NewHandler(appointmentSvc)
	serviceH := serviceHandler.NewHandler(catalogSvc)
	authH := authHandler.NewHandler(userSvc)
	testimonialH := testimonialHandler.NewHandler(testimonialSvc)
	contactH := contactHandler.NewHandler(contactSvc)
	backupH := backupHandler.NewHandler(backupSvc)

	r := router.New(
		&log,
		authMiddleware,
		healthH,
		router.Config{
			RateLimitRPS:   cfg.RateLimit.RPS,
			RateLimitBurst: cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.Timeout(),
			CORS:           middleware.DefaultCORSConfig(),
			MetricsPrefix:  "clinic",
		},
		[]router.Handler{appointmentH, serviceH, authH, testimonialH, contactH},
		[]router.AuthenticatedHandler{appointmentH, authH},
		[]router.AdminHandler{appointmentH, serviceH, authH, testimonialH, contactH, backupH},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
