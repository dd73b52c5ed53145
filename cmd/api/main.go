package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/civic-kit/complaint-service/internal/api/http"
	"github.com/civic-kit/complaint-service/internal/api/http/handlers"
	"github.com/civic-kit/complaint-service/internal/auth"
	"github.com/civic-kit/complaint-service/internal/config"
	"github.com/civic-kit/complaint-service/internal/events"
	"github.com/civic-kit/complaint-service/internal/notification"
	"github.com/civic-kit/complaint-service/internal/observability"
	"github.com/civic-kit/complaint-service/internal/persistence"
	"github.com/civic-kit/complaint-service/internal/repository"
	"github.com/civic-kit/complaint-service/internal/service"
	"github.com/civic-kit/complaint-service/internal/sla"
	"github.com/civic-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	logRepo := repository.NewTicketLogRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	citizenRepo := repository.NewCitizenRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	slaRuleRepo := repository.NewSlaRuleRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)

	clock := sla.SystemClock{}
	deadlines := sla.NewDeadlineCalculator(slaRuleRepo, cfg.SLA.DefaultHours)

	var locker persistence.SweepLocker
	if client := redis.ClientHandle(); client != nil {
		locker = persistence.NewRedisSweepLocker(client)
	} else {
		logger.Warn("redis unavailable; sweep lock is process-local")
		locker = persistence.NewLocalSweepLocker()
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CitizenRepo: citizenRepo,
		StaffRepo:   staffRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), citizenRepo, staffRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		LogRepo:        logRepo,
		AssignmentRepo: assignmentRepo,
		AttachmentRepo: attachmentRepo,
		CitizenRepo:    citizenRepo,
		CategoryRepo:   categoryRepo,
		StaffRepo:      staffRepo,
		Deadlines:      deadlines,
		Dispatcher:     dispatcher,
		Clock:          clock,
	})
	slaService := service.NewSlaService(ticketRepo, escalationRepo, clock)

	sender := notification.NewWhatsAppSender(cfg.Notification, logger)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		TicketRepo:  ticketRepo,
		CitizenRepo: citizenRepo,
		LogRepo:     logRepo,
		Sender:      sender,
		Logger:      logger,
		Clock:       clock,
		MaxAttempts: cfg.Notification.MaxAttempts,
		Backoff:     cfg.Notification.Backoff(),
	})
	worker.StartNotificationWorker(notificationService, dispatcher)

	scheduler := sla.NewScheduler(sla.SchedulerDependencies{
		TicketRepo:     ticketRepo,
		SlaRuleRepo:    slaRuleRepo,
		EscalationRepo: escalationRepo,
		StaffRepo:      staffRepo,
		Locker:         locker,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		Clock:          clock,
		PageSize:       cfg.SLA.SweepPageSize,
		Concurrency:    cfg.SLA.SweepConcurrency,
		LockTTL:        cfg.SLA.LockTTL(),
	})
	escalationWorker := worker.NewEscalationWorker(scheduler, logger, cfg.SLA.SweepInterval(), cfg.SLA.SweepTimeout())
	escalationWorker.Start()
	defer escalationWorker.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Sla:            handlers.NewSlaHandler(slaService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
