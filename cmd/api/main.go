package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/campus-helpdesk/internal/api/http"
	"github.com/spec-kit/campus-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/campus-helpdesk/internal/auth"
	"github.com/spec-kit/campus-helpdesk/internal/config"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/observability"
	"github.com/spec-kit/campus-helpdesk/internal/persistence"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	"github.com/spec-kit/campus-helpdesk/internal/service"
	"github.com/spec-kit/campus-helpdesk/internal/worker"
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

	rds, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rds.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	locationRepo := repository.NewLocationRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	duplicates := service.NewDuplicateDetector(ticketRepo, cfg.Workflow.DuplicateWindow(), logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		CategoryRepo: categoryRepo,
		LocationRepo: locationRepo,
		Duplicates:   duplicates,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:     ticketRepo,
		UserRepo:       userRepo,
		CategoryRepo:   categoryRepo,
		DepartmentRepo: departmentRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	sweepService := service.NewSweepService(ticketRepo, dispatcher, logger)
	notificationService := service.NewNotificationService(dispatcher, logger)
	authService := service.NewAuthService(*cfg, userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	worker.StartNotificationWorker(notificationService)

	sweepWorker := worker.NewSweepWorker(sweepService, rds, metrics, logger,
		cfg.Workflow.SweepInterval(), cfg.Workflow.SweepLease())
	go sweepWorker.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rds),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService),
		AdminTickets:   handlers.NewAdminTicketsHandler(ticketService, assignmentService, sweepService, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
