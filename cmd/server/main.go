package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/splitlist/taskboard/api/handler"
	"github.com/splitlist/taskboard/internal/config"
	"github.com/splitlist/taskboard/internal/infrastructure/monitor"
	pgInfra "github.com/splitlist/taskboard/internal/infrastructure/postgres"
	redisInfra "github.com/splitlist/taskboard/internal/infrastructure/redis"
	"github.com/splitlist/taskboard/internal/middleware"
	appRouter "github.com/splitlist/taskboard/internal/router"
	"github.com/splitlist/taskboard/internal/seed"
	"github.com/splitlist/taskboard/internal/services/lifecycle"
	"github.com/splitlist/taskboard/pkg/httpcontext"
	"github.com/splitlist/taskboard/pkg/logger"
	pgRepo "github.com/splitlist/taskboard/repository/postgres"
	redisRepo "github.com/splitlist/taskboard/repository/redis"
	authUC "github.com/splitlist/taskboard/usecase/auth"
	profileUC "github.com/splitlist/taskboard/usecase/profile"
	taskUC "github.com/splitlist/taskboard/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.JWT.Secret == "" {
		zapLogger.Fatal("JWT_SECRET must be set")
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.CancelOnSignal(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(context.Context) error {
		return redisClient.Close()
	})

	mon := monitor.New(pool, redisClient, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	profileRepo := pgRepo.NewProfileRepository(pool)
	categoryRepo := pgRepo.NewCategoryRepository(pool)
	taskRepo := pgRepo.NewTaskRepository(pool)
	assignmentRepo := pgRepo.NewAssignmentRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)

	if cfg.Seed.Enabled {
		fixture, err := seed.Load(cfg.Seed.Path)
		if err != nil {
			zapLogger.Fatal("seed file unreadable", zap.Error(err))
		}
		seeder := seed.NewSeeder(profileRepo, categoryRepo, taskRepo, zapLogger)
		if err := seeder.Apply(appCtx, fixture); err != nil {
			zapLogger.Fatal("seed failed", zap.Error(err))
		}
	}

	authUseCase := authUC.New(profileRepo, sessionRepo, cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	profileUseCase := profileUC.New(profileRepo, categoryRepo, zapLogger)
	taskUseCase := taskUC.New(taskRepo, assignmentRepo, profileRepo, categoryRepo, taskUC.CreatePolicy{
		RequireAssignee: cfg.Policy.RequireAssignee,
		RequireDue:      cfg.Policy.RequireDue,
	}, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := appRouter.Handlers{
		Auth:       apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.JWT.SessionTTL),
		Profile:    apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:       apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Assignment: apiHandler.NewAssignmentHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:     apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := appRouter.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
