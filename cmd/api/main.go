// Package main - точка входа движка прогресса и геймификации Lingua Hub.
//
// Движок - единственный писатель состояния прогресса: завершения уроков,
// XP, жизни и серии меняются только через его команды. Postgres хранит
// истину, Redis несёт быструю проекцию рейтинга, которую можно потерять
// и перестроить в любой момент.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: реализация репозиториев, кеш, шина событий, планировщик
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lingua-hub/lingua-progress-hub/config"
	"github.com/lingua-hub/lingua-progress-hub/internal/application/command"
	"github.com/lingua-hub/lingua-progress-hub/internal/application/eventhandler"
	"github.com/lingua-hub/lingua-progress-hub/internal/application/query"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/leaderboard"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/internal/infrastructure/messaging"
	"github.com/lingua-hub/lingua-progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/lingua-hub/lingua-progress-hub/internal/infrastructure/persistence/redis"
	"github.com/lingua-hub/lingua-progress-hub/internal/infrastructure/scheduler"
	"github.com/lingua-hub/lingua-progress-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/lingua-hub/lingua-progress-hub/internal/interface/http"
	"github.com/lingua-hub/lingua-progress-hub/internal/interface/http/handlers"
	"github.com/lingua-hub/lingua-progress-hub/pkg/circuitbreaker"
	"github.com/lingua-hub/lingua-progress-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	log := logger.New(logOpts)

	log.Info("starting Lingua Progress Hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		log.Info("migrations completed",
			logger.Int("applied", appliedCount),
			logger.Int("total", len(status)),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	// Проекция рейтинга живёт в Redis; без него все чтения идут в Postgres.
	var (
		redisCache       *redis.Cache
		leaderboardCache leaderboard.Cache
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard served from Postgres", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	} else {
		log.Info("Redis disabled, leaderboard served from Postgres")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	progressRepo := postgres.NewProgressRepository(dbConn)
	contentRepo := postgres.NewContentRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	busConfig := messaging.DefaultConfig()
	busConfig.AsyncMode = cfg.EventBus.AsyncMode
	busConfig.WorkerPoolSize = cfg.EventBus.WorkerPoolSize
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	completeLessonCmd := command.NewCompleteLessonHandler(progressRepo, contentRepo, eventBus)
	adjustLivesCmd := command.NewAdjustLivesHandler(progressRepo, eventBus)
	grantBonusCmd := command.NewGrantBonusHandler(progressRepo, eventBus)
	resetProgressCmd := command.NewResetProgressHandler(progressRepo, eventBus)

	cacheBreaker := circuitbreaker.RedisBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	summaryQuery := query.NewGetSummaryHandler(progressRepo, contentRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(leaderboardRepo, leaderboardCache, cacheBreaker, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	// Проекция рейтинга обновляется по событиям; плановое перестроение
	// устраняет накопившийся дрейф.
	if leaderboardCache != nil {
		log.Info("registering event handlers...")
		projection := eventhandler.NewLeaderboardProjectionHandler(leaderboardCache, log)
		if err := projection.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register projection handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ПЛАНИРОВЩИК ФОНОВЫХ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && leaderboardCache != nil {
		log.Info("initializing scheduler...")
		sched = scheduler.New(log)

		rebuildJob := jobs.NewRebuildLeaderboardJob(leaderboardRepo, leaderboardCache, eventBus, log)
		schedule := scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)
		if err := sched.Register(rebuildJob, schedule); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			sched.Stop()
		}()

		// Первое перестроение сразу, чтобы не ждать целый интервал
		// после холодного старта.
		if _, err := sched.RunNow(ctx, rebuildJob.Name()); err != nil {
			log.Warn("initial leaderboard rebuild failed", logger.Err(err))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.AdminAPIKeyHeader = cfg.HTTP.AdminAPIKeyHeader
	httpConfig.AdminAPIKeys = cfg.HTTP.AdminAPIKeys

	httpDeps := httpserver.Dependencies{
		CompleteLessonHandler: completeLessonCmd,
		AdjustLivesHandler:    adjustLivesCmd,
		GrantBonusHandler:     grantBonusCmd,
		ResetProgressHandler:  resetProgressCmd,
		GetSummaryHandler:     summaryQuery,
		GetLeaderboardHandler: leaderboardQuery,
		Audit:                 progressRepo,
		Logger:                log,
		HealthChecker:         healthChecker,
	}

	server := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 13. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Lingua Progress Hub is running", logger.String("http_address", server.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown...",
		logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	// Планировщик, шина событий и соединения закрываются через defer.
	log.Info("shutdown completed successfully")
	return nil
}

// Компилятор напомнит, если доменные интерфейсы разойдутся с инфраструктурой.
var (
	_ shared.EventPublisher = (*messaging.InMemoryEventBus)(nil)
	_ leaderboard.Cache     = (*redis.LeaderboardCache)(nil)
)
