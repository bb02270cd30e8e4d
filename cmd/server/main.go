package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snake/backend/internal/config"
	"snake/backend/internal/database"
	"snake/backend/internal/handlers"
	"snake/backend/internal/jobs"
	"snake/backend/internal/metrics"
	"snake/backend/internal/repositories"
	"snake/backend/internal/routers"
	"snake/backend/internal/seed"
	"snake/backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	newLogger       = zap.NewProduction
	loadConfig      = config.Load
	newDialector    = database.Dialector
	gormOpen        = defaultGormOpen
	runAutoMigrate  = func(db *gorm.DB, dst ...interface{}) error { return db.AutoMigrate(dst...) }
	newRedisClient  = func(addr string) *redis.Client { return redis.NewClient(&redis.Options{Addr: addr}) }
	httpListenServe = serveUntilSignal
	shutdownTimeout = 30 * time.Second
	exitFunc        = os.Exit
	logFatalFn      = defaultLogFatal
)

func resetServerGlobals() {
	newLogger = zap.NewProduction
	loadConfig = config.Load
	newDialector = database.Dialector
	gormOpen = defaultGormOpen
	runAutoMigrate = func(db *gorm.DB, dst ...interface{}) error { return db.AutoMigrate(dst...) }
	newRedisClient = func(addr string) *redis.Client { return redis.NewClient(&redis.Options{Addr: addr}) }
	httpListenServe = serveUntilSignal
	shutdownTimeout = 30 * time.Second
	exitFunc = os.Exit
	logFatalFn = defaultLogFatal
}

func defaultGormOpen(dsn string) (*gorm.DB, error) {
	return gorm.Open(newDialector(dsn), database.Config())
}

func defaultLogFatal(err error) {
	log.Printf("snake server: %v", err)
	exitFunc(1)
}

// connectWithRetry keeps dialing until the database answers a ping or the
// timeout elapses. Containers often start before their database is ready.
func connectWithRetry(dsn string, timeout time.Duration, logger *zap.Logger) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	backoff := 100 * time.Millisecond
	var lastErr error

	for attempt := 1; ; attempt++ {
		db, err := gormOpen(dsn)
		if err == nil {
			if err = ping(db); err == nil {
				return db, nil
			}
		}
		lastErr = err

		if time.Now().Add(backoff).After(deadline) {
			return nil, fmt.Errorf("database not reachable after %d attempts: %w", attempt, lastErr)
		}
		logger.Warn("database not ready, retrying", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.Store, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Info("using in-memory store")
		return repositories.NewMemoryStore(), nil
	}

	db, err := connectWithRetry(cfg.DatabaseURL, cfg.DBConnectTimeout, logger)
	if err != nil {
		return nil, err
	}
	if err := runAutoMigrate(db.WithContext(ctx), repositories.Models()...); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	dialect := "sqlite"
	if database.IsPostgres(cfg.DatabaseURL) {
		dialect = "postgres"
	}
	logger.Info("connected to database", zap.String("dialect", dialect))

	store, err := repositories.NewSQLStore(db)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// applySeed loads optional demo data. Failures are logged and startup continues.
func applySeed(ctx context.Context, path string, store repositories.Store, logger *zap.Logger) {
	f, err := seed.LoadFile(path)
	if err != nil {
		logger.Warn("failed to load seed data", zap.String("file", path), zap.Error(err))
		return
	}
	seeder := &seed.Seeder{Store: store, Logger: logger}
	if _, err := seeder.Apply(ctx, f); err != nil {
		logger.Warn("seed data partially applied", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, store repositories.Store, svc *services.LeaderboardService, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, middleware.Timeout(60*time.Second))
	r.Use(metrics.Middleware)

	authHandler := handlers.NewAuthHandler(store, cfg.JWTSecret, cfg.TokenTTL, logger)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc, logger)

	routers.HealthRoutes(r, &handlers.HealthHandler{Store: store, Logger: logger})
	routers.AuthRoutes(r, authHandler)
	routers.LeaderboardRoutes(r, leaderboardHandler, cfg.JWTSecret)
	routers.UserRoutes(r, leaderboardHandler)
	return r
}

func run() error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var cache services.LeaderboardCache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = newRedisClient(cfg.RedisAddr)
		defer rdb.Close()
		cache = services.NewRedisLeaderboardCache(rdb, cfg.CacheTTL)
		logger.Info("leaderboard cache enabled", zap.String("redis", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
	}
	svc := services.NewLeaderboardService(store, cache, logger)

	if cfg.SeedFile != "" {
		applySeed(ctx, cfg.SeedFile, store, logger)
	}

	if rdb != nil && cfg.SubscriberEnabled {
		go services.NewScoreSubscriber(rdb, svc, logger).Subscribe(ctx)
	}

	warmer := jobs.NewLeaderboardWarmerJob(svc, jobs.WarmerConfig{
		Enabled:  cfg.WarmEnabled,
		Schedule: cfg.WarmSchedule,
		Limit:    services.DefaultLeaderboardLimit,
	}, logger)
	if err := warmer.Start(); err != nil {
		return err
	}
	defer warmer.Stop()

	addr := ":" + cfg.Port
	logger.Info("snake server listening", zap.String("addr", addr), zap.String("store", cfg.StoreBackend))
	return httpListenServe(addr, newRouter(cfg, store, svc, logger))
}

// serveUntilSignal runs the server until SIGINT/SIGTERM, then drains in-flight
// requests before returning.
func serveUntilSignal(addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		logFatalFn(err)
	}
}
