package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/cache"
	"fsanano/mini-shop/internal/config"
	"fsanano/mini-shop/internal/handler"
	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
	"fsanano/mini-shop/internal/repository/memstore"
	"fsanano/mini-shop/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Categories the memory store starts with, matching the initial migration.
var defaultCategories = []string{"Electronics", "Books", "Clothing", "Home"}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Store
	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Setup Redis (optional)
	var limiter handler.LoginLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := cache.ConnectRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer closeRedis(rdb)

		repos.Products = cache.NewCachedProductRepository(repos.Products, rdb, cfg.Redis.CacheTTL)
		limiter = cache.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Cooldown)
	} else {
		log.Println("REDIS_ADDR not set, product cache and login throttling disabled")
	}
	repos.Categories = cache.NewCategoryCache(repos.Categories, 5*time.Minute)

	// 4. Setup Logic
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	svc := service.New(repos, tokens)
	h := handler.NewHandler(svc, handler.Config{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		LoginLimiter:       limiter,
	})

	// 5. Setup Server
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Run Server with Graceful Shutdown
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on port %s (store: %s)", cfg.ServerPort, cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Println("Server exiting")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Repositories, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		store := memstore.New()
		repos := store.Repositories()
		for _, name := range defaultCategories {
			if err := repos.Categories.Create(ctx, &model.Category{Name: name}); err != nil {
				return repository.Repositories{}, nil, fmt.Errorf("failed to seed categories: %w", err)
			}
		}
		log.Println("Using in-memory store")
		return repos, func() {}, nil
	}

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return repository.Repositories{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return repository.Repositories{}, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("Connected to database")

	db := repository.NewDB(dbPool)
	if err := db.Migrate(ctx); err != nil {
		dbPool.Close()
		return repository.Repositories{}, nil, err
	}

	return repository.NewPostgres(db), dbPool.Close, nil
}

func closeRedis(rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		log.Printf("Failed to close redis: %v", err)
	}
}
