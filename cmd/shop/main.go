package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/go_shop/internal/auth"
	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/internal/events"
	"github.com/fjod/go_shop/internal/health"
	shophttp "github.com/fjod/go_shop/internal/http"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
	"github.com/fjod/go_shop/internal/store"
	"github.com/fjod/go_shop/internal/upload"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type repositories struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	admins   repository.AdminRepository
	checker  health.Checker
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(os.Stderr, "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("shop stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	repos, mongoDB, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if mongoDB != nil {
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				log.Warn("failed to disconnect from MongoDB", "error", err)
			}
		}()
	}

	var productCache cache.ProductListCache = cache.NopCache{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		// A dead cache degrades to direct reads, so startup continues
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed, product list will be served from the store", "addr", cfg.RedisAddr, "error", err)
		} else {
			log.Info("redis ping succeeded", "addr", cfg.RedisAddr)
		}
		productCache = cache.NewRedisCache(redisClient)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewBreakerPublisher(events.NewKafkaPublisher(cfg.KafkaBrokers...), log)
		log.Info("publishing order events", "brokers", cfg.KafkaBrokers, "topic", events.OrderCreatedTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", "error", err)
		}
	}()

	policy, err := service.ParseStockPolicy(cfg.StockPolicy)
	if err != nil {
		return err
	}

	images, err := upload.NewImageStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	authenticator := auth.NewAuthenticator(repos.admins, cfg.JWTSecret)
	catalog := service.NewCatalogService(repos.products, productCache, images, log)
	orders := service.NewOrderService(repos.products, repos.orders, productCache, publisher, policy, log)

	router := shophttp.NewRouter(shophttp.RouterConfig{
		Auth:           authenticator,
		Catalog:        catalog,
		Orders:         orders,
		Images:         images,
		UploadDir:      images.Dir(),
		DB:             repos.checker,
		LoginLimiter:   shophttp.NewLoginRateLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst),
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: otelhttp.NewHandler(router, "shop"),
	}

	serveErr := make(chan error, 2)
	go func() {
		log.Info("shop listening", "port", cfg.HTTPPort, "store", cfg.Store, "stock_policy", string(policy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	checkCtx, stopCheck := context.WithCancel(ctx)
	defer stopCheck()

	var healthServer *health.Server
	if cfg.GRPCHealthPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
		if err != nil {
			return fmt.Errorf("failed to listen for health checks: %w", err)
		}
		healthServer = health.NewServer(repos.checker, log)
		go healthServer.Run(checkCtx)
		go func() {
			log.Info("grpc health listening", "port", cfg.GRPCHealthPort)
			if err := healthServer.Serve(lis); err != nil {
				serveErr <- fmt.Errorf("grpc health server: %w", err)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		log.Info("shutting down shop", "signal", sig.String())
	case runErr = <-serveErr:
	}

	stopCheck()
	if healthServer != nil {
		healthServer.GracefulStop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}

	log.Info("shop stopped")
	return runErr
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repositories, *mongo.Database, error) {
	if cfg.Store == "memory" {
		mem := store.NewMemoryStore()
		log.Warn("using in-memory store, data is lost on restart")
		return repositories{
			products: mem,
			orders:   mem,
			admins:   mem,
			checker:  health.AlwaysHealthy{},
		}, nil, nil
	}

	db, err := repository.ConnectMongoDB(ctx, repository.MongoOptions{
		URI:         cfg.MongoURI,
		Database:    cfg.MongoDBName,
		MaxPoolSize: cfg.MongoMaxPoolSize,
		MinPoolSize: cfg.MongoMinPoolSize,
	})
	if err != nil {
		return repositories{}, nil, err
	}
	log.Info("connected to MongoDB", "db", cfg.MongoDBName)

	if err := repository.RunMigrations(db, cfg.MigrationsPath); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return repositories{}, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repositories{
		products: repository.NewMongoProductRepository(db),
		orders:   repository.NewMongoOrderRepository(db),
		admins:   repository.NewMongoAdminRepository(db),
		checker:  health.MongoChecker{Client: db.Client()},
	}, db, nil
}
