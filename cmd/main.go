package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/events"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/handler"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository/dynamo"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository/memory"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository/mongodb"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/service"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/config"
	pkgtls "github.com/cloud-wave-best-zizon/catalog-service/pkg/tls"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Config 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Logger 초기화
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 저장소 초기화
	productRepo, categoryRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()
	logger.Info("Store ready", zap.String("backend", cfg.StoreBackend))

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled {
		producer := events.NewKafkaProducer(cfg.Brokers(), cfg.KafkaTopic, logger)
		defer producer.Close()
		publisher = producer
	}

	opts := service.Options{DefaultLimit: cfg.DefaultPageLimit, MaxLimit: cfg.MaxPageLimit}
	var productService service.ProductService = service.NewProductService(productRepo, categoryRepo, publisher, logger, opts)

	// Redis 캐시 (선택)
	if cfg.CacheEnabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not reachable, cache will bypass until it is", zap.Error(err))
		}

		cached := service.NewCachedProductService(productService, opts, redisClient, "catalog:", cfg.CacheTTL, logger)
		productService = cached

		// 다른 인스턴스의 쓰기도 캐시 무효화
		if cfg.EventsEnabled {
			consumer := events.NewKafkaConsumer(cfg.Brokers(), cfg.KafkaTopic, cfg.KafkaGroupID, cached, logger)
			consumer.Start()
			defer consumer.Stop()
		}
	}

	// TLS (SPIRE)
	tlsCfg, err := pkgtls.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load TLS config", zap.Error(err))
	}
	identity, err := pkgtls.Load(ctx, tlsCfg, logger)
	if err != nil {
		logger.Fatal("Failed to load TLS identity", zap.Error(err))
	}
	defer identity.Close()
	go identity.Watch(ctx)

	// Server 시작
	srv := &http.Server{
		Addr:      ":" + cfg.Port,
		Handler:   handler.NewRouter(productService, logger),
		TLSConfig: identity.ServerConfig(),
	}

	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.Bool("tls", srv.TLSConfig != nil))

		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.ProductStore, repository.CategoryStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		store := memory.New()
		return store, store, func() {}, nil

	case config.BackendDynamoDB:
		client, err := dynamo.NewDynamoDBClient(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return dynamo.NewProductRepository(client, cfg.ProductTableName),
			dynamo.NewCategoryRepository(client, cfg.CategoryTableName),
			func() {}, nil

	case config.BackendMongo:
		client, err := mongodb.NewClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		closeFn := func() {
			_ = client.Disconnect(context.Background())
		}
		categoryRepo := mongodb.NewCategoryRepository(db)
		if err := categoryRepo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		return mongodb.NewProductRepository(db), categoryRepo, closeFn, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
