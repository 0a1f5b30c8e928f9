package main

import (
	"context"
	"errors"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/controllers/http"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/database"
	"storefront/internal/infra/rabbitmq"
	"storefront/internal/infra/telegram"
	"storefront/internal/infra/textgen"
	"storefront/internal/repository/gormrepo"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Invalid LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	productRepo := gormrepo.NewProductRepository(db, log)
	orderRepo := gormrepo.NewOrderRepository(db, log)

	var publisher rabbitmq.PublisherInterface
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, log)
		if err != nil {
			log.Fatalf("failed to init publisher: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Info("RABBITMQ_URL not set, order events disabled")
	}

	var readCache *cache.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		opts.DialTimeout = 2 * time.Second
		opts.ReadTimeout = 500 * time.Millisecond
		opts.WriteTimeout = 500 * time.Millisecond
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warnf("Redis not reachable, reads will go to the database until it is: %v", err)
		}
		cancel()
		readCache = cache.New(rdb, cfg.CachePrefix, log)
	} else {
		log.Info("REDIS_URL not set, read cache disabled")
	}

	notifier := services.NewNotifier(
		telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramBotToken, cfg.TelegramChatID, cfg.HTTPClientTimeout),
		log,
	)
	ledger := services.NewLedger(productRepo, cfg.AtomicStockDecrement, log)
	if !cfg.AtomicStockDecrement {
		log.Warn("ATOMIC_STOCK_DECREMENT disabled, concurrent orders can oversell")
	}

	orderService := services.NewOrderService(orderRepo, productRepo, ledger, notifier, publisher, log)
	orderService.SetCache(readCache, cfg.CacheTTL)
	orderService.SetDeliveryPolicy(services.DeliveryPolicy{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatFee:               cfg.DeliveryFee,
	})

	catalogService := services.NewCatalogService(
		productRepo,
		textgen.NewClient(cfg.OpenAIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.HTTPClientTimeout),
		log,
	)
	catalogService.SetCache(readCache, cfg.CacheTTL)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(http.RequestLogger(log))

	http.NewHandler(orderService, catalogService, log).RegisterRoutes(r)
	verifier := auth.NewVerifier(cfg.AuthJWTSecret, cfg.AdminEmails)
	http.NewAdminHandler(orderService, catalogService, log).RegisterRoutes(r, http.AdminOnly(verifier, log))

	srv := &nethttp.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting storefront on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("server run: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}

	orderService.Wait()
	log.WithFields(logrus.Fields{
		"stock_fallbacks": ledger.FallbackCount(),
		"stock_failures":  ledger.FailureCount(),
	}).Info("Stopped")
}
