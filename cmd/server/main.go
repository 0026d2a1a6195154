package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/macaicedo13/Ecommerce-api-test/internal/cache"
	apihttp "github.com/macaicedo13/Ecommerce-api-test/internal/http"
	"github.com/macaicedo13/Ecommerce-api-test/internal/metrics"
	"github.com/macaicedo13/Ecommerce-api-test/internal/outbox"
	"github.com/macaicedo13/Ecommerce-api-test/internal/repository"
	"github.com/macaicedo13/Ecommerce-api-test/internal/service"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	KafkaBrokers    []string
	OrderTopic      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	DB              *repository.Credentials
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		OrderTopic:      getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DB: &repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "ecommerce"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("order service starting...")

	cfg := loadConfig()

	store, err := repository.NewPostgresStore(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.RunMigrations(cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	productCache := cache.NewRedisCache(redisClient)

	productService := service.NewProductService(store, productCache)
	orderService := service.NewOrderService(store, productCache)
	checkoutService := service.NewCheckoutService(store)

	serverMetrics := metrics.NewServerMetrics("orders")

	router := apihttp.NewRouter(productService, orderService, checkoutService, apihttp.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        serverMetrics,
	})

	// Outbox poller drains completed-order events to kafka in the background.
	publisher := outbox.NewKafkaPublisher(cfg.OrderTopic, cfg.KafkaBrokers...)
	defer publisher.Close()

	pollerCtx, cancelPoller := context.WithCancel(context.Background())
	defer cancelPoller()
	go outbox.NewPoller(store, publisher).Run(pollerCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancelPoller()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
