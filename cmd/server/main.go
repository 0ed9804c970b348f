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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bcasadei/rental-website/internal/cart"
	cartcache "github.com/bcasadei/rental-website/internal/cart/cache"
	cartrepo "github.com/bcasadei/rental-website/internal/cart/repository"
	catalogrepo "github.com/bcasadei/rental-website/internal/catalog/repository"
	"github.com/bcasadei/rental-website/internal/checkout"
	"github.com/bcasadei/rental-website/internal/httpapi"
	ordersrepo "github.com/bcasadei/rental-website/internal/orders/repository"
	"github.com/bcasadei/rental-website/internal/payment"
	"github.com/bcasadei/rental-website/internal/publisher"
)

type Config struct {
	HTTPPort        string
	BaseURL         string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	StripeSecretKey string
	JWTSecret       string
	Postgres        ordersrepo.Credentials
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "cartdb"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret"),
		Postgres: ordersrepo.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "storefront"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/orders/repository/migrations"),
		},
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	if cfg.StripeSecretKey == "" {
		log.Fatal("STRIPE_SECRET_KEY is required")
	}

	ctx := context.Background()

	// Durable cart mirror
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	cartRepository := cartrepo.NewMongoRepository(mongoDB)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	// Cart cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cartService := cart.NewService(cartRepository, cartcache.NewRedisCache(redisClient))

	// Orders, checkout flows and outbox
	orderRepository, err := ordersrepo.NewRepository(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer orderRepository.Close()

	if err := orderRepository.RunMigrations(&cfg.Postgres); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Catalog shares the orders database
	rentalRepository := catalogrepo.NewRepository(orderRepository.DB())

	// Payment processor
	stripeClient := payment.NewClient(cfg.StripeSecretKey)

	checkoutService := checkout.NewService(orderRepository, cartService, stripeClient, checkout.Config{
		SuccessURL:       cfg.BaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        cfg.BaseURL + "/checkout/cancel",
		AllowedCountries: []string{"US", "CA"},
	})

	// Outbox poller publishes confirmed orders and reaps stale flows
	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	poller := publisher.NewOutboxPoller(orderRepository, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	// Handlers
	rentalsHandler := httpapi.NewRentalsHandler(rentalRepository, cfg.RequestTimeout)
	cartHandler := httpapi.NewCartHandler(cartService, cfg.RequestTimeout)
	checkoutHandler := httpapi.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)
	ordersHandler := httpapi.NewOrdersHandler(orderRepository, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httpapi.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(httpapi.AuthMiddleware(cfg.JWTSecret))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/rentals", func(r chi.Router) {
			r.Get("/", rentalsHandler.ListRentals)
			r.Post("/", rentalsHandler.CreateRental)
			r.Get("/{rental_id}", rentalsHandler.GetRental)
			r.Put("/{rental_id}", rentalsHandler.UpdateRental)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/session", checkoutHandler.CreateSession)
			r.Get("/success", checkoutHandler.Success)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
		})
		r.Route("/admin/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.AdminListOrders)
			r.Patch("/{order_id}/status", ordersHandler.UpdateOrderStatus)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "rental-storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
