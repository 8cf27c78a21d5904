package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	c "github.com/aakashdhakal/HaatBazar-sub000/internal/cache"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/config"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/gateway"
	h "github.com/aakashdhakal/HaatBazar-sub000/internal/http"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/publisher"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/reconcile"
	"github.com/aakashdhakal/HaatBazar-sub000/internal/repository"
	s "github.com/aakashdhakal/HaatBazar-sub000/internal/service"
	"github.com/aakashdhakal/HaatBazar-sub000/pkg/metrics"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	txRepo := repository.NewMongoTransactionRepository(mongoDB)
	orderRepo := repository.NewMongoOrderRepository(mongoDB)
	catalog := repository.NewMongoProductCatalog(mongoDB)
	outboxRepo := repository.NewMongoPaymentEventRepository(mongoDB)

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

	cartCache := c.NewRedisCache(redisClient)
	deduper := c.NewRedisDeduper(redisClient, cfg.DedupWindow)

	m := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	cartLoader := s.NewCartLoader(cartRepo, cartCache)
	engine := reconcile.NewEngine(txRepo, orderRepo, cartLoader, outboxRepo, m)

	confirmationURL := cfg.PublicBaseURL + "/checkout/confirmation"
	failureURL := cfg.PublicBaseURL + "/checkout/failure"

	gateways := []gateway.Gateway{
		gateway.NewEsewaGateway(cfg.Esewa),
		gateway.NewKhaltiGateway(cfg.Khalti),
		gateway.NewCashGateway(engine, confirmationURL),
	}

	checkoutService := s.NewCheckoutService(
		cartLoader, catalog, txRepo, orderRepo, gateways, engine, deduper, m)
	orderService := s.NewOrderService(orderRepo, txRepo, engine)

	checkoutHandler := h.NewCheckoutHandler(checkoutService)
	returnHandler := h.NewPaymentReturnHandler(checkoutService, confirmationURL, failureURL)
	ordersHandler := h.NewOrdersHandler(orderService)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Provider return redirects carry no session; they authenticate by
		// correlation id alone.
		r.Get("/payments/esewa/return", returnHandler.EsewaReturn)
		r.Get("/payments/khalti/return", returnHandler.KhaltiReturn)

		r.Group(func(r chi.Router) {
			r.Use(h.SessionAuthMiddleware)
			r.Post("/checkout", checkoutHandler.InitiateCheckout)
			r.Get("/orders", ordersHandler.ListOrders)
			r.Get("/orders/{id}", ordersHandler.GetOrder)
			r.Patch("/orders/{id}/status", ordersHandler.UpdateStatus)
			r.Post("/payments/{ref}/refund", ordersHandler.RefundPayment)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "checkout-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	pollerCtx, cancelPoller := context.WithCancel(ctx)
	defer cancelPoller()
	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(outboxRepo, cfg.KafkaBrokers...)
		defer poller.Close()
		go poller.Run(pollerCtx)
		log.Printf("payment-events poller started against %v", cfg.KafkaBrokers)
	} else {
		log.Printf("no kafka brokers configured, payment events stay in outbox")
	}

	go func() {
		log.Printf("Checkout service starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down checkout service...")
	cancelPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := mongoDB.Client().Disconnect(ctx); err != nil {
		log.Printf("mongo disconnect error: %v", err)
	}
	log.Println("checkout service stopped")
}
