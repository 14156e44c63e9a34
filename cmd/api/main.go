package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/Snkb-ch/store/internal/auth"
	"github.com/Snkb-ch/store/internal/cart"
	"github.com/Snkb-ch/store/internal/catalog"
	"github.com/Snkb-ch/store/internal/messaging"
	"github.com/Snkb-ch/store/internal/orders"
	"github.com/Snkb-ch/store/internal/reviews"
	"github.com/Snkb-ch/store/internal/telemetry"
	"github.com/Snkb-ch/store/internal/wishlist"
)

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "store-api", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("store-api", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		producer = messaging.NewProducer(strings.Split(kafkaBrokers, ","), messaging.TopicOrderCreated)
		defer func() { _ = producer.Close() }()
	}

	authRepo := auth.NewRepository(db)
	if workerToken := os.Getenv("WORKER_TOKEN"); workerToken != "" {
		if err := authRepo.EnsureWorkerToken(ctx, workerToken); err != nil {
			logger.Error("failed to provision worker token", "error", err)
			os.Exit(1)
		}
		logger.Info("worker token provisioned")
	}
	authHandler := auth.NewHandler(authRepo, logger)
	authenticated := auth.NewMiddleware(authRepo, logger).Require

	catalogHandler := catalog.NewHandler(catalog.NewRepository(db), logger)
	cartHandler := cart.NewHandler(cart.NewRepository(db), logger)
	ordersHandler := orders.NewHandler(orders.NewRepository(db), producer, logger)
	reviewsHandler := reviews.NewHandler(reviews.NewRepository(db), logger)
	wishlistHandler := wishlist.NewHandler(wishlist.NewRepository(db), logger)

	mux := http.NewServeMux()

	public := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}
	private := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(authenticated(h)))
	}

	public("POST /auth/register", authHandler.HandleRegister)
	public("POST /auth/login", authHandler.HandleLogin)

	public("GET /products", catalogHandler.HandleListProducts)
	public("GET /products/{id}", catalogHandler.HandleGetProduct)
	public("GET /products/{id}/reviews", reviewsHandler.HandleListForProduct)
	public("GET /categories", catalogHandler.HandleListCategories)
	private("POST /products", catalogHandler.HandleCreateProduct)
	private("PATCH /products/{id}", catalogHandler.HandleUpdateProduct)
	private("DELETE /products/{id}", catalogHandler.HandleDeleteProduct)
	private("POST /categories", catalogHandler.HandleCreateCategory)
	private("DELETE /categories/{id}", catalogHandler.HandleDeleteCategory)

	private("GET /cart", cartHandler.HandleList)
	private("POST /cart/add", cartHandler.HandleAdd)
	private("POST /cart/remove", cartHandler.HandleRemove)
	private("PATCH /cart/increase", cartHandler.HandleIncrease)
	private("PATCH /cart/decrease", cartHandler.HandleDecrease)
	private("PATCH /cart/update_quantity", cartHandler.HandleUpdateQuantity)
	private("DELETE /cart/clear_cart", cartHandler.HandleClear)

	private("GET /orders", ordersHandler.HandleList)
	private("POST /orders/{$}", ordersHandler.HandleCreate)
	private("GET /orders/active/{$}", ordersHandler.HandleListActive)
	private("GET /orders/{id}", ordersHandler.HandleGet)
	private("PATCH /orders/{id}/cancel/{$}", ordersHandler.HandleCancel)
	private("PATCH /orders/{id}/status", ordersHandler.HandleUpdateStatus)

	private("POST /products/{id}/reviews", reviewsHandler.HandleCreate)
	private("GET /reviews", reviewsHandler.HandleListOwn)
	private("PATCH /reviews/{id}", reviewsHandler.HandleUpdate)
	private("DELETE /reviews/{id}", reviewsHandler.HandleDelete)

	private("GET /wishlist", wishlistHandler.HandleList)
	private("POST /wishlist", wishlistHandler.HandleAdd)
	private("DELETE /wishlist/{productId}", wishlistHandler.HandleRemove)

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "store-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
