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
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/varnwear/storefront/internal/accounts"
	"github.com/varnwear/storefront/internal/cart"
	"github.com/varnwear/storefront/internal/catalog"
	"github.com/varnwear/storefront/internal/mailer"
	"github.com/varnwear/storefront/internal/messaging"
	"github.com/varnwear/storefront/internal/orders"
	"github.com/varnwear/storefront/internal/reviews"
	"github.com/varnwear/storefront/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
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

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	var createdProducer, cancelledProducer *messaging.Producer
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		createdProducer = messaging.NewProducer(brokers, messaging.TopicOrderCreated)
		defer func() { _ = createdProducer.Close() }()
		cancelledProducer = messaging.NewProducer(brokers, messaging.TopicOrderCancelled)
		defer func() { _ = cancelledProducer.Close() }()
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var mail *mailer.Client
	if emailServiceURL := os.Getenv("EMAIL_SERVICE_URL"); emailServiceURL != "" {
		mail = mailer.NewClient(emailServiceURL, httpClient)
	}

	orderMetrics, err := telemetry.NewOrderMetrics()
	if err != nil {
		logger.Error("failed to create order metrics", "error", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(db)
	catalogHandler := catalog.NewHandler(catalogRepo, logger)

	accountsRepo := accounts.NewRepository(db)
	sessions := accounts.NewSessionStore(rdb)
	otpStore := accounts.NewOTPStore()
	accountsHandler := accounts.NewHandler(accountsRepo, sessions, otpStore, mail, logger)
	auth := accounts.NewAuth(sessions, logger)

	cartStore := cart.NewStore(rdb)
	cartService := cart.NewService(cartStore, catalogRepo, logger)
	wishlist := cart.NewWishlist(rdb, catalogRepo)
	cartHandler := cart.NewHandler(cartService, wishlist, logger)

	reviewsRepo := reviews.NewRepository(db)
	reviewsHandler := reviews.NewHandler(reviewsRepo, logger)

	ordersRepo := orders.NewRepository(db)
	var createdPub, cancelledPub orders.Publisher
	if createdProducer != nil {
		createdPub = createdProducer
		cancelledPub = cancelledProducer
	}
	ordersService := orders.NewService(ordersRepo, cartService, catalogRepo, createdPub, cancelledPub, orderMetrics, logger)
	ordersHandler := orders.NewHandler(ordersService, logger)

	mux := http.NewServeMux()
	route := telemetry.WithHTTPRoute

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /api/products", route(catalogHandler.HandleList))
	mux.HandleFunc("GET /api/products/{id}", route(catalogHandler.HandleGet))
	mux.HandleFunc("POST /api/products", route(auth.RequireAdmin(catalogHandler.HandleCreate)))
	mux.HandleFunc("PUT /api/products/{id}", route(auth.RequireAdmin(catalogHandler.HandleUpdate)))
	mux.HandleFunc("DELETE /api/products/{id}", route(auth.RequireAdmin(catalogHandler.HandleDelete)))

	mux.HandleFunc("GET /api/products/{id}/reviews", route(reviewsHandler.HandleList))
	mux.HandleFunc("POST /api/products/{id}/reviews", route(auth.RequireUser(reviewsHandler.HandleCreate)))

	mux.HandleFunc("POST /api/auth/register", route(accountsHandler.HandleRegister))
	mux.HandleFunc("POST /api/auth/login", route(accountsHandler.HandleLogin))
	mux.HandleFunc("POST /api/auth/logout", route(accountsHandler.HandleLogout))
	mux.HandleFunc("POST /api/auth/check-email", route(accountsHandler.HandleCheckEmail))
	mux.HandleFunc("POST /api/auth/send-otp", route(accountsHandler.HandleSendOTP))
	mux.HandleFunc("POST /api/auth/verify-otp", route(accountsHandler.HandleVerifyOTP))
	mux.HandleFunc("POST /api/auth/reset-password", route(accountsHandler.HandleResetPassword))
	mux.HandleFunc("GET /api/profile", route(auth.RequireUser(accountsHandler.HandleGetProfile)))
	mux.HandleFunc("PUT /api/profile", route(auth.RequireUser(accountsHandler.HandleUpdateProfile)))

	mux.HandleFunc("GET /api/cart", route(auth.RequireUser(cartHandler.HandleGetCart)))
	mux.HandleFunc("POST /api/cart", route(auth.RequireUser(cartHandler.HandleAdd)))
	mux.HandleFunc("PUT /api/cart", route(auth.RequireUser(cartHandler.HandleUpdate)))
	mux.HandleFunc("DELETE /api/cart", route(auth.RequireUser(cartHandler.HandleClear)))
	mux.HandleFunc("DELETE /api/cart/{productId}", route(auth.RequireUser(cartHandler.HandleRemove)))

	mux.HandleFunc("GET /api/wishlist", route(auth.RequireUser(cartHandler.HandleGetWishlist)))
	mux.HandleFunc("POST /api/wishlist", route(auth.RequireUser(cartHandler.HandleAddToWishlist)))
	mux.HandleFunc("DELETE /api/wishlist/{productId}", route(auth.RequireUser(cartHandler.HandleRemoveFromWishlist)))

	mux.HandleFunc("POST /api/orders", route(auth.RequireUser(ordersHandler.HandleCreate)))
	mux.HandleFunc("GET /api/orders", route(auth.RequireUser(ordersHandler.HandleList)))
	mux.HandleFunc("GET /api/orders/{id}", route(auth.RequireUser(ordersHandler.HandleGet)))
	mux.HandleFunc("POST /api/orders/{id}/cancel", route(auth.RequireUser(ordersHandler.HandleCancel)))

	mux.HandleFunc("POST /api/admin/login", route(accountsHandler.HandleAdminLogin))
	mux.HandleFunc("GET /api/admin/users", route(auth.RequireAdmin(accountsHandler.HandleListUsers)))
	mux.HandleFunc("DELETE /api/admin/users", route(auth.RequireAdmin(accountsHandler.HandleClearUsers)))
	mux.HandleFunc("GET /api/admin/orders", route(auth.RequireAdmin(ordersHandler.HandleAdminList)))
	mux.HandleFunc("GET /api/admin/orders/{id}", route(auth.RequireAdmin(ordersHandler.HandleAdminGet)))
	mux.HandleFunc("GET /api/admin/orders/stats", route(auth.RequireAdmin(ordersHandler.HandleStats)))
	mux.HandleFunc("GET /api/admin/orders/revenue", route(auth.RequireAdmin(ordersHandler.HandleRevenue)))
	mux.HandleFunc("PATCH /api/admin/orders/{id}/status", route(auth.RequireAdmin(ordersHandler.HandleUpdateStatus)))
	mux.HandleFunc("POST /api/admin/orders/{id}/delivery", route(auth.RequireAdmin(ordersHandler.HandleConfirmDelivery)))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "storefront",
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
		logger.Info("starting storefront service", "port", port)
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
