//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/varnwear/storefront/internal/accounts"
	"github.com/varnwear/storefront/internal/cart"
	"github.com/varnwear/storefront/internal/catalog"
	"github.com/varnwear/storefront/internal/domain"
	"github.com/varnwear/storefront/internal/messaging"
	"github.com/varnwear/storefront/internal/orders"
	"github.com/varnwear/storefront/internal/reviews"
)

type storefrontEnv struct {
	db          *sql.DB
	catalogRepo *catalog.Repository
	usersRepo   *accounts.Repository
	cartService *cart.Service
	ordersRepo  *orders.Repository
	ordersSvc   *orders.Service
	identity    *domain.Identity
}

func setupStorefront(ctx context.Context, t *testing.T) *storefrontEnv {
	t.Helper()

	pg := SetupPostgres(ctx, t)
	t.Cleanup(pg.Cleanup)

	db := OpenDB(t, pg.ConnStr)
	rdb := SetupRedis(ctx, t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalogRepo := catalog.NewRepository(db)
	usersRepo := accounts.NewRepository(db)

	cartStore := cart.NewStore(rdb)
	cartService := cart.NewService(cartStore, catalogRepo, logger)

	ordersRepo := orders.NewRepository(db)
	ordersSvc := orders.NewService(ordersRepo, cartService, catalogRepo, nil, nil, nil, logger)

	user := &domain.User{
		FirstName:    "Test",
		LastName:     "Customer",
		Email:        "customer@example.com",
		PasswordHash: "not-a-real-hash",
	}
	if err := usersRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return &storefrontEnv{
		db:          db,
		catalogRepo: catalogRepo,
		usersRepo:   usersRepo,
		cartService: cartService,
		ordersRepo:  ordersRepo,
		ordersSvc:   ordersSvc,
		identity:    &domain.Identity{UserID: user.ID, Email: user.Email, Name: "Test Customer"},
	}
}

func (e *storefrontEnv) seedProduct(ctx context.Context, t *testing.T, name string, price int64, stock int) *domain.Product {
	t.Helper()

	product := &domain.Product{
		Name:     name,
		Images:   []string{"assets/images/" + name + ".jpeg"},
		Price:    price,
		Sizes:    []string{"S", "M", "L"},
		Stock:    stock,
		Category: "Casual",
	}
	if err := e.catalogRepo.Create(ctx, product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func TestCheckoutReducesStockAndClearsCart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	env := setupStorefront(ctx, t)
	product := env.seedProduct(ctx, t, "checkout-shirt", 1200, 10)

	if err := env.cartService.Add(ctx, env.identity.UserID, product.ID, 2, "M"); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}

	order, err := env.ordersSvc.CreateOrder(ctx, env.identity, "42 Park Street, Kolkata", "cod")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status pending, got %s", order.Status)
	}
	if order.Subtotal != 2400 || order.Shipping != 0 || order.Total != 2400 {
		t.Fatalf("unexpected totals: subtotal=%d shipping=%d total=%d", order.Subtotal, order.Shipping, order.Total)
	}

	updated, err := env.catalogRepo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if updated.Stock != 8 {
		t.Fatalf("expected stock 8 after checkout, got %d", updated.Stock)
	}

	items, err := env.cartService.GetCartWithDetails(ctx, env.identity.UserID)
	if err != nil {
		t.Fatalf("failed to read cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected cart cleared after checkout, got %d items", len(items))
	}

	stored, err := env.ordersRepo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if stored == nil {
		t.Fatal("order not found in database")
	}
	if len(stored.Items) != 1 || stored.Items[0].Price != 1200 || stored.Items[0].ProductName != product.Name {
		t.Fatalf("unexpected item snapshot: %+v", stored.Items)
	}
}

func TestCheckoutBelowThresholdAddsShipping(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	env := setupStorefront(ctx, t)
	product := env.seedProduct(ctx, t, "cheap-shirt", 600, 5)

	if err := env.cartService.Add(ctx, env.identity.UserID, product.ID, 2, "S"); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}

	order, err := env.ordersSvc.CreateOrder(ctx, env.identity, "42 Park Street, Kolkata", "cod")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if order.Subtotal != 1200 || order.Shipping != 100 || order.Total != 1300 {
		t.Fatalf("unexpected totals: subtotal=%d shipping=%d total=%d", order.Subtotal, order.Shipping, order.Total)
	}
}

func TestCheckoutStockFailureKeepsEarlierReductions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	env := setupStorefront(ctx, t)
	first := env.seedProduct(ctx, t, "plenty-shirt", 600, 10)
	second := env.seedProduct(ctx, t, "scarce-shirt", 900, 5)

	if err := env.cartService.Add(ctx, env.identity.UserID, first.ID, 2, "M"); err != nil {
		t.Fatalf("failed to add first product: %v", err)
	}
	if err := env.cartService.Add(ctx, env.identity.UserID, second.ID, 4, "M"); err != nil {
		t.Fatalf("failed to add second product: %v", err)
	}

	// a concurrent purchase drains the second product before checkout
	if _, err := env.catalogRepo.ReduceStock(ctx, second.ID, 3); err != nil {
		t.Fatalf("failed to drain stock: %v", err)
	}

	_, err := env.ordersSvc.CreateOrder(ctx, env.identity, "42 Park Street, Kolkata", "cod")
	if !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	// the first reduction is not rolled back
	firstAfter, err := env.catalogRepo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("failed to fetch first product: %v", err)
	}
	if firstAfter.Stock != 8 {
		t.Fatalf("expected first product stock 8, got %d", firstAfter.Stock)
	}

	secondAfter, err := env.catalogRepo.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("failed to fetch second product: %v", err)
	}
	if secondAfter.Stock != 2 {
		t.Fatalf("expected second product stock 2, got %d", secondAfter.Stock)
	}

	// the cart survives for a retry
	items, err := env.cartService.GetCartWithDetails(ctx, env.identity.UserID)
	if err != nil {
		t.Fatalf("failed to read cart: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected cart intact with 2 items, got %d", len(items))
	}

	// the order row stays behind, still pending
	list, err := env.ordersRepo.ListByUser(ctx, env.identity.UserID)
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(list) != 1 || list[0].Status != domain.OrderStatusPending {
		t.Fatalf("expected one pending order left behind, got %+v", list)
	}
}

func TestCancelRestoresStockOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	env := setupStorefront(ctx, t)
	product := env.seedProduct(ctx, t, "cancel-shirt", 1500, 10)

	if err := env.cartService.Add(ctx, env.identity.UserID, product.ID, 3, "L"); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}

	order, err := env.ordersSvc.CreateOrder(ctx, env.identity, "42 Park Street, Kolkata", "cod")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	cancelled, err := env.ordersSvc.CancelOrder(ctx, env.identity, order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected status cancelled, got %s", cancelled.Status)
	}

	restored, err := env.catalogRepo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if restored.Stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", restored.Stock)
	}

	// a second cancel must not restore again
	_, err = env.ordersSvc.CancelOrder(ctx, env.identity, order.ID)
	if !errors.Is(err, orders.ErrInvalidStatusTransition) {
		t.Fatalf("expected invalid transition error, got %v", err)
	}

	again, err := env.catalogRepo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if again.Stock != 10 {
		t.Fatalf("expected stock still 10, got %d", again.Stock)
	}
}

func TestOrderStatsAndRevenue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	env := setupStorefront(ctx, t)
	product := env.seedProduct(ctx, t, "stats-shirt", 2500, 50)

	placeOrder := func() *domain.Order {
		if err := env.cartService.Add(ctx, env.identity.UserID, product.ID, 1, "M"); err != nil {
			t.Fatalf("failed to add to cart: %v", err)
		}
		order, err := env.ordersSvc.CreateOrder(ctx, env.identity, "42 Park Street, Kolkata", "cod")
		if err != nil {
			t.Fatalf("checkout failed: %v", err)
		}
		return order
	}

	placeOrder()
	second := placeOrder()
	third := placeOrder()

	if _, err := env.ordersSvc.UpdateStatus(ctx, second.ID, domain.OrderStatusShipped); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}
	if _, err := env.ordersSvc.CancelOrder(ctx, env.identity, third.ID); err != nil {
		t.Fatalf("failed to cancel order: %v", err)
	}

	stats, err := env.ordersSvc.Stats(ctx)
	if err != nil {
		t.Fatalf("failed to compute stats: %v", err)
	}

	if stats.Total != 3 || stats.Pending != 1 || stats.Shipped != 1 || stats.Cancelled != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalRevenue != 5000 {
		t.Fatalf("expected revenue 5000 excluding the cancelled order, got %d", stats.TotalRevenue)
	}

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	revenue, err := env.ordersSvc.RevenueBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("failed to compute revenue: %v", err)
	}
	if revenue != 5000 {
		t.Fatalf("expected windowed revenue 5000, got %d", revenue)
	}

	// a window before any order was placed is empty
	revenue, err = env.ordersSvc.RevenueBetween(ctx, start.Add(-48*time.Hour), start)
	if err != nil {
		t.Fatalf("failed to compute revenue: %v", err)
	}
	if revenue != 0 {
		t.Fatalf("expected empty-window revenue 0, got %d", revenue)
	}
}

func TestClearUsersRemovesOrdersAndReviews(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	env := setupStorefront(ctx, t)
	product := env.seedProduct(ctx, t, "clear-shirt", 2200, 10)

	if err := env.cartService.Add(ctx, env.identity.UserID, product.ID, 1, "M"); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}
	order, err := env.ordersSvc.CreateOrder(ctx, env.identity, "42 Park Street, Kolkata", "cod")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	reviewsRepo := reviews.NewRepository(env.db)
	review := &domain.Review{
		ProductID: product.ID,
		UserID:    env.identity.UserID,
		UserName:  env.identity.Name,
		Rating:    5,
		Comment:   "Fits perfectly, fabric feels great.",
	}
	if err := reviewsRepo.Create(ctx, review); err != nil {
		t.Fatalf("failed to create review: %v", err)
	}

	// orders and reviews reference the user; the wipe must still succeed
	if err := env.usersRepo.DeleteAllUsers(ctx); err != nil {
		t.Fatalf("failed to clear users: %v", err)
	}

	user, err := env.usersRepo.GetUserByEmail(ctx, env.identity.Email)
	if err != nil {
		t.Fatalf("failed to look up user: %v", err)
	}
	if user != nil {
		t.Fatal("expected user to be gone after clear")
	}

	stored, err := env.ordersRepo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if stored != nil {
		t.Fatalf("expected order to be gone after clear, got %+v", stored)
	}

	remaining, err := reviewsRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to list reviews: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected reviews to be gone after clear, got %d", len(remaining))
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	env := setupStorefront(ctx, t)

	dup := &domain.User{
		FirstName:    "Other",
		LastName:     "Customer",
		Email:        env.identity.Email,
		PasswordHash: "not-a-real-hash",
	}
	if err := env.usersRepo.CreateUser(ctx, dup); !errors.Is(err, accounts.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterLoginAndProfile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	t.Cleanup(pg.Cleanup)
	db := OpenDB(t, pg.ConnStr)
	rdb := SetupRedis(ctx, t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	usersRepo := accounts.NewRepository(db)
	sessions := accounts.NewSessionStore(rdb)
	handler := accounts.NewHandler(usersRepo, sessions, accounts.NewOTPStore(), nil, logger)
	auth := accounts.NewAuth(sessions, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", handler.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", handler.HandleLogin)
	mux.HandleFunc("GET /api/profile", auth.RequireUser(handler.HandleGetProfile))
	server := httptest.NewServer(mux)
	defer server.Close()

	registerBody := `{"firstName":"Asha","lastName":"Rao","email":"asha@example.com","password":"secret123"}`
	resp, err := http.Post(server.URL+"/api/auth/register", "application/json", strings.NewReader(registerBody))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected register status 201, got %d", resp.StatusCode)
	}

	loginBody := `{"email":"asha@example.com","password":"secret123"}`
	resp, err = http.Post(server.URL+"/api/auth/login", "application/json", strings.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	var loginResult struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResult); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	_ = resp.Body.Close()
	if !loginResult.Success || loginResult.Token == "" {
		t.Fatalf("expected login to return a token, got %+v", loginResult)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+loginResult.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("profile request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected profile status 200, got %d", resp.StatusCode)
	}

	// wrong password is rejected
	resp, err = http.Post(server.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"asha@example.com","password":"wrong"}`))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad login status 400, got %d", resp.StatusCode)
	}
}

func TestKafkaOrderEventRoundtrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers, messaging.TopicOrderCreated)
	defer func() { _ = producer.Close() }()

	event := domain.OrderCreatedEvent{
		OrderID:   "order-integration-1",
		UserID:    "user-1",
		Email:     "customer@example.com",
		Items:     []domain.OrderItem{{ProductID: "p1", ProductName: "Checkout Shirt", Quantity: 2, Price: 1200}},
		Total:     2400,
		Timestamp: time.Now().UTC(),
	}
	if err := producer.Publish(ctx, event.OrderID, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderCreated, "integration-test")
	defer func() { _ = consumer.Close() }()

	consumeCtx, stop := context.WithCancel(ctx)
	var received domain.OrderCreatedEvent
	err := consumer.Consume(consumeCtx, func(_ context.Context, payload []byte) error {
		if err := json.Unmarshal(payload, &received); err != nil {
			return err
		}
		stop()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("consumer error: %v", err)
	}

	if received.OrderID != event.OrderID || received.Total != event.Total || received.Email != event.Email {
		t.Fatalf("received event mismatch: %+v", received)
	}
}
