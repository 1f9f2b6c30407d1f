package orders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/varnwear/storefront/internal/catalog"
	"github.com/varnwear/storefront/internal/domain"
	"github.com/varnwear/storefront/internal/telemetry"
)

var (
	ErrEmptyCart               = errors.New("Cart is empty")
	ErrOrderNotFound           = errors.New("Order not found")
	ErrInvalidStatusTransition = errors.New("Only pending orders can be cancelled")
)

const (
	freeShippingThreshold = 2000
	flatShippingFee       = 100
)

// CartReader is the slice of the cart the checkout needs.
type CartReader interface {
	GetCartWithDetails(ctx context.Context, userID string) ([]domain.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

// StockAdjuster reduces and restores product stock. ReduceStock is a
// conditional decrement that fails instead of going negative.
type StockAdjuster interface {
	ReduceStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
	RestoreStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
}

// OrderStore is the persistence surface of the order workflow.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	ConfirmDelivery(ctx context.Context, id string, date time.Time, message string) (*domain.Order, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
	RevenueBetween(ctx context.Context, start, end time.Time) (int64, error)
}

// Publisher emits order lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Service owns the order workflow: checkout, cancellation with stock
// compensation, status administration and statistics.
type Service struct {
	store     OrderStore
	cart      CartReader
	stock     StockAdjuster
	created   Publisher
	cancelled Publisher
	metrics   *telemetry.OrderMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the workflow. The publishers and metrics may be nil;
// event and metric emission is then skipped.
func NewService(store OrderStore, cart CartReader, stock StockAdjuster, created, cancelled Publisher, metrics *telemetry.OrderMetrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		cart:      cart,
		stock:     stock,
		created:   created,
		cancelled: cancelled,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// ShippingFee is zero at or above the free-shipping threshold, flat below.
func ShippingFee(subtotal int64) int64 {
	if subtotal >= freeShippingThreshold {
		return 0
	}
	return flatShippingFee
}

// CreateOrder turns the user's cart into a pending order.
//
// The order is persisted before any stock is touched, then stock is
// reduced one line at a time. A failed reduction aborts checkout and is
// returned as-is; earlier reductions are NOT rolled back and the order
// row stays behind, still pending. The cart is cleared only after every
// line reduced successfully.
func (s *Service) CreateOrder(ctx context.Context, identity *domain.Identity, shippingAddress, paymentMethod string) (*domain.Order, error) {
	items, err := s.cart.GetCartWithDetails(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var subtotal int64
	snapshots := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		subtotal += item.Product.Price * int64(item.Quantity)
		snapshots = append(snapshots, domain.OrderItem{
			ProductID:    item.Product.ID,
			ProductName:  item.Product.Name,
			ProductImage: item.Product.FirstImage(),
			Quantity:     item.Quantity,
			Size:         item.Size,
			Price:        item.Product.Price,
		})
	}

	shipping := ShippingFee(subtotal)
	now := s.now().UTC()
	order := &domain.Order{
		ID:              uuid.New().String(),
		UserID:          identity.UserID,
		Items:           snapshots,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		Subtotal:        subtotal,
		Shipping:        shipping,
		Total:           subtotal + shipping,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Create(ctx, order); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		if _, err := s.stock.ReduceStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("stock reduction failed, aborting checkout",
				"error", err, "order_id", order.ID, "product_id", item.ProductID)
			if s.metrics != nil {
				s.metrics.OrderCreated(ctx, "stock_failure", order.Total)
			}
			return nil, err
		}
	}

	if err := s.cart.Clear(ctx, identity.UserID); err != nil {
		s.logger.Error("failed to clear cart after checkout", "error", err, "order_id", order.ID)
	}

	if s.created != nil {
		event := domain.OrderCreatedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Email:     identity.Email,
			Items:     order.Items,
			Total:     order.Total,
			Timestamp: order.CreatedAt,
		}
		if err := s.created.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	if s.metrics != nil {
		s.metrics.OrderCreated(ctx, "success", order.Total)
	}

	s.logger.Info("order created", "order_id", order.ID, "user_id", order.UserID, "total", order.Total)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.store.GetByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.store.ListByUser(ctx, userID)
}

// CancelOrder cancels a pending order owned by the user and restores the
// stock its items consumed. Restores for products that were deleted in
// the meantime are skipped.
func (s *Service) CancelOrder(ctx context.Context, identity *domain.Identity, orderID string) (*domain.Order, error) {
	order, err := s.store.GetByIDForUser(ctx, orderID, identity.UserID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != domain.OrderStatusPending {
		return nil, ErrInvalidStatusTransition
	}

	cancelled, err := s.store.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if cancelled == nil {
		return nil, ErrOrderNotFound
	}

	for _, item := range cancelled.Items {
		if _, err := s.stock.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				s.logger.Warn("skipping stock restore for deleted product",
					"order_id", orderID, "product_id", item.ProductID)
				continue
			}
			return nil, err
		}
	}

	if s.cancelled != nil {
		event := domain.OrderCancelledEvent{
			OrderID:   cancelled.ID,
			UserID:    cancelled.UserID,
			Email:     identity.Email,
			Total:     cancelled.Total,
			Timestamp: s.now().UTC(),
		}
		if err := s.cancelled.Publish(ctx, cancelled.ID, event); err != nil {
			s.logger.Error("failed to publish order cancelled event", "error", err, "order_id", cancelled.ID)
		}
	}

	if s.metrics != nil {
		s.metrics.OrderCancelled(ctx)
	}

	s.logger.Info("order cancelled", "order_id", cancelled.ID, "user_id", cancelled.UserID)
	return cancelled, nil
}

// AdminGetOrder looks an order up without ownership scoping.
func (s *Service) AdminGetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListAllOrders is the admin view; an empty status means all orders.
func (s *Service) ListAllOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return s.store.List(ctx, status)
}

// UpdateStatus overwrites the order's status without transition checks.
// Stock is not adjusted, even when the new status is cancelled.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.store.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	s.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	return order, nil
}

// ConfirmDelivery marks the order delivered with a delivery date and a
// confirmation message for the customer.
func (s *Service) ConfirmDelivery(ctx context.Context, orderID string, date time.Time, message string) (*domain.Order, error) {
	order, err := s.store.ConfirmDelivery(ctx, orderID, date, message)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	s.logger.Info("order delivery confirmed", "order_id", order.ID, "delivery_date", date)
	return order, nil
}

func (s *Service) Stats(ctx context.Context) (*domain.OrderStats, error) {
	return s.store.Stats(ctx)
}

func (s *Service) RevenueBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return s.store.RevenueBetween(ctx, start, end)
}
