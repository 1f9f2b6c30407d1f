package cart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/varnwear/storefront/internal/catalog"
	"github.com/varnwear/storefront/internal/domain"
)

var (
	ErrStockExceeded = errors.New("Cannot add more than available stock")
	ErrInvalidSize   = errors.New("size not available for this product")
	ErrLineNotFound  = errors.New("item not in cart")
)

// ProductGetter is the slice of the catalog the cart needs.
type ProductGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service validates cart mutations against the catalog and resolves lines
// to products for checkout.
type Service struct {
	store   Storage
	catalog ProductGetter
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store Storage, catalog ProductGetter, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// Add puts quantity units of a product into the user's cart. Adding a
// (product, size) pair already present merges quantities instead of
// duplicating the line; the merged quantity may not exceed current stock.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int, size string) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return catalog.ErrProductNotFound
	}
	if size != "" && !product.HasSize(size) {
		return ErrInvalidSize
	}
	if product.Stock < quantity {
		return catalog.ErrInsufficientStock
	}

	existing, err := s.store.GetLine(ctx, userID, productID, size)
	if err != nil {
		return err
	}

	line := domain.CartLine{
		ProductID: productID,
		Quantity:  quantity,
		Size:      size,
		AddedAt:   s.now().UTC(),
	}
	if existing != nil {
		line.Quantity += existing.Quantity
		line.AddedAt = existing.AddedAt
		if line.Quantity > product.Stock {
			return ErrStockExceeded
		}
	}

	return s.store.SetLine(ctx, userID, line)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int, size string) error {
	if quantity <= 0 {
		return s.store.RemoveLine(ctx, userID, productID, size)
	}

	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return catalog.ErrProductNotFound
	}
	if quantity > product.Stock {
		return ErrStockExceeded
	}

	existing, err := s.store.GetLine(ctx, userID, productID, size)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrLineNotFound
	}

	existing.Quantity = quantity
	return s.store.SetLine(ctx, userID, *existing)
}

func (s *Service) Remove(ctx context.Context, userID, productID, size string) error {
	return s.store.RemoveLine(ctx, userID, productID, size)
}

// GetCartWithDetails resolves every line against the catalog. Lines whose
// product no longer exists are dropped silently; callers depend on this
// partial resolution.
func (s *Service) GetCartWithDetails(ctx context.Context, userID string) ([]domain.CartItem, error) {
	lines, err := s.store.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			s.logger.Warn("dropping cart line for missing product", "product_id", line.ProductID, "user_id", userID)
			continue
		}
		items = append(items, domain.CartItem{CartLine: line, Product: product})
	}

	return items, nil
}

// Subtotal is the sum of price*quantity over resolvable lines.
func (s *Service) Subtotal(ctx context.Context, userID string) (int64, error) {
	items, err := s.GetCartWithDetails(ctx, userID)
	if err != nil {
		return 0, err
	}

	var subtotal int64
	for _, item := range items {
		subtotal += item.Product.Price * int64(item.Quantity)
	}
	return subtotal, nil
}

// Count is the total unit count across lines, resolved or not.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	lines, err := s.store.Lines(ctx, userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}
