package cart

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/varnwear/storefront/internal/catalog"
	"github.com/varnwear/storefront/internal/domain"
)

// memStorage is an in-memory Storage used to exercise the service logic
// without redis.
type memStorage struct {
	lines map[string]map[string]domain.CartLine
}

func newMemStorage() *memStorage {
	return &memStorage{lines: make(map[string]map[string]domain.CartLine)}
}

func (m *memStorage) GetLine(_ context.Context, userID, productID, size string) (*domain.CartLine, error) {
	line, ok := m.lines[userID][lineField(productID, size)]
	if !ok {
		return nil, nil
	}
	return &line, nil
}

func (m *memStorage) SetLine(_ context.Context, userID string, line domain.CartLine) error {
	if m.lines[userID] == nil {
		m.lines[userID] = make(map[string]domain.CartLine)
	}
	m.lines[userID][lineField(line.ProductID, line.Size)] = line
	return nil
}

func (m *memStorage) RemoveLine(_ context.Context, userID, productID, size string) error {
	delete(m.lines[userID], lineField(productID, size))
	return nil
}

func (m *memStorage) Lines(_ context.Context, userID string) ([]domain.CartLine, error) {
	lines := make([]domain.CartLine, 0, len(m.lines[userID]))
	for _, line := range m.lines[userID] {
		lines = append(lines, line)
	}
	sortLines(lines)
	return lines, nil
}

func (m *memStorage) Clear(_ context.Context, userID string) error {
	delete(m.lines, userID)
	return nil
}

type fakeCatalog struct {
	products map[string]*domain.Product
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*domain.Product, error) {
	return f.products[id], nil
}

func newTestService(products ...*domain.Product) (*Service, *memStorage) {
	byID := make(map[string]*domain.Product)
	for _, p := range products {
		byID[p.ID] = p
	}
	store := newMemStorage()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, &fakeCatalog{products: byID}, logger), store
}

func TestService_AddMergesSameProductAndSize(t *testing.T) {
	svc, _ := newTestService(&domain.Product{ID: "p1", Price: 600, Stock: 10, Sizes: []string{"M", "L"}})
	ctx := context.Background()

	assert.NoError(t, svc.Add(ctx, "u1", "p1", 2, "M"))
	assert.NoError(t, svc.Add(ctx, "u1", "p1", 3, "M"))

	items, err := svc.GetCartWithDetails(ctx, "u1")
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestService_AddKeepsDistinctSizesSeparate(t *testing.T) {
	svc, _ := newTestService(&domain.Product{ID: "p1", Price: 600, Stock: 10, Sizes: []string{"M", "L"}})
	ctx := context.Background()

	assert.NoError(t, svc.Add(ctx, "u1", "p1", 1, "M"))
	assert.NoError(t, svc.Add(ctx, "u1", "p1", 1, "L"))

	items, err := svc.GetCartWithDetails(ctx, "u1")
	assert.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestService_AddRejectsOverStock(t *testing.T) {
	svc, _ := newTestService(&domain.Product{ID: "p1", Price: 600, Stock: 3})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Add(ctx, "u1", "p1", 5, ""), catalog.ErrInsufficientStock)

	// merging past the ceiling is also rejected
	assert.NoError(t, svc.Add(ctx, "u1", "p1", 2, ""))
	assert.ErrorIs(t, svc.Add(ctx, "u1", "p1", 2, ""), ErrStockExceeded)
}

func TestService_AddValidatesSizeAndProduct(t *testing.T) {
	svc, _ := newTestService(&domain.Product{ID: "p1", Price: 600, Stock: 10, Sizes: []string{"M"}})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Add(ctx, "u1", "p1", 1, "XXL"), ErrInvalidSize)
	assert.ErrorIs(t, svc.Add(ctx, "u1", "missing", 1, ""), catalog.ErrProductNotFound)
}

func TestService_UpdateQuantity(t *testing.T) {
	svc, _ := newTestService(&domain.Product{ID: "p1", Price: 600, Stock: 10})
	ctx := context.Background()

	assert.NoError(t, svc.Add(ctx, "u1", "p1", 2, ""))

	assert.NoError(t, svc.UpdateQuantity(ctx, "u1", "p1", 7, ""))
	count, err := svc.Count(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, 7, count)

	assert.ErrorIs(t, svc.UpdateQuantity(ctx, "u1", "p1", 11, ""), ErrStockExceeded)

	// zero removes the line
	assert.NoError(t, svc.UpdateQuantity(ctx, "u1", "p1", 0, ""))
	items, err := svc.GetCartWithDetails(ctx, "u1")
	assert.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, svc.UpdateQuantity(ctx, "u1", "p1", 1, ""), ErrLineNotFound)
}

func TestService_DetailsSkipMissingProducts(t *testing.T) {
	p1 := &domain.Product{ID: "p1", Price: 600, Stock: 10}
	p2 := &domain.Product{ID: "p2", Price: 2500, Stock: 5}
	svc, _ := newTestService(p1, p2)
	fake := svc.catalog.(*fakeCatalog)
	ctx := context.Background()

	assert.NoError(t, svc.Add(ctx, "u1", "p1", 2, ""))
	assert.NoError(t, svc.Add(ctx, "u1", "p2", 1, ""))

	// the product vanishes after it was carted
	delete(fake.products, "p2")

	items, err := svc.GetCartWithDetails(ctx, "u1")
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)

	subtotal, err := svc.Subtotal(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, int64(1200), subtotal)
}

func TestService_LinesKeepInsertionOrder(t *testing.T) {
	svc, store := newTestService(
		&domain.Product{ID: "p1", Price: 100, Stock: 10},
		&domain.Product{ID: "p2", Price: 200, Stock: 10},
	)
	ctx := context.Background()

	base := time.Now().UTC()
	svc.now = func() time.Time { return base }
	assert.NoError(t, svc.Add(ctx, "u1", "p2", 1, ""))
	svc.now = func() time.Time { return base.Add(time.Minute) }
	assert.NoError(t, svc.Add(ctx, "u1", "p1", 1, ""))

	lines, err := store.Lines(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, []string{lines[0].ProductID, lines[1].ProductID})
}
