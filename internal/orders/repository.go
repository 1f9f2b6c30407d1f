package orders

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/varnwear/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, user_id, shipping_address, payment_method, subtotal, shipping, total,
	status, delivery_date, COALESCE(confirmation_message, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID, &order.UserID, &order.ShippingAddress, &order.PaymentMethod,
		&order.Subtotal, &order.Shipping, &order.Total,
		&order.Status, &order.DeliveryDate, &order.ConfirmationMessage,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Create persists the order and its item snapshots in one transaction.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, shipping_address, payment_method, subtotal, shipping, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, order.ID, order.UserID, order.ShippingAddress, order.PaymentMethod,
		order.Subtotal, order.Shipping, order.Total, order.Status, order.CreatedAt)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		itemID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, product_image, quantity, size, price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, itemID, order.ID, item.ProductID, item.ProductName, item.ProductImage, item.Quantity, item.Size, item.Price)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	if order.Items == nil {
		order.Items = []domain.OrderItem{}
	}

	return order, nil
}

// GetByIDForUser returns nil when the order does not exist or belongs to a
// different user; callers cannot tell the two apart.
func (r *Repository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, nil
	}
	return order, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(ctx, rows)
}

// List returns all orders newest first; a non-empty status narrows the
// result to that status.
func (r *Repository) List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
	`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.collectOrders(ctx, rows)
}

func (r *Repository) collectOrders(ctx context.Context, rows *sql.Rows) ([]domain.Order, error) {
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemsByOrder, err := r.loadItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		order := orderMap[id]
		if items := itemsByOrder[id]; items != nil {
			order.Items = items
		}
		orders = append(orders, *order)
	}

	return orders, nil
}

// loadItems fetches item snapshots for a batch of orders in one query.
func (r *Repository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, product_name, product_image, quantity, size, price
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	itemsByOrder := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductName, &item.ProductImage, &item.Quantity, &item.Size, &item.Price); err != nil {
			return nil, err
		}
		itemsByOrder[orderID] = append(itemsByOrder[orderID], item)
	}

	return itemsByOrder, rows.Err()
}

// UpdateStatus overwrites the status unconditionally and returns the fresh
// order, or nil when no such order exists.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// ConfirmDelivery marks the order delivered and records the delivery date
// and confirmation message.
func (r *Repository) ConfirmDelivery(ctx context.Context, id string, date time.Time, message string) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, delivery_date = $2, confirmation_message = $3, updated_at = NOW()
		WHERE id = $4
	`, domain.OrderStatusDelivered, date, message, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Stats recomputes order counts and revenue from stored orders; revenue
// excludes cancelled orders.
func (r *Repository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats := &domain.OrderStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'shipped'),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(SUM(total) FILTER (WHERE status <> 'cancelled'), 0)
		FROM orders
	`).Scan(&stats.Total, &stats.Pending, &stats.Shipped, &stats.Delivered, &stats.Cancelled, &stats.TotalRevenue)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RevenueBetween sums non-cancelled order totals created in the inclusive
// [start, end] window.
func (r *Repository) RevenueBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var revenue int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE status <> 'cancelled' AND created_at >= $1 AND created_at <= $2
	`, start, end).Scan(&revenue)
	if err != nil {
		return 0, err
	}
	return revenue, nil
}
