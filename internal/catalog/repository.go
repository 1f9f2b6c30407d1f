package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/varnwear/storefront/internal/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, name, images, COALESCE(video, ''), price, sizes, stock, category, description, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID, &p.Name, pq.Array(&p.Images), &p.Video, &p.Price,
		pq.Array(&p.Sizes), &p.Stock, &p.Category, &p.Description, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, images, video, price, sizes, stock, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Name, pq.Array(p.Images), p.Video, p.Price, pq.Array(p.Sizes), p.Stock, p.Category, p.Description, p.CreatedAt)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// List returns the catalog, optionally narrowed to a category and/or a
// case-insensitive search over name, category and description.
func (r *Repository) List(ctx context.Context, category, search string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var conds []string
	var args []any

	if category != "" {
		args = append(args, category)
		conds = append(conds, `category = $1`)
	}
	if search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		pos := "$2"
		if category == "" {
			pos = "$1"
		}
		conds = append(conds, `(LOWER(name) LIKE `+pos+` OR LOWER(category) LIKE `+pos+` OR LOWER(description) LIKE `+pos+`)`)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *Repository) Update(ctx context.Context, p *domain.Product) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, images = $3, video = $4, price = $5, sizes = $6,
		    stock = $7, category = $8, description = $9
		WHERE id = $1
	`, p.ID, p.Name, pq.Array(p.Images), p.Video, p.Price, pq.Array(p.Sizes), p.Stock, p.Category, p.Description)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// ReduceStock decrements stock by quantity as a single conditional update,
// so stock can never go negative even under concurrent orders. Returns
// ErrInsufficientStock when the product holds fewer than quantity units.
func (r *Repository) ReduceStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
	`, id, quantity)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		p, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProductNotFound
		}
		return nil, ErrInsufficientStock
	}

	return r.GetByID(ctx, id)
}

// RestoreStock adds quantity back unconditionally; there is no upper bound.
// Used by order cancellation to compensate earlier reductions.
func (r *Repository) RestoreStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2
		WHERE id = $1
	`, id, quantity)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrProductNotFound
	}

	return r.GetByID(ctx, id)
}
