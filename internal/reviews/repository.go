package reviews

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/varnwear/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *domain.Review) error {
	review.ID = uuid.New().String()
	review.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, product_id, user_id, user_name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, review.ID, review.ProductID, review.UserID, review.UserName, review.Rating, review.Comment, review.CreatedAt)
	return err
}

// ListByProduct returns a product's reviews newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, user_id, user_name, rating, comment, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.ProductID, &review.UserID, &review.UserName, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// AverageRating is 0 for products without reviews.
func (r *Repository) AverageRating(ctx context.Context, productID string) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE product_id = $1
	`, productID).Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg, nil
}
