package cart

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/varnwear/storefront/internal/domain"
)

// Wishlist is a per-user set of product ids in redis. Unlike the cart it
// carries no quantities or sizes.
type Wishlist struct {
	rdb     *redis.Client
	catalog ProductGetter
}

func NewWishlist(rdb *redis.Client, catalog ProductGetter) *Wishlist {
	return &Wishlist{rdb: rdb, catalog: catalog}
}

func wishlistKey(userID string) string {
	return "wishlist:" + userID
}

// Add returns false when the product was already wishlisted.
func (w *Wishlist) Add(ctx context.Context, userID, productID string) (bool, error) {
	product, err := w.catalog.GetByID(ctx, productID)
	if err != nil {
		return false, err
	}
	if product == nil {
		return false, nil
	}

	added, err := w.rdb.SAdd(ctx, wishlistKey(userID), productID).Result()
	if err != nil {
		return false, err
	}
	return added > 0, nil
}

func (w *Wishlist) Remove(ctx context.Context, userID, productID string) error {
	return w.rdb.SRem(ctx, wishlistKey(userID), productID).Err()
}

// WithDetails resolves the wishlist against the catalog, dropping products
// that no longer exist.
func (w *Wishlist) WithDetails(ctx context.Context, userID string) ([]domain.Product, error) {
	ids, err := w.rdb.SMembers(ctx, wishlistKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		product, err := w.catalog.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if product == nil {
			continue
		}
		products = append(products, *product)
	}
	return products, nil
}
