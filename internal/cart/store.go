package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/varnwear/storefront/internal/domain"
)

// Storage is the persistence seam for cart lines. The redis-backed Store is
// the production implementation.
type Storage interface {
	GetLine(ctx context.Context, userID, productID, size string) (*domain.CartLine, error)
	SetLine(ctx context.Context, userID string, line domain.CartLine) error
	RemoveLine(ctx context.Context, userID, productID, size string) error
	Lines(ctx context.Context, userID string) ([]domain.CartLine, error)
	Clear(ctx context.Context, userID string) error
}

// Store keeps one redis hash per user; each field is a (product, size) pair
// holding the line as JSON. The hash lives until checkout clears it.
type Store struct {
	rdb *redis.Client
}

var _ Storage = (*Store)(nil)

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// lineField encodes the (productID, size) uniqueness key. Product ids are
// uuids, so the separator cannot collide.
func lineField(productID, size string) string {
	return productID + "|" + size
}

func (s *Store) GetLine(ctx context.Context, userID, productID, size string) (*domain.CartLine, error) {
	data, err := s.rdb.HGet(ctx, cartKey(userID), lineField(productID, size)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var line domain.CartLine
	if err := json.Unmarshal(data, &line); err != nil {
		return nil, err
	}
	return &line, nil
}

func (s *Store) SetLine(ctx context.Context, userID string, line domain.CartLine) error {
	data, err := json.Marshal(line)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, cartKey(userID), lineField(line.ProductID, line.Size), data).Err()
}

func (s *Store) RemoveLine(ctx context.Context, userID, productID, size string) error {
	return s.rdb.HDel(ctx, cartKey(userID), lineField(productID, size)).Err()
}

func (s *Store) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	fields, err := s.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, 0, len(fields))
	for _, data := range fields {
		var line domain.CartLine
		if err := json.Unmarshal([]byte(data), &line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	sortLines(lines)
	return lines, nil
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, cartKey(userID)).Err()
}

// sortLines orders lines oldest-first so the cart renders in the order
// items were added; redis hashes have no ordering of their own.
func sortLines(lines []domain.CartLine) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].AddedAt.Equal(lines[j].AddedAt) {
			return lineField(lines[i].ProductID, lines[i].Size) < lineField(lines[j].ProductID, lines[j].Size)
		}
		return lines[i].AddedAt.Before(lines[j].AddedAt)
	})
}
