package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/varnwear/storefront/internal/domain"
)

const sessionTTL = 24 * time.Hour

// SessionStore maps opaque bearer tokens to identities in redis. Tokens
// expire a day after login and are never refreshed; logout or expiry are
// the only ways a token dies.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (s *SessionStore) Create(ctx context.Context, identity domain.Identity) (string, error) {
	token := uuid.New().String()

	data, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}

	if err := s.rdb.Set(ctx, sessionKey(token), data, sessionTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Get resolves a token to its identity; unknown or expired tokens return
// (nil, nil).
func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Identity, error) {
	data, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var identity domain.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}
