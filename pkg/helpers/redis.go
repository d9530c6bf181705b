package helpers

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RevocationList remembers logged-out token ids until the tokens would have
// expired anyway. A nil *RevocationList revokes nothing.
type RevocationList struct {
	rdb *redis.Client
}

func NewRevocationList(rdb *redis.Client) *RevocationList {
	return &RevocationList{rdb: rdb}
}

func revokedKey(jti string) string {
	return "session:revoked:" + jti
}

// Revoke marks jti as revoked until exp. Tokens already past exp are skipped.
func (r *RevocationList) Revoke(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if r == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

func (r *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r == nil || jti == "" {
		return false, nil
	}
	err := r.rdb.Get(ctx, revokedKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
