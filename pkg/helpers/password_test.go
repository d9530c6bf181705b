package helpers

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	hash, err := h.HashPassword(ctx, "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	ok, err := h.CompareHashAndPassword(ctx, hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.CompareHashAndPassword(ctx, hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_MalformedHashIsMismatch(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 1)

	ok, err := h.CompareHashAndPassword(context.Background(), "not-a-bcrypt-hash", "whatever")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_DefaultCost(t *testing.T) {
	h := NewPasswordHasher(0, 0)
	assert.Equal(t, DefaultBcryptCost, h.cost)

	hash, err := h.HashPassword(context.Background(), "pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func TestPasswordHasher_CanceledContext(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 1)
	// hold the only slot
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.HashPassword(ctx, "pw")
	assert.ErrorIs(t, err, context.Canceled)

	ok, err := h.CompareHashAndPassword(ctx, "x", "pw")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestPasswordHasher_Concurrent(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 2)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.HashPassword(context.Background(), "pw")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
