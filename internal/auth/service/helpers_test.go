package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bookstore/internal/auth/credentials"
	"bookstore/internal/auth/models"
	"bookstore/internal/auth/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingHasher wraps a real bcrypt hasher and counts Hash calls.
type countingHasher struct {
	*credentials.Hasher
	hashes atomic.Int32
}

func newCountingHasher() *countingHasher {
	return &countingHasher{Hasher: credentials.NewHasher(bcrypt.MinCost)}
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.hashes.Add(1)
	return h.Hasher.Hash(password)
}

func fastHasher() *credentials.Hasher {
	return credentials.NewHasher(bcrypt.MinCost)
}

// seedUser stores a user with the given password and role.
func seedUser(t *testing.T, store *repository.MemoryStore, username, password string, role models.Role) *models.User {
	t.Helper()

	hash, err := fastHasher().Hash(password)
	require.NoError(t, err)

	u, err := store.Save(context.Background(), &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
	})
	require.NoError(t, err)
	return u
}
