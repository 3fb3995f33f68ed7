package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/auth/models"
)

type identityStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, u *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

func newSQLiteStore(t *testing.T) identityStore {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func stores(t *testing.T) map[string]func(t *testing.T) identityStore {
	t.Helper()
	return map[string]func(t *testing.T) identityStore{
		"sqlite": newSQLiteStore,
		"memory": func(t *testing.T) identityStore { return NewMemoryStore() },
	}
}

func TestSaveAssignsIDAndFinds(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			saved, err := store.Save(ctx, &models.User{
				Username:     "john",
				Email:        "john@example.com",
				PasswordHash: "hash",
				Role:         models.RoleUser,
			})
			require.NoError(t, err)
			require.NotEmpty(t, saved.ID)
			assert.False(t, saved.CreatedAt.IsZero())

			byName, err := store.FindByUsername(ctx, "john")
			require.NoError(t, err)
			assert.Equal(t, saved.ID, byName.ID)
			assert.Equal(t, models.RoleUser, byName.Role)
			assert.Equal(t, "hash", byName.PasswordHash)

			byID, err := store.FindByID(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, "john", byID.Username)
			assert.Equal(t, "john@example.com", byID.Email)
		})
	}
}

func TestFindMissingUser(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			_, err := store.FindByUsername(ctx, "ghost")
			assert.ErrorIs(t, err, models.ErrUserNotFound)

			_, err = store.FindByID(ctx, "missing-id")
			assert.ErrorIs(t, err, models.ErrUserNotFound)
		})
	}
}

func TestSaveRejectsDuplicateUsername(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			first, err := store.Save(ctx, &models.User{Username: "john", PasswordHash: "h1", Role: models.RoleUser})
			require.NoError(t, err)

			_, err = store.Save(ctx, &models.User{Username: "john", PasswordHash: "h2", Role: models.RoleAdmin})
			require.ErrorIs(t, err, models.ErrDuplicateUsername)

			other, err := store.Save(ctx, &models.User{Username: "jane", PasswordHash: "h3", Role: models.RoleUser})
			require.NoError(t, err)

			other.Username = "john"
			_, err = store.Save(ctx, other)
			require.ErrorIs(t, err, models.ErrDuplicateUsername)

			// nothing was written by the rejected saves
			stored, err := store.FindByUsername(ctx, "john")
			require.NoError(t, err)
			assert.Equal(t, first.ID, stored.ID)
			assert.Equal(t, "h1", stored.PasswordHash)

			stillJane, err := store.FindByID(ctx, other.ID)
			require.NoError(t, err)
			assert.Equal(t, "jane", stillJane.Username)

			all, err := store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestSaveUpdatesExistingUser(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			created, err := store.Save(ctx, &models.User{Username: "john", PasswordHash: "h1", Role: models.RoleUser})
			require.NoError(t, err)

			update := created.Clone()
			update.Username = "johnny"
			update.Email = "johnny@example.com"
			update.Role = models.RoleAdmin
			update.CreatedAt = time.Time{}

			updated, err := store.Save(ctx, update)
			require.NoError(t, err)
			assert.Equal(t, created.ID, updated.ID)
			assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

			// keeping one's own username is not a duplicate
			_, err = store.Save(ctx, updated)
			require.NoError(t, err)

			_, err = store.FindByUsername(ctx, "john")
			assert.ErrorIs(t, err, models.ErrUserNotFound)

			got, err := store.FindByUsername(ctx, "johnny")
			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, got.Role)
			assert.Equal(t, "johnny@example.com", got.Email)
		})
	}
}

func TestSaveValidatesInput(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			_, err := store.Save(ctx, nil)
			assert.ErrorIs(t, err, models.ErrValidation)

			_, err = store.Save(ctx, &models.User{Username: "john", Role: "ROOT"})
			assert.ErrorIs(t, err, models.ErrValidation)

			_, err = store.Save(ctx, &models.User{Username: "   ", Role: models.RoleUser})
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestDeleteUser(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			u, err := store.Save(ctx, &models.User{Username: "john", PasswordHash: "h", Role: models.RoleUser})
			require.NoError(t, err)

			require.NoError(t, store.Delete(ctx, u.ID))
			assert.ErrorIs(t, store.Delete(ctx, u.ID), models.ErrUserNotFound)

			_, err = store.FindByID(ctx, u.ID)
			assert.ErrorIs(t, err, models.ErrUserNotFound)
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	u, err := store.Save(ctx, &models.User{Username: "john", PasswordHash: "h", Role: models.RoleUser})
	require.NoError(t, err)

	u.Role = models.RoleAdmin

	got, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)
}

func TestInitIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := New(db)
	require.NoError(t, repo.Init(context.Background()))
	require.NoError(t, repo.Init(context.Background()))
}
