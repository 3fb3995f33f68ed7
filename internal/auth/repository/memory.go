package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bookstore/internal/auth/models"

	"github.com/google/uuid"
)

// ============================================================
// In-Memory Repository
// ============================================================

// MemoryStore is an in-memory identity store with the same semantics as
// Repository. It backs tests and AUTH_STORE=memory.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*models.User // id -> user
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*models.User)}
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.byUsername(username); u != nil {
		return u.Clone(), nil
	}
	return nil, models.ErrUserNotFound
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Username < users[j].Username
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryStore) Save(_ context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, models.Errorf(models.ErrValidation, "user is required")
	}
	if !models.ValidRole(u.Role) {
		return nil, models.Errorf(models.ErrValidation, "invalid role %q", u.Role)
	}

	saved := u.Clone()
	saved.Username = strings.TrimSpace(saved.Username)
	if saved.Username == "" {
		return nil, models.Errorf(models.ErrValidation, "username is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.byUsername(saved.Username); existing != nil && existing.ID != saved.ID {
		return nil, models.ErrDuplicateUsername
	}

	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if current, ok := s.users[saved.ID]; ok {
		saved.CreatedAt = current.CreatedAt
	} else if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}

	s.users[saved.ID] = saved
	return saved.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return models.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// byUsername must be called with s.mu held.
func (s *MemoryStore) byUsername(username string) *models.User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}
