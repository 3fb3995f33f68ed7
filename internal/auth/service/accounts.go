package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore/internal/auth/credentials"
	"bookstore/internal/auth/models"

	"go.uber.org/zap"
)

// IdentityStore persists user accounts. Save enforces username uniqueness.
type IdentityStore interface {
	UserLookup
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, u *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// SessionRevoker drops every session held by a user.
type SessionRevoker interface {
	RevokeUser(userID string) int
}

// ============================================================
// Account Service
// ============================================================

// Accounts handles registration and profile maintenance of identities.
type Accounts struct {
	store    IdentityStore
	hasher   PasswordHasher
	sessions SessionRevoker
	logger   *zap.Logger
}

func NewAccounts(store IdentityStore, hasher PasswordHasher, sessions SessionRevoker, logger *zap.Logger) *Accounts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accounts{store: store, hasher: hasher, sessions: sessions, logger: logger}
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries optional changes; nil fields are left untouched.
type ProfileUpdate struct {
	Username *string      `json:"username,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Password *string      `json:"password,omitempty"`
	Role     *models.Role `json:"role,omitempty"`
}

// Register creates a USER account.
func (a *Accounts) Register(ctx context.Context, reg Registration) (*models.User, error) {
	username := strings.TrimSpace(reg.Username)
	if err := credentials.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := credentials.ValidateEmail(reg.Email); err != nil {
		return nil, err
	}
	if err := credentials.ValidatePassword(reg.Password); err != nil {
		return nil, err
	}

	if err := a.ensureUsernameFree(ctx, username, ""); err != nil {
		return nil, err
	}

	hash, err := a.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	user, err := a.store.Save(ctx, &models.User{
		Username:     username,
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// EnsureAdmin creates the bootstrap ADMIN account unless username already
// exists. The password policy is not applied to it.
func (a *Accounts) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	existing, err := a.store.FindByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("find admin: %w", err)
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	admin, err := a.store.Save(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	a.logger.Info("admin account created", zap.String("user_id", admin.ID), zap.String("username", admin.Username))
	return admin, nil
}

func (a *Accounts) Get(ctx context.Context, id string) (*models.User, error) {
	return a.store.FindByID(ctx, id)
}

func (a *Accounts) List(ctx context.Context) ([]models.User, error) {
	return a.store.List(ctx)
}

// Update applies upd to the account id on behalf of actor. A USER may only
// change their own account and never a role. Role and password changes end
// every session of the account.
func (a *Accounts) Update(ctx context.Context, actor *models.User, id string, upd ProfileUpdate) (*models.User, error) {
	if actor == nil {
		return nil, models.Errorf(models.ErrUnauthenticated, "authentication required")
	}

	target, err := a.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != models.RoleAdmin {
		if target.ID != actor.ID {
			return nil, models.Errorf(models.ErrForbidden, "no permission to perform this action")
		}
		if upd.Role != nil && *upd.Role != target.Role {
			return nil, models.Errorf(models.ErrForbidden, "no permission to change roles")
		}
	}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if err := credentials.ValidateUsername(username); err != nil {
			return nil, err
		}
		if err := a.ensureUsernameFree(ctx, username, target.ID); err != nil {
			return nil, err
		}
		target.Username = username
	}
	if upd.Email != nil {
		if err := credentials.ValidateEmail(*upd.Email); err != nil {
			return nil, err
		}
		target.Email = *upd.Email
	}
	revoke := false
	if upd.Role != nil {
		if !models.ValidRole(*upd.Role) {
			return nil, models.Errorf(models.ErrValidation, "invalid role %q", *upd.Role)
		}
		revoke = *upd.Role != target.Role
		target.Role = *upd.Role
	}
	if upd.Password != nil {
		if err := credentials.ValidatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hash, err := a.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		target.PasswordHash = hash
		revoke = true
	}

	updated, err := a.store.Save(ctx, target)
	if err != nil {
		return nil, err
	}

	// Sessions carry the identity as of login; drop them when a change
	// affects what they grant.
	revoked := 0
	if revoke {
		revoked = a.sessions.RevokeUser(updated.ID)
	}

	a.logger.Info("user updated",
		zap.String("user_id", updated.ID),
		zap.String("actor_id", actor.ID),
		zap.Int("sessions_revoked", revoked),
	)
	return updated, nil
}

// Delete removes the account and every session it holds.
func (a *Accounts) Delete(ctx context.Context, id string) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	revoked := a.sessions.RevokeUser(id)
	a.logger.Info("user deleted", zap.String("user_id", id), zap.Int("sessions_revoked", revoked))
	return nil
}

func (a *Accounts) ensureUsernameFree(ctx context.Context, username, ownerID string) error {
	existing, err := a.store.FindByUsername(ctx, username)
	switch {
	case err == nil && existing.ID != ownerID:
		return models.ErrDuplicateUsername
	case err != nil && !errors.Is(err, models.ErrUserNotFound):
		return fmt.Errorf("find user: %w", err)
	}
	return nil
}
