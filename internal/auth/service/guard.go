package service

import (
	"slices"

	"bookstore/internal/auth/models"
	"bookstore/internal/common/metrics"
)

// IdentityResolver turns a session token into an identity.
type IdentityResolver interface {
	RequireIdentity(token string) (*models.User, error)
}

// ============================================================
// Authorization Guard
// ============================================================

// Guard evaluates role requirements against the identity behind a token. It
// knows nothing about the operation it protects.
type Guard struct {
	sessions IdentityResolver
	metrics  *metrics.Metrics
}

func NewGuard(sessions IdentityResolver, mt *metrics.Metrics) *Guard {
	return &Guard{sessions: sessions, metrics: mt}
}

// RequireIdentity passes through any authenticated identity.
func (g *Guard) RequireIdentity(token string) (*models.User, error) {
	user, err := g.sessions.RequireIdentity(token)
	if err != nil {
		g.metrics.RecordDecision(metrics.DecisionUnauthenticated)
		return nil, err
	}
	g.metrics.RecordDecision(metrics.DecisionAllowed)
	return user, nil
}

// RequireRole admits only identities whose role equals role.
func (g *Guard) RequireRole(token string, role models.Role) (*models.User, error) {
	return g.RequireAnyRole(token, role)
}

// RequireAnyRole admits identities whose role is one of roles. An empty
// role list admits nobody.
func (g *Guard) RequireAnyRole(token string, roles ...models.Role) (*models.User, error) {
	user, err := g.sessions.RequireIdentity(token)
	if err != nil {
		g.metrics.RecordDecision(metrics.DecisionUnauthenticated)
		return nil, err
	}

	if !slices.Contains(roles, user.Role) {
		g.metrics.RecordDecision(metrics.DecisionForbidden)
		return nil, models.Errorf(models.ErrForbidden, "insufficient permissions")
	}

	g.metrics.RecordDecision(metrics.DecisionAllowed)
	return user, nil
}
