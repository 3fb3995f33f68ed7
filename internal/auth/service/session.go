package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"bookstore/internal/auth/models"
	"bookstore/internal/common/metrics"

	"go.uber.org/zap"
)

const (
	// DefaultSessionTTL is how long an issued token stays valid.
	DefaultSessionTTL = 20 * time.Minute

	shardCount     = 32
	issueAttempts  = 3
	dummyPassword  = "bookstore-dummy-password"
	loginSucceeded = "success"
	loginRejected  = "invalid_credentials"
	loginFailed    = "error"
)

// UserLookup resolves the identity a login names.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// ============================================================
// Session Manager
// ============================================================

// SessionManager is the process-local registry of issued session tokens.
// The table is split into shards, each guarded by its own RWMutex, so
// lookups from unrelated requests only contend when they hash to the same
// shard and one of them is writing.
type SessionManager struct {
	shards [shardCount]*shard

	users    UserLookup
	hasher   PasswordHasher
	clock    Clock
	newToken TokenGenerator
	ttl      time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics

	dummyOnce sync.Once
	dummyHash string
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session // token -> session
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithTTL sets the validity window of new sessions. Non-positive values keep
// DefaultSessionTTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *SessionManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces the time source used for issuing and expiring sessions.
func WithClock(clock Clock) Option {
	return func(m *SessionManager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithTokenGenerator replaces NewToken. Nil keeps the default.
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(m *SessionManager) {
		if gen != nil {
			m.newToken = gen
		}
	}
}

// WithLogger sets the logger for login, logout and eviction events.
func WithLogger(logger *zap.Logger) Option {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records session activity on mt. A nil mt disables recording.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *SessionManager) {
		m.metrics = mt
	}
}

// NewSessionManager returns an empty registry that checks logins against
// users with hasher.
func NewSessionManager(users UserLookup, hasher PasswordHasher, opts ...Option) *SessionManager {
	m := &SessionManager{
		users:    users,
		hasher:   hasher,
		clock:    SystemClock{},
		newToken: NewToken,
		ttl:      DefaultSessionTTL,
		logger:   zap.NewNop(),
	}
	for i := range m.shards {
		m.shards[i] = &shard{sessions: make(map[string]*models.Session)}
	}
	for _, opt := range opts {
		opt(m)
	}
	m.metrics.TrackActiveSessions(m.Len)
	return m
}

// TTL returns the validity window applied to new sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Login verifies username/password and issues a new session. The username is
// trimmed the same way registration trims it. Unknown users and wrong
// passwords both fail with ErrInvalidCredentials. Earlier sessions of the same
// user stay valid.
func (m *SessionManager) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	user, err := m.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			m.metrics.RecordLogin(loginFailed)
			return "", fmt.Errorf("find user: %w", err)
		}
		// Unknown users pay the same bcrypt cost as wrong passwords.
		m.hasher.Verify(password, m.dummy())
		m.metrics.RecordLogin(loginRejected)
		m.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "unknown user"))
		return "", models.Errorf(models.ErrInvalidCredentials, "invalid username or password")
	}

	if !m.hasher.Verify(password, user.PasswordHash) {
		m.metrics.RecordLogin(loginRejected)
		m.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "wrong password"))
		return "", models.Errorf(models.ErrInvalidCredentials, "invalid username or password")
	}

	token, err := m.Issue(user)
	if err != nil {
		m.metrics.RecordLogin(loginFailed)
		return "", err
	}

	m.metrics.RecordLogin(loginSucceeded)
	m.logger.Info("login succeeded",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("token", tokenPrefix(token)),
	)
	return token, nil
}

// Issue creates a session for user without checking credentials.
func (m *SessionManager) Issue(user *models.User) (string, error) {
	if user == nil {
		return "", errors.New("issue session: user is required")
	}

	now := m.clock.Now()
	for attempt := 0; attempt < issueAttempts; attempt++ {
		token, err := m.newToken()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(token) == "" {
			return "", errors.New("issue session: empty token")
		}

		sess := &models.Session{
			Token:     token,
			User:      user.Clone(),
			IssuedAt:  now,
			ExpiresAt: now.Add(m.ttl),
		}

		sh := m.shard(token)
		sh.mu.Lock()
		_, taken := sh.sessions[token]
		if !taken {
			sh.sessions[token] = sess
		}
		sh.mu.Unlock()

		if !taken {
			m.metrics.RecordIssued()
			return token, nil
		}
		m.logger.Warn("session token collision", zap.Int("attempt", attempt+1))
	}
	return "", fmt.Errorf("issue session: no unique token after %d attempts", issueAttempts)
}

// Resolve returns the identity behind token. Expired sessions are evicted on
// the way and reported as absent.
func (m *SessionManager) Resolve(token string) (*models.User, bool) {
	sh := m.shard(token)

	sh.mu.RLock()
	sess, ok := sh.sessions[token]
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !sess.ExpiredAt(m.clock.Now()) {
		return sess.User.Clone(), true
	}

	// Only evict the exact session observed above; a concurrent resolver may
	// already have removed it.
	sh.mu.Lock()
	evicted := false
	if current, ok := sh.sessions[token]; ok && current == sess {
		delete(sh.sessions, token)
		evicted = true
	}
	sh.mu.Unlock()

	if evicted {
		m.metrics.RecordEvicted(metrics.EvictExpired, 1)
		m.logger.Debug("session expired", zap.String("user_id", sess.User.ID), zap.String("token", tokenPrefix(token)))
	}
	return nil, false
}

// RequireIdentity is Resolve with an error for the missing, unknown and
// expired cases.
func (m *SessionManager) RequireIdentity(token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, models.Errorf(models.ErrUnauthenticated, "authentication required: token is missing")
	}

	user, ok := m.Resolve(token)
	if !ok {
		return nil, models.Errorf(models.ErrUnauthenticated, "invalid or expired token")
	}
	return user, nil
}

// Logout removes token. Unknown tokens are ignored. Once Logout returns,
// no Resolve of token succeeds.
func (m *SessionManager) Logout(token string) {
	sh := m.shard(token)

	sh.mu.Lock()
	sess, ok := sh.sessions[token]
	if ok {
		delete(sh.sessions, token)
	}
	sh.mu.Unlock()

	if ok {
		m.metrics.RecordEvicted(metrics.EvictLogout, 1)
		m.logger.Info("logout", zap.String("user_id", sess.User.ID), zap.String("token", tokenPrefix(token)))
	}
}

// RevokeUser removes every session issued for userID and returns how many
// were removed.
func (m *SessionManager) RevokeUser(userID string) int {
	removed := 0
	for _, sh := range m.shards {
		sh.mu.Lock()
		for token, sess := range sh.sessions {
			if sess.User.ID == userID {
				delete(sh.sessions, token)
				removed++
			}
		}
		sh.mu.Unlock()
	}

	m.metrics.RecordEvicted(metrics.EvictRevoked, removed)
	if removed > 0 {
		m.logger.Info("sessions revoked", zap.String("user_id", userID), zap.Int("count", removed))
	}
	return removed
}

// Sweep evicts every expired session and returns how many were removed.
// Correctness never depends on it; Resolve enforces expiry by itself.
func (m *SessionManager) Sweep() int {
	now := m.clock.Now()
	removed := 0
	for _, sh := range m.shards {
		sh.mu.Lock()
		for token, sess := range sh.sessions {
			if sess.ExpiredAt(now) {
				delete(sh.sessions, token)
				removed++
			}
		}
		sh.mu.Unlock()
	}

	m.metrics.RecordEvicted(metrics.EvictSweep, removed)
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("swept expired sessions", zap.Int("count", n))
			}
		}
	}
}

// Len returns the number of sessions currently held, expired or not.
func (m *SessionManager) Len() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

func (m *SessionManager) shard(token string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return m.shards[h.Sum32()%shardCount]
}

// dummy returns a real hash for a throwaway password, used to equalize
// login timing for unknown usernames.
func (m *SessionManager) dummy() string {
	m.dummyOnce.Do(func() {
		hash, err := m.hasher.Hash(dummyPassword)
		if err != nil {
			m.logger.Warn("dummy hash unavailable", zap.Error(err))
			return
		}
		m.dummyHash = hash
	})
	return m.dummyHash
}
