package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"bookstore/internal/auth/models"
	"bookstore/internal/auth/service"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Auth Handler
// ============================================================

type AuthHandler struct {
	sessions *service.SessionManager
	accounts *service.Accounts
	logger   *zap.Logger
}

func NewAuthHandler(sessions *service.SessionManager, accounts *service.Accounts, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		sessions: sessions,
		accounts: accounts,
		logger:   logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresIn int64       `json:"expires_in"`
	User      userPayload `json:"user"`
}

type userPayload struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt string      `json:"created_at"`
}

// Register creates a USER account.
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req service.Registration
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.Register(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(mapUser(user))
}

// Login exchanges username/password for a session token.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Username == "" || req.Password == "" {
		return models.Errorf(models.ErrValidation, "username and password required")
	}

	token, err := h.sessions.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	user, ok := h.sessions.Resolve(token)
	if !ok {
		return models.Errorf(models.ErrUnauthenticated, "invalid or expired token")
	}

	h.logger.Debug("token issued", zap.String("user_id", user.ID))
	return c.JSON(loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.sessions.TTL() / time.Second),
		User:      mapUser(user),
	})
}

// Logout invalidates the presented token. Unknown or missing tokens are not
// an error.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if token := TokenFromRequest(c); token != "" {
		h.sessions.Logout(token)
	}
	return c.JSON(fiber.Map{"message": "logged out successfully"})
}

// Me returns the identity behind the token.
func (h *AuthHandler) Me(c fiber.Ctx) error {
	user := Identity(c)
	if user == nil {
		return models.Errorf(models.ErrUnauthenticated, "authentication required")
	}
	return c.JSON(mapUser(user))
}

// ============================================================
// Helpers
// ============================================================

func decodeBody(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return models.Errorf(models.ErrValidation, "empty body")
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return models.Errorf(models.ErrValidation, "invalid json")
	}
	return nil
}

func mapUser(u *models.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
