package handlers

import (
	"net/http"

	"bookstore/internal/auth/models"
	"bookstore/internal/auth/service"

	"github.com/gofiber/fiber/v3"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ============================================================
// User Handler
// ============================================================

type UserHandler struct {
	accounts *service.Accounts
}

func NewUserHandler(accounts *service.Accounts) *UserHandler {
	return &UserHandler{accounts: accounts}
}

type userPage struct {
	Content       []userPayload `json:"content"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
	TotalElements int           `json:"total_elements"`
	TotalPages    int           `json:"total_pages"`
}

// List returns one page of accounts, ?page is zero-based.
func (h *UserHandler) List(c fiber.Ctx) error {
	page := fiber.Query[int](c, "page", 0)
	size := fiber.Query[int](c, "size", defaultPageSize)
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}

	users, err := h.accounts.List(c.Context())
	if err != nil {
		return err
	}

	resp := userPage{
		Content:       make([]userPayload, 0, size),
		Page:          page,
		Size:          size,
		TotalElements: len(users),
		TotalPages:    (len(users) + size - 1) / size,
	}
	// page is client-controlled; compare before multiplying so page*size
	// cannot overflow.
	if page > len(users)/size {
		return c.JSON(resp)
	}
	start := page * size
	for i := start; i < min(start+size, len(users)); i++ {
		resp.Content = append(resp.Content, mapUser(&users[i]))
	}

	return c.JSON(resp)
}

func (h *UserHandler) Get(c fiber.Ctx) error {
	user, err := h.accounts.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(mapUser(user))
}

// Profile returns the stored account of the caller, which may be newer than
// the snapshot held by the session.
func (h *UserHandler) Profile(c fiber.Ctx) error {
	actor := Identity(c)
	if actor == nil {
		return models.Errorf(models.ErrUnauthenticated, "authentication required")
	}

	user, err := h.accounts.Get(c.Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(mapUser(user))
}

func (h *UserHandler) Update(c fiber.Ctx) error {
	var upd service.ProfileUpdate
	if err := decodeBody(c, &upd); err != nil {
		return err
	}

	user, err := h.accounts.Update(c.Context(), Identity(c), c.Params("id"), upd)
	if err != nil {
		return err
	}
	return c.JSON(mapUser(user))
}

func (h *UserHandler) Delete(c fiber.Ctx) error {
	if err := h.accounts.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
