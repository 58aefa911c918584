package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

type CategoryHandler struct {
	Store store.Store
}

func NewCategoryHandler(st store.Store) *CategoryHandler {
	return &CategoryHandler{Store: st}
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.Store.ListCategories()
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch categories")
	}
	return ok(c, categories)
}

// Create is admin-only, enforced by the route middleware.
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, fiber.StatusBadRequest, "name is required")
	}

	cat := &models.Category{Name: req.Name}
	if err := h.Store.CreateCategory(cat); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return fail(c, fiber.StatusConflict, "category already exists")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to create category")
	}
	return created(c, cat)
}
