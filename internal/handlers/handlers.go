package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sgpfreelancing/platform_be/internal/services/lifecycle"
)

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// svcError translates the lifecycle error taxonomy into HTTP responses so
// callers see distinct error kinds instead of a generic failure.
func svcError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrUnauthorized):
		return fail(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, lifecycle.ErrValidation),
		errors.Is(err, lifecycle.ErrInvalidState):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, lifecycle.ErrDuplicateBid),
		errors.Is(err, lifecycle.ErrDuplicateContract),
		errors.Is(err, lifecycle.ErrDuplicateReview):
		return fail(c, fiber.StatusConflict, err.Error())
	default:
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// userUUID extracts the authenticated user ID attached by the JWT
// middleware chain.
func userUUID(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals("userId")
	if v == nil {
		return uuid.Nil, fmt.Errorf("unauthorized")
	}
	switch t := v.(type) {
	case uuid.UUID:
		return t, nil
	case string:
		return uuid.Parse(t)
	default:
		return uuid.Nil, fmt.Errorf("invalid userId type: %T", v)
	}
}

func uintParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}
