package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/services/lifecycle"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

type ProjectHandler struct {
	Store     store.Store
	Lifecycle *lifecycle.Service
}

func NewProjectHandler(st store.Store, svc *lifecycle.Service) *ProjectHandler {
	return &ProjectHandler{Store: st, Lifecycle: svc}
}

type CreateProjectReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Budget      float64 `json:"budget"`
	Deadline    string  `json:"deadline,omitempty"` // ISO date, optional
	CategoryID  uint    `json:"category_id"`
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req CreateProjectReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	var deadline *time.Time
	if req.Deadline != "" {
		d, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid deadline, expected YYYY-MM-DD")
		}
		deadline = &d
	}

	p, err := h.Lifecycle.CreateProject(lifecycle.CreateProjectInput{
		ClientID:    uid,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Deadline:    deadline,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return svcError(c, err)
	}
	return created(c, p)
}

// ListOpen returns open projects, newest first, filterable by category and
// search term.
func (h *ProjectHandler) ListOpen(c *fiber.Ctx) error {
	f := store.ProjectFilter{
		CategoryID: uint(c.QueryInt("category_id", 0)),
		Search:     c.Query("search"),
		Page:       c.QueryInt("page", 1),
		PageSize:   c.QueryInt("page_size", 10),
	}

	projects, total, err := h.Store.ListOpenProjects(f)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch projects")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    projects,
		"meta": fiber.Map{
			"page":      f.Page,
			"page_size": f.PageSize,
			"total":     total,
		},
	})
}

// GetDetail returns the project with its bids plus ownership flags for the
// current viewer (if any).
func (h *ProjectHandler) GetDetail(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	p, err := h.Store.GetProject(id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch project")
	}

	bids, err := h.Store.ListBidsByProject(id)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch bids")
	}

	isOwner := false
	canBid := false
	if uid, err := userUUID(c); err == nil {
		isOwner = p.ClientID == uid
		canBid = !isOwner && p.Status == models.ProjectStatusOpen
	}

	return ok(c, fiber.Map{
		"project":  p,
		"bids":     bids,
		"is_owner": isOwner,
		"can_bid":  canBid,
	})
}

func (h *ProjectHandler) ListMine(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	projects, err := h.Store.ListProjectsByClient(uid)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch projects")
	}
	return ok(c, projects)
}

func (h *ProjectHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.Lifecycle.CancelProject)
}

func (h *ProjectHandler) Close(c *fiber.Ctx) error {
	return h.transition(c, h.Lifecycle.CloseProject)
}

func (h *ProjectHandler) transition(c *fiber.Ctx, op func(uint, uuid.UUID) (*models.Project, error)) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	p, err := op(id, uid)
	if err != nil {
		return svcError(c, err)
	}
	return ok(c, p)
}
