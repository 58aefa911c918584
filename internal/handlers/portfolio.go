package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

type PortfolioHandler struct {
	Store store.Store
}

func NewPortfolioHandler(st store.Store) *PortfolioHandler {
	return &PortfolioHandler{Store: st}
}

type SavePortfolioReq struct {
	Title    string `json:"title"`
	Bio      string `json:"bio"`
	IsPublic *bool  `json:"is_public"`
}

// Save creates or updates the caller's portfolio page.
func (h *PortfolioHandler) Save(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req SavePortfolioReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	p, err := h.Store.GetPortfolioByFreelancer(uid)
	if errors.Is(err, store.ErrNotFound) {
		p = &models.Portfolio{FreelancerID: uid, IsPublic: true}
	} else if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch portfolio")
	}

	if req.Title != "" {
		p.Title = req.Title
	}
	if req.Bio != "" {
		p.Bio = req.Bio
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}

	if err := h.Store.SavePortfolio(p); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to save portfolio")
	}
	return ok(c, p)
}

// Get returns a freelancer's public portfolio and bumps its view counter.
// Owners see their own portfolio regardless of visibility, without counting
// the view.
func (h *PortfolioHandler) Get(c *fiber.Ctx) error {
	fid, err := uuid.Parse(c.Params("freelancerId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid freelancerId")
	}

	p, err := h.Store.GetPortfolioByFreelancer(fid)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "portfolio not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch portfolio")
	}

	viewerID, _ := userUUID(c)
	isOwner := viewerID == fid
	if !p.IsPublic && !isOwner {
		return fail(c, fiber.StatusNotFound, "portfolio not found")
	}

	if !isOwner {
		p.ViewCount++
		if err := h.Store.SavePortfolio(p); err != nil {
			return fail(c, fiber.StatusInternalServerError, "failed to update portfolio")
		}
	}
	return ok(c, p)
}

type AddCaseReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ProjectURL  string   `json:"project_url"`
	Images      []string `json:"images"`
}

// AddCase attaches a showcase entry to the caller's portfolio.
func (h *PortfolioHandler) AddCase(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req AddCaseReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return fail(c, fiber.StatusBadRequest, "title is required")
	}

	p, err := h.Store.GetPortfolioByFreelancer(uid)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "create a portfolio first")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch portfolio")
	}

	var images datatypes.JSON
	if len(req.Images) > 0 {
		raw, err := json.Marshal(req.Images)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid images")
		}
		images = raw
	}

	pc := &models.PortfolioCase{
		PortfolioID: p.ID,
		Title:       req.Title,
		Description: req.Description,
		ProjectURL:  req.ProjectURL,
		Images:      images,
	}
	if err := h.Store.CreatePortfolioCase(pc); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to save case")
	}
	return created(c, pc)
}
