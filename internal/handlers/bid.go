package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/services/lifecycle"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

type BidHandler struct {
	Store     store.Store
	Lifecycle *lifecycle.Service
}

func NewBidHandler(st store.Store, svc *lifecycle.Service) *BidHandler {
	return &BidHandler{Store: st, Lifecycle: svc}
}

type SubmitBidReq struct {
	ProjectID             uint    `json:"project_id"`
	ProposedAmount        float64 `json:"proposed_amount"`
	EstimatedDurationDays int     `json:"estimated_duration_days"`
	CoverLetter           string  `json:"cover_letter"`
}

func (h *BidHandler) Submit(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req SubmitBidReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	bid, err := h.Lifecycle.SubmitBid(lifecycle.SubmitBidInput{
		ProjectID:             req.ProjectID,
		FreelancerID:          uid,
		ProposedAmount:        req.ProposedAmount,
		EstimatedDurationDays: req.EstimatedDurationDays,
		CoverLetter:           req.CoverLetter,
	})
	if err != nil {
		return svcError(c, err)
	}
	return created(c, bid)
}

// ListMine returns the authenticated freelancer's bids across projects.
func (h *BidHandler) ListMine(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	bids, err := h.Store.ListBidsByFreelancer(uid)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch bids")
	}
	return ok(c, bids)
}

func (h *BidHandler) Accept(c *fiber.Ctx) error {
	return h.transition(c, h.Lifecycle.AcceptBid)
}

func (h *BidHandler) Reject(c *fiber.Ctx) error {
	return h.transition(c, h.Lifecycle.RejectBid)
}

func (h *BidHandler) Withdraw(c *fiber.Ctx) error {
	return h.transition(c, h.Lifecycle.WithdrawBid)
}

func (h *BidHandler) transition(c *fiber.Ctx, op func(uint, uuid.UUID) (*models.Bid, error)) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	bid, err := op(id, uid)
	if err != nil {
		return svcError(c, err)
	}
	return ok(c, bid)
}
