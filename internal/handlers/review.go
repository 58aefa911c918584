package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sgpfreelancing/platform_be/internal/services/lifecycle"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

type ReviewHandler struct {
	Store     store.Store
	Lifecycle *lifecycle.Service
}

func NewReviewHandler(st store.Store, svc *lifecycle.Service) *ReviewHandler {
	return &ReviewHandler{Store: st, Lifecycle: svc}
}

type CreateReviewReq struct {
	ContractID uint   `json:"contract_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req CreateReviewReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	review, err := h.Lifecycle.CreateReview(lifecycle.CreateReviewInput{
		ContractID: req.ContractID,
		ReviewerID: uid,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return svcError(c, err)
	}
	return created(c, review)
}

// ListByContract returns both parties' reviews for a contract.
func (h *ReviewHandler) ListByContract(c *fiber.Ctx) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	reviews, err := h.Store.ListReviewsByContract(id)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch reviews")
	}
	return ok(c, reviews)
}

// ListByUser returns reviews received by the user in the path, with a simple
// average for profile display.
func (h *ReviewHandler) ListByUser(c *fiber.Ctx) error {
	uid, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid userId")
	}

	reviews, err := h.Store.ListReviewsByReviewee(uid)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch reviews")
	}

	var avg float64
	if len(reviews) > 0 {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		avg = float64(sum) / float64(len(reviews))
	}

	return ok(c, fiber.Map{
		"reviews":        reviews,
		"average_rating": avg,
		"count":          len(reviews),
	})
}
