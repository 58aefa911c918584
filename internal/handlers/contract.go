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

type ContractHandler struct {
	Store     store.Store
	Lifecycle *lifecycle.Service
}

func NewContractHandler(st store.Store, svc *lifecycle.Service) *ContractHandler {
	return &ContractHandler{Store: st, Lifecycle: svc}
}

type CreateContractReq struct {
	ProjectID    uint    `json:"project_id"`
	FreelancerID string  `json:"freelancer_id"`
	Amount       float64 `json:"amount"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date,omitempty"`
	Terms        string  `json:"terms"`
}

func (h *ContractHandler) Create(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req CreateContractReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	freelancerID, err := uuid.Parse(req.FreelancerID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid freelancer_id")
	}

	start := time.Now()
	if req.StartDate != "" {
		start, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		}
	}
	var end *time.Time
	if req.EndDate != "" {
		d, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
		}
		end = &d
	}

	contract, err := h.Lifecycle.CreateContract(lifecycle.CreateContractInput{
		ProjectID:    req.ProjectID,
		FreelancerID: freelancerID,
		Amount:       req.Amount,
		StartDate:    start,
		EndDate:      end,
		Terms:        req.Terms,
	}, uid)
	if err != nil {
		return svcError(c, err)
	}
	return created(c, contract)
}

// Get returns a single contract; only its parties may read it.
func (h *ContractHandler) Get(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	contract, err := h.Store.GetContract(id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "contract not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch contract")
	}
	if !contract.Party(uid) {
		return fail(c, fiber.StatusForbidden, "not a party to this contract")
	}
	return ok(c, contract)
}

// ListMine returns contracts where the caller is either party.
func (h *ContractHandler) ListMine(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	contracts, err := h.Store.ListContractsByUser(uid)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch contracts")
	}
	return ok(c, contracts)
}

func (h *ContractHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, h.Lifecycle.CompleteContract)
}

func (h *ContractHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.Lifecycle.CancelContract)
}

func (h *ContractHandler) Dispute(c *fiber.Ctx) error {
	return h.transition(c, h.Lifecycle.DisputeContract)
}

func (h *ContractHandler) transition(c *fiber.Ctx, op func(uint, uuid.UUID) (*models.Contract, error)) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	contract, err := op(id, uid)
	if err != nil {
		return svcError(c, err)
	}
	return ok(c, contract)
}
