package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

// EarningsHandler records contract payments and aggregates freelancer
// earnings from the payment ledger.
type EarningsHandler struct {
	Store store.Store
}

func NewEarningsHandler(st store.Store) *EarningsHandler {
	return &EarningsHandler{Store: st}
}

type RecordPaymentReq struct {
	ContractID uint    `json:"contract_id"`
	Amount     float64 `json:"amount"`
	Note       string  `json:"note"`
}

// RecordPayment writes a completed payment against a contract. Only the
// contract's client may record one, and only while the contract is active
// or after completion.
func (h *EarningsHandler) RecordPayment(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req RecordPaymentReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if req.Amount <= 0 {
		return fail(c, fiber.StatusBadRequest, "amount must be positive")
	}

	var payment *models.PaymentTransaction
	err = h.Store.Atomically(func(tx store.Store) error {
		contract, err := tx.GetContract(req.ContractID)
		if err != nil {
			return err
		}
		if contract.ClientID != uid {
			return errNotClient
		}
		if contract.Status != models.ContractStatusActive && contract.Status != models.ContractStatusCompleted {
			return errContractClosed
		}

		now := time.Now()
		payment = &models.PaymentTransaction{
			ContractID: contract.ID,
			Amount:     req.Amount,
			Status:     models.PaymentStatusCompleted,
			Note:       req.Note,
			PaidAt:     &now,
		}
		return tx.CreatePayment(payment)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "contract not found")
	case errors.Is(err, errNotClient):
		return fail(c, fiber.StatusForbidden, "only the contract client can record payments")
	case errors.Is(err, errContractClosed):
		return fail(c, fiber.StatusBadRequest, "contract does not accept payments in its current state")
	case err != nil:
		return fail(c, fiber.StatusInternalServerError, "failed to record payment")
	}
	return created(c, payment)
}

var (
	errNotClient      = errors.New("not the contract client")
	errContractClosed = errors.New("contract closed for payments")
)

// ListByContract returns the payment ledger for a contract; both parties may
// read it.
func (h *EarningsHandler) ListByContract(c *fiber.Ctx) error {
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

	payments, err := h.Store.ListPaymentsByContract(id)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch payments")
	}
	return ok(c, payments)
}

// Summary aggregates the caller's earnings from completed payments on their
// contracts.
func (h *EarningsHandler) Summary(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	payments, err := h.Store.ListPaymentsByFreelancer(uid)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch payments")
	}

	var total float64
	monthStart := time.Now().AddDate(0, 0, -30)
	var last30 float64
	for _, p := range payments {
		if p.Status != models.PaymentStatusCompleted {
			continue
		}
		total += p.Amount
		if p.PaidAt != nil && p.PaidAt.After(monthStart) {
			last30 += p.Amount
		}
	}

	return ok(c, fiber.Map{
		"total_earned": total,
		"last_30_days": last30,
		"payments":     payments,
	})
}
