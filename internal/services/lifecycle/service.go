// Package lifecycle enforces the legal sequence of operations across
// projects, bids, contracts and reviews, and the authorization rules gating
// each transition. Every mutating operation runs as one atomic unit against
// the store; repeating an already-applied terminal transition returns the
// current state instead of erroring, so callers can retry safely.
package lifecycle

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

const (
	minDurationDays = 1
	maxDurationDays = 365
)

type Service struct {
	store store.Store
	now   func() time.Time

	// autoRejectSiblings rejects the remaining pending bids on a project
	// when one is accepted. Off by default: the client rejects the others
	// manually.
	autoRejectSiblings bool
}

type Option func(*Service)

func WithAutoRejectSiblingBids() Option {
	return func(s *Service) { s.autoRejectSiblings = true }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// validAmount requires a strictly positive amount with at most two
// fractional digits.
func validAmount(v float64) bool {
	if v <= 0 {
		return false
	}
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

// Project operations

type CreateProjectInput struct {
	ClientID    uuid.UUID
	Title       string
	Description string
	Budget      float64
	Deadline    *time.Time
	CategoryID  uint
}

func (s *Service) CreateProject(in CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if !validAmount(in.Budget) {
		return nil, fmt.Errorf("%w: budget must be a positive amount with at most 2 decimals", ErrValidation)
	}

	p := &models.Project{
		ClientID:    in.ClientID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Budget:      in.Budget,
		Deadline:    in.Deadline,
		CategoryID:  in.CategoryID,
		Status:      models.ProjectStatusOpen,
	}
	if err := s.store.CreateProject(p); err != nil {
		return nil, err
	}
	return p, nil
}

// CancelProject moves an Open or InProgress project to Cancelled.
func (s *Service) CancelProject(projectID uint, clientID uuid.UUID) (*models.Project, error) {
	var out *models.Project
	err := s.store.Atomically(func(st store.Store) error {
		p, err := getProject(st, projectID)
		if err != nil {
			return err
		}
		if p.ClientID != clientID {
			return fmt.Errorf("%w: only the owning client can cancel the project", ErrUnauthorized)
		}
		if p.Status == models.ProjectStatusCancelled {
			out = p
			return nil
		}
		if p.Status != models.ProjectStatusOpen && p.Status != models.ProjectStatusInProgress {
			return fmt.Errorf("%w: project is %s", ErrInvalidState, p.Status)
		}
		p.Status = models.ProjectStatusCancelled
		if err := st.UpdateProject(p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// CloseProject moves an Open project to Closed without a winner.
func (s *Service) CloseProject(projectID uint, clientID uuid.UUID) (*models.Project, error) {
	var out *models.Project
	err := s.store.Atomically(func(st store.Store) error {
		p, err := getProject(st, projectID)
		if err != nil {
			return err
		}
		if p.ClientID != clientID {
			return fmt.Errorf("%w: only the owning client can close the project", ErrUnauthorized)
		}
		if p.Status == models.ProjectStatusClosed {
			out = p
			return nil
		}
		if p.Status != models.ProjectStatusOpen {
			return fmt.Errorf("%w: project is %s", ErrInvalidState, p.Status)
		}
		p.Status = models.ProjectStatusClosed
		if err := st.UpdateProject(p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// Bid operations

type SubmitBidInput struct {
	ProjectID             uint
	FreelancerID          uuid.UUID
	ProposedAmount        float64
	EstimatedDurationDays int
	CoverLetter           string
}

func (s *Service) SubmitBid(in SubmitBidInput) (*models.Bid, error) {
	if !validAmount(in.ProposedAmount) {
		return nil, fmt.Errorf("%w: proposed amount must be a positive amount with at most 2 decimals", ErrValidation)
	}
	if in.EstimatedDurationDays < minDurationDays || in.EstimatedDurationDays > maxDurationDays {
		return nil, fmt.Errorf("%w: estimated duration must be between %d and %d days",
			ErrValidation, minDurationDays, maxDurationDays)
	}
	if strings.TrimSpace(in.CoverLetter) == "" {
		return nil, fmt.Errorf("%w: cover letter is required", ErrValidation)
	}

	var bid *models.Bid
	err := s.store.Atomically(func(st store.Store) error {
		p, err := getProject(st, in.ProjectID)
		if err != nil {
			return err
		}
		if p.Status != models.ProjectStatusOpen {
			return fmt.Errorf("%w: project is not accepting bids", ErrInvalidState)
		}
		if p.ClientID == in.FreelancerID {
			return fmt.Errorf("%w: cannot bid on your own project", ErrValidation)
		}

		if _, err := st.ActiveBidByFreelancer(in.ProjectID, in.FreelancerID); err == nil {
			return fmt.Errorf("%w: you have already submitted a bid for this project", ErrDuplicateBid)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		bid = &models.Bid{
			ProjectID:             in.ProjectID,
			FreelancerID:          in.FreelancerID,
			ProposedAmount:        in.ProposedAmount,
			EstimatedDurationDays: in.EstimatedDurationDays,
			CoverLetter:           in.CoverLetter,
			Status:                models.BidStatusPending,
		}
		return st.CreateBid(bid)
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

// AcceptBid marks the bid accepted, moves the project to InProgress and
// creates the contract, all in one transaction.
func (s *Service) AcceptBid(bidID uint, clientID uuid.UUID) (*models.Bid, error) {
	var out *models.Bid
	err := s.store.Atomically(func(st store.Store) error {
		bid, err := getBid(st, bidID)
		if err != nil {
			return err
		}
		p, err := getProject(st, bid.ProjectID)
		if err != nil {
			return err
		}
		if p.ClientID != clientID {
			return fmt.Errorf("%w: only the project owner can accept bids", ErrUnauthorized)
		}
		if bid.Status == models.BidStatusAccepted {
			out = bid
			return nil
		}
		if bid.Status.Terminal() {
			return fmt.Errorf("%w: bid is %s", ErrInvalidState, bid.Status)
		}
		if p.Status != models.ProjectStatusOpen {
			return fmt.Errorf("%w: project is %s", ErrInvalidState, p.Status)
		}

		bid.Status = models.BidStatusAccepted
		if err := st.UpdateBid(bid); err != nil {
			return err
		}

		p.Status = models.ProjectStatusInProgress
		if err := st.UpdateProject(p); err != nil {
			return err
		}

		if s.autoRejectSiblings {
			siblings, err := st.ListBidsByProject(p.ID)
			if err != nil {
				return err
			}
			for i := range siblings {
				sib := &siblings[i]
				if sib.ID != bid.ID && sib.Status == models.BidStatusPending {
					sib.Status = models.BidStatusRejected
					if err := st.UpdateBid(sib); err != nil {
						return err
					}
				}
			}
		}

		ct := &models.Contract{
			ProjectID:    p.ID,
			ClientID:     p.ClientID,
			FreelancerID: bid.FreelancerID,
			AgreedAmount: bid.ProposedAmount,
			StartDate:    s.now(),
			Status:       models.ContractStatusActive,
		}
		if err := st.CreateContract(ct); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return fmt.Errorf("%w: contract already exists for this project", ErrDuplicateContract)
			}
			return err
		}

		out = bid
		return nil
	})
	return out, err
}

func (s *Service) RejectBid(bidID uint, clientID uuid.UUID) (*models.Bid, error) {
	var out *models.Bid
	err := s.store.Atomically(func(st store.Store) error {
		bid, err := getBid(st, bidID)
		if err != nil {
			return err
		}
		p, err := getProject(st, bid.ProjectID)
		if err != nil {
			return err
		}
		if p.ClientID != clientID {
			return fmt.Errorf("%w: only the project owner can reject bids", ErrUnauthorized)
		}
		if bid.Status == models.BidStatusRejected {
			out = bid
			return nil
		}
		if bid.Status.Terminal() {
			return fmt.Errorf("%w: bid is %s", ErrInvalidState, bid.Status)
		}
		bid.Status = models.BidStatusRejected
		if err := st.UpdateBid(bid); err != nil {
			return err
		}
		out = bid
		return nil
	})
	return out, err
}

func (s *Service) WithdrawBid(bidID uint, freelancerID uuid.UUID) (*models.Bid, error) {
	var out *models.Bid
	err := s.store.Atomically(func(st store.Store) error {
		bid, err := getBid(st, bidID)
		if err != nil {
			return err
		}
		if bid.FreelancerID != freelancerID {
			return fmt.Errorf("%w: only the submitting freelancer can withdraw the bid", ErrUnauthorized)
		}
		if bid.Status == models.BidStatusWithdrawn {
			out = bid
			return nil
		}
		if bid.Status.Terminal() {
			return fmt.Errorf("%w: bid is %s", ErrInvalidState, bid.Status)
		}
		bid.Status = models.BidStatusWithdrawn
		if err := st.UpdateBid(bid); err != nil {
			return err
		}
		out = bid
		return nil
	})
	return out, err
}

// Contract operations

type CreateContractInput struct {
	ProjectID    uint
	FreelancerID uuid.UUID
	Amount       float64
	StartDate    time.Time
	EndDate      *time.Time
	Terms        string
}

// CreateContract inserts a contract explicitly, outside the AcceptBid path.
func (s *Service) CreateContract(in CreateContractInput, actingClientID uuid.UUID) (*models.Contract, error) {
	if !validAmount(in.Amount) {
		return nil, fmt.Errorf("%w: amount must be a positive amount with at most 2 decimals", ErrValidation)
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("%w: end date must not precede start date", ErrValidation)
	}

	var ct *models.Contract
	err := s.store.Atomically(func(st store.Store) error {
		p, err := getProject(st, in.ProjectID)
		if err != nil {
			return err
		}
		if p.ClientID != actingClientID {
			return fmt.Errorf("%w: only the project owner can create a contract", ErrUnauthorized)
		}

		if _, err := st.GetContractByProject(in.ProjectID); err == nil {
			return fmt.Errorf("%w: contract already exists for this project", ErrDuplicateContract)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		ct = &models.Contract{
			ProjectID:    in.ProjectID,
			ClientID:     p.ClientID,
			FreelancerID: in.FreelancerID,
			AgreedAmount: in.Amount,
			StartDate:    in.StartDate,
			EndDate:      in.EndDate,
			Terms:        in.Terms,
			Status:       models.ContractStatusActive,
		}
		if err := st.CreateContract(ct); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return fmt.Errorf("%w: contract already exists for this project", ErrDuplicateContract)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ct, nil
}

// CompleteContract marks the contract completed and, when the project is
// still InProgress, completes the project too. Either party may complete.
func (s *Service) CompleteContract(contractID uint, actingUserID uuid.UUID) (*models.Contract, error) {
	return s.finishContract(contractID, actingUserID, models.ContractStatusCompleted)
}

// CancelContract cancels an active contract. Either party may cancel.
func (s *Service) CancelContract(contractID uint, actingUserID uuid.UUID) (*models.Contract, error) {
	return s.finishContract(contractID, actingUserID, models.ContractStatusCancelled)
}

// DisputeContract moves an active contract to Disputed, the hook for
// external arbitration. Either party may raise it.
func (s *Service) DisputeContract(contractID uint, actingUserID uuid.UUID) (*models.Contract, error) {
	return s.finishContract(contractID, actingUserID, models.ContractStatusDisputed)
}

func (s *Service) finishContract(contractID uint, actingUserID uuid.UUID, target models.ContractStatus) (*models.Contract, error) {
	var out *models.Contract
	err := s.store.Atomically(func(st store.Store) error {
		ct, err := getContract(st, contractID)
		if err != nil {
			return err
		}
		if !ct.Party(actingUserID) {
			return fmt.Errorf("%w: you are not part of this contract", ErrUnauthorized)
		}
		if ct.Status == target {
			out = ct
			return nil
		}
		if ct.Status != models.ContractStatusActive {
			return fmt.Errorf("%w: contract is %s", ErrInvalidState, ct.Status)
		}

		ct.Status = target
		if target == models.ContractStatusCompleted {
			now := s.now()
			ct.EndDate = &now
		}
		if err := st.UpdateContract(ct); err != nil {
			return err
		}

		if target == models.ContractStatusCompleted {
			if p, err := st.GetProject(ct.ProjectID); err == nil &&
				p.Status == models.ProjectStatusInProgress {
				p.Status = models.ProjectStatusCompleted
				if err := st.UpdateProject(p); err != nil {
					return err
				}
			}
		}

		out = ct
		return nil
	})
	return out, err
}

// Review operations

type CreateReviewInput struct {
	ContractID uint
	ReviewerID uuid.UUID
	Rating     int
	Comment    string
}

// CreateReview records a review against a completed contract. The reviewee
// is always the other party of the contract; one review per reviewer.
func (s *Service) CreateReview(in CreateReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	var review *models.Review
	err := s.store.Atomically(func(st store.Store) error {
		ct, err := getContract(st, in.ContractID)
		if err != nil {
			return err
		}
		if !ct.Party(in.ReviewerID) {
			return fmt.Errorf("%w: you are not part of this contract", ErrUnauthorized)
		}
		if ct.Status != models.ContractStatusCompleted {
			return fmt.Errorf("%w: only completed contracts can be reviewed", ErrInvalidState)
		}

		if _, err := st.GetReview(in.ContractID, in.ReviewerID); err == nil {
			return fmt.Errorf("%w: you have already reviewed this contract", ErrDuplicateReview)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		revieweeID := ct.ClientID
		if in.ReviewerID == ct.ClientID {
			revieweeID = ct.FreelancerID
		}

		review = &models.Review{
			ContractID: in.ContractID,
			ReviewerID: in.ReviewerID,
			RevieweeID: revieweeID,
			Rating:     in.Rating,
			Comment:    in.Comment,
		}
		if err := st.CreateReview(review); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return fmt.Errorf("%w: you have already reviewed this contract", ErrDuplicateReview)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// lookup helpers mapping store.ErrNotFound onto the lifecycle taxonomy

func getProject(st store.Store, id uint) (*models.Project, error) {
	p, err := st.GetProject(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, id)
	}
	return p, err
}

func getBid(st store.Store, id uint) (*models.Bid, error) {
	b, err := st.GetBid(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: bid %d", ErrNotFound, id)
	}
	return b, err
}

func getContract(st store.Store, id uint) (*models.Contract, error) {
	ct, err := st.GetContract(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: contract %d", ErrNotFound, id)
	}
	return ct, err
}
