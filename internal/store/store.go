package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/sgpfreelancing/platform_be/internal/models"
)

var (
	// ErrNotFound is returned by lookups when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a uniqueness
	// constraint (one contract per project, one review per reviewer).
	ErrDuplicateKey = errors.New("duplicate key")
)

// ProjectFilter narrows ListOpenProjects.
type ProjectFilter struct {
	CategoryID uint   // 0 = any
	Search     string // matches title or description
	Page       int    // 1-based
	PageSize   int
}

// Store defines persistence operations for all entities. The GORM
// implementation backs production; the memory implementation backs tests.
type Store interface {
	// Atomically runs fn as a single transactional unit. Reads inside fn
	// observe a consistent snapshot and writes commit together; concurrent
	// Atomically calls reading the same existing rows are serialized by
	// row locks. Racing inserts are not — uniqueness there comes from the
	// schema's unique indexes, surfaced as ErrDuplicateKey or absorbed by
	// an upsert.
	Atomically(fn func(Store) error) error

	// User operations
	CreateUser(u *models.User) error
	GetUser(id uuid.UUID) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(u *models.User) error

	// OTP record operations. CreateOtp upserts on the email: the address
	// carries a unique index, so racing inserts for the same email
	// collapse to one live record instead of two.
	CreateOtp(rec *models.OtpRecord) error
	LatestOtp(email string) (*models.OtpRecord, error)
	DeleteOtps(email string) error
	DeleteOtp(id uint) error

	// Category operations
	CreateCategory(c *models.Category) error
	ListCategories() ([]models.Category, error)

	// Project operations
	CreateProject(p *models.Project) error
	GetProject(id uint) (*models.Project, error)
	UpdateProject(p *models.Project) error
	ListOpenProjects(f ProjectFilter) ([]models.Project, int64, error)
	ListProjectsByClient(clientID uuid.UUID) ([]models.Project, error)

	// Bid operations
	CreateBid(b *models.Bid) error
	GetBid(id uint) (*models.Bid, error)
	UpdateBid(b *models.Bid) error
	ListBidsByProject(projectID uint) ([]models.Bid, error)
	ListBidsByFreelancer(freelancerID uuid.UUID) ([]models.Bid, error)
	// ActiveBidByFreelancer returns the freelancer's non-withdrawn bid on
	// the project, or ErrNotFound.
	ActiveBidByFreelancer(projectID uint, freelancerID uuid.UUID) (*models.Bid, error)

	// Contract operations
	CreateContract(ct *models.Contract) error
	GetContract(id uint) (*models.Contract, error)
	GetContractByProject(projectID uint) (*models.Contract, error)
	UpdateContract(ct *models.Contract) error
	ListContractsByUser(userID uuid.UUID) ([]models.Contract, error)

	// Review operations
	CreateReview(r *models.Review) error
	GetReview(contractID uint, reviewerID uuid.UUID) (*models.Review, error)
	ListReviewsByReviewee(userID uuid.UUID) ([]models.Review, error)
	ListReviewsByContract(contractID uint) ([]models.Review, error)

	// Payment operations
	CreatePayment(p *models.PaymentTransaction) error
	ListPaymentsByContract(contractID uint) ([]models.PaymentTransaction, error)
	ListPaymentsByFreelancer(freelancerID uuid.UUID) ([]models.PaymentTransaction, error)

	// Portfolio operations
	GetPortfolioByFreelancer(freelancerID uuid.UUID) (*models.Portfolio, error)
	SavePortfolio(p *models.Portfolio) error
	CreatePortfolioCase(c *models.PortfolioCase) error

	// Message operations
	CreateMessage(m *models.Message) error
	Conversation(userID, otherID uuid.UUID) ([]models.Message, error)
	UnreadCount(userID uuid.UUID) (int64, error)
	MarkConversationRead(userID, otherID uuid.UUID) error
}
