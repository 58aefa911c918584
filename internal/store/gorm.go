package store

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sgpfreelancing/platform_be/internal/models"
)

// Gorm is the PostgreSQL-backed Store.
type Gorm struct {
	db   *gorm.DB
	inTx bool
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Atomically(fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx, inTx: true})
	})
}

// locked applies SELECT ... FOR UPDATE inside transactions so concurrent
// lifecycle operations on the same row serialize instead of racing.
func (s *Gorm) locked() *gorm.DB {
	if s.inTx {
		return s.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// dupKey maps unique-constraint violations (TranslateError is enabled at
// connect time) onto ErrDuplicateKey.
func dupKey(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// User operations

func (s *Gorm) CreateUser(u *models.User) error {
	return s.db.Create(u).Error
}

func (s *Gorm) GetUser(id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Gorm) GetUserByEmail(email string) (*models.User, error) {
	var u models.User
	if err := s.db.First(&u, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Gorm) UpdateUser(u *models.User) error {
	return s.db.Save(u).Error
}

// OTP record operations

// CreateOtp upserts on the email's unique index. Two racing generations
// for the same address cannot both insert: the loser's insert turns into an
// update of the winner's row, so at most one live record survives.
func (s *Gorm) CreateOtp(rec *models.OtpRecord) error {
	rec.Email = strings.ToLower(rec.Email)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "created_at"}),
	}).Create(rec).Error
}

func (s *Gorm) LatestOtp(email string) (*models.OtpRecord, error) {
	var rec models.OtpRecord
	err := s.locked().
		Where("email = ?", strings.ToLower(email)).
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (s *Gorm) DeleteOtps(email string) error {
	return s.db.Where("email = ?", strings.ToLower(email)).Delete(&models.OtpRecord{}).Error
}

func (s *Gorm) DeleteOtp(id uint) error {
	return s.db.Delete(&models.OtpRecord{}, id).Error
}

// Category operations

func (s *Gorm) CreateCategory(c *models.Category) error {
	return dupKey(s.db.Create(c).Error)
}

func (s *Gorm) ListCategories() ([]models.Category, error) {
	var cats []models.Category
	if err := s.db.Order("name").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// Project operations

func (s *Gorm) CreateProject(p *models.Project) error {
	return s.db.Create(p).Error
}

func (s *Gorm) GetProject(id uint) (*models.Project, error) {
	var p models.Project
	if err := s.locked().First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Gorm) UpdateProject(p *models.Project) error {
	p.UpdatedAt = time.Now()
	return s.db.Save(p).Error
}

func (s *Gorm) ListOpenProjects(f ProjectFilter) ([]models.Project, int64, error) {
	q := s.db.Model(&models.Project{}).
		Where("status = ?", models.ProjectStatusOpen)

	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = 10
	}

	var projects []models.Project
	err := q.Preload("Category").Preload("Client").
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (s *Gorm) ListProjectsByClient(clientID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.Preload("Category").
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Bid operations

func (s *Gorm) CreateBid(b *models.Bid) error {
	return s.db.Create(b).Error
}

func (s *Gorm) GetBid(id uint) (*models.Bid, error) {
	var b models.Bid
	if err := s.locked().First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Gorm) UpdateBid(b *models.Bid) error {
	b.UpdatedAt = time.Now()
	return s.db.Save(b).Error
}

func (s *Gorm) ListBidsByProject(projectID uint) ([]models.Bid, error) {
	var bids []models.Bid
	err := s.db.Preload("Freelancer").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

func (s *Gorm) ListBidsByFreelancer(freelancerID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := s.db.Preload("Project").
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

func (s *Gorm) ActiveBidByFreelancer(projectID uint, freelancerID uuid.UUID) (*models.Bid, error) {
	var b models.Bid
	err := s.db.
		Where("project_id = ? AND freelancer_id = ? AND status <> ?",
			projectID, freelancerID, models.BidStatusWithdrawn).
		First(&b).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// Contract operations

func (s *Gorm) CreateContract(ct *models.Contract) error {
	return dupKey(s.db.Create(ct).Error)
}

func (s *Gorm) GetContract(id uint) (*models.Contract, error) {
	var ct models.Contract
	if err := s.locked().First(&ct, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ct, nil
}

func (s *Gorm) GetContractByProject(projectID uint) (*models.Contract, error) {
	var ct models.Contract
	if err := s.locked().First(&ct, "project_id = ?", projectID).Error; err != nil {
		return nil, notFound(err)
	}
	return &ct, nil
}

func (s *Gorm) UpdateContract(ct *models.Contract) error {
	ct.UpdatedAt = time.Now()
	return s.db.Save(ct).Error
}

func (s *Gorm) ListContractsByUser(userID uuid.UUID) ([]models.Contract, error) {
	var contracts []models.Contract
	err := s.db.Preload("Project").Preload("Client").Preload("Freelancer").
		Where("client_id = ? OR freelancer_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// Review operations

func (s *Gorm) CreateReview(r *models.Review) error {
	return dupKey(s.db.Create(r).Error)
}

func (s *Gorm) GetReview(contractID uint, reviewerID uuid.UUID) (*models.Review, error) {
	var r models.Review
	err := s.db.
		Where("contract_id = ? AND reviewer_id = ?", contractID, reviewerID).
		First(&r).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Gorm) ListReviewsByReviewee(userID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Preload("Reviewer").
		Where("reviewee_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *Gorm) ListReviewsByContract(contractID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.Preload("Reviewer").
		Where("contract_id = ?", contractID).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// Payment operations

func (s *Gorm) CreatePayment(p *models.PaymentTransaction) error {
	return s.db.Create(p).Error
}

func (s *Gorm) ListPaymentsByContract(contractID uint) ([]models.PaymentTransaction, error) {
	var payments []models.PaymentTransaction
	err := s.db.Where("contract_id = ?", contractID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Gorm) ListPaymentsByFreelancer(freelancerID uuid.UUID) ([]models.PaymentTransaction, error) {
	var payments []models.PaymentTransaction
	err := s.db.
		Joins("JOIN contracts ON contracts.id = payment_transactions.contract_id").
		Where("contracts.freelancer_id = ?", freelancerID).
		Order("payment_transactions.created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// Portfolio operations

func (s *Gorm) GetPortfolioByFreelancer(freelancerID uuid.UUID) (*models.Portfolio, error) {
	var p models.Portfolio
	err := s.db.Preload("Cases").Preload("Freelancer").
		First(&p, "freelancer_id = ?", freelancerID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Gorm) SavePortfolio(p *models.Portfolio) error {
	return s.db.Save(p).Error
}

func (s *Gorm) CreatePortfolioCase(c *models.PortfolioCase) error {
	return s.db.Create(c).Error
}

// Message operations

func (s *Gorm) CreateMessage(m *models.Message) error {
	return s.db.Create(m).Error
}

func (s *Gorm) Conversation(userID, otherID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Gorm) UnreadCount(userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = false", userID).
		Count(&n).Error
	return n, err
}

func (s *Gorm) MarkConversationRead(userID, otherID uuid.UUID) error {
	return s.db.Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = false", userID, otherID).
		Update("is_read", true).Error
}
