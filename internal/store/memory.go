package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sgpfreelancing/platform_be/internal/models"
)

// Memory holds all data in memory. It backs service and handler tests and
// can run the API without a database for local development.
type Memory struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users      map[uuid.UUID]*models.User
	otps       map[uint]*models.OtpRecord
	categories map[uint]*models.Category
	projects   map[uint]*models.Project
	bids       map[uint]*models.Bid
	contracts  map[uint]*models.Contract
	reviews    map[uint]*models.Review
	payments   map[uint]*models.PaymentTransaction
	portfolios map[uint]*models.Portfolio
	cases      map[uint]*models.PortfolioCase
	messages   []*models.Message

	nextID map[string]uint
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[uuid.UUID]*models.User),
		otps:       make(map[uint]*models.OtpRecord),
		categories: make(map[uint]*models.Category),
		projects:   make(map[uint]*models.Project),
		bids:       make(map[uint]*models.Bid),
		contracts:  make(map[uint]*models.Contract),
		reviews:    make(map[uint]*models.Review),
		payments:   make(map[uint]*models.PaymentTransaction),
		portfolios: make(map[uint]*models.Portfolio),
		cases:      make(map[uint]*models.PortfolioCase),
		nextID:     make(map[string]uint),
	}
}

func (m *Memory) id(kind string) uint {
	m.nextID[kind]++
	return m.nextID[kind]
}

// Atomically serializes the whole block under a single lock. There is no
// rollback: a failing fn may leave earlier writes applied, which is
// acceptable for the tests and dev runs this store serves.
func (m *Memory) Atomically(fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

// User operations

func (m *Memory) CreateUser(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) GetUser(id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) GetUserByEmail(email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUser(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

// OTP record operations

func (m *Memory) CreateOtp(rec *models.OtpRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Email = strings.ToLower(rec.Email)
	// upsert per email, mirroring the unique index on otp_records.email
	for id, old := range m.otps {
		if old.Email == rec.Email {
			delete(m.otps, id)
		}
	}
	rec.ID = m.id("otp")
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	cp := *rec
	m.otps[rec.ID] = &cp
	return nil
}

func (m *Memory) LatestOtp(email string) (*models.OtpRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	var latest *models.OtpRecord
	for _, rec := range m.otps {
		if rec.Email != email {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) ||
			(rec.CreatedAt.Equal(latest.CreatedAt) && rec.ID > latest.ID) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *Memory) DeleteOtps(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	for id, rec := range m.otps {
		if rec.Email == email {
			delete(m.otps, id)
		}
	}
	return nil
}

func (m *Memory) DeleteOtp(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, id)
	return nil
}

// Category operations

func (m *Memory) CreateCategory(c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return ErrDuplicateKey
		}
	}
	c.ID = m.id("category")
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *Memory) ListCategories() ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Project operations

func (m *Memory) CreateProject(p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id("project")
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = models.ProjectStatusOpen
	}
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *Memory) GetProject(id uint) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) UpdateProject(p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *Memory) ListOpenProjects(f ProjectFilter) ([]models.Project, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []models.Project
	for _, p := range m.projects {
		if p.Status != models.ProjectStatusOpen {
			continue
		}
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Description), needle) {
				continue
			}
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = 10
	}
	start := (page - 1) * size
	if start >= len(matched) {
		return []models.Project{}, total, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *Memory) ListProjectsByClient(clientID uuid.UUID) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Project
	for _, p := range m.projects {
		if p.ClientID == clientID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Bid operations

func (m *Memory) CreateBid(b *models.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id("bid")
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	if b.Status == "" {
		b.Status = models.BidStatusPending
	}
	cp := *b
	m.bids[b.ID] = &cp
	return nil
}

func (m *Memory) GetBid(id uint) (*models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bids[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *Memory) UpdateBid(b *models.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bids[b.ID]; !ok {
		return ErrNotFound
	}
	b.UpdatedAt = time.Now()
	cp := *b
	m.bids[b.ID] = &cp
	return nil
}

func (m *Memory) ListBidsByProject(projectID uint) ([]models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Bid
	for _, b := range m.bids {
		if b.ProjectID == projectID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListBidsByFreelancer(freelancerID uuid.UUID) ([]models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Bid
	for _, b := range m.bids {
		if b.FreelancerID == freelancerID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ActiveBidByFreelancer(projectID uint, freelancerID uuid.UUID) (*models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bids {
		if b.ProjectID == projectID && b.FreelancerID == freelancerID &&
			b.Status != models.BidStatusWithdrawn {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// Contract operations

func (m *Memory) CreateContract(ct *models.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.contracts {
		if existing.ProjectID == ct.ProjectID {
			return ErrDuplicateKey
		}
	}
	ct.ID = m.id("contract")
	ct.CreatedAt = time.Now()
	ct.UpdatedAt = ct.CreatedAt
	if ct.Status == "" {
		ct.Status = models.ContractStatusActive
	}
	cp := *ct
	m.contracts[ct.ID] = &cp
	return nil
}

func (m *Memory) GetContract(id uint) (*models.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ct, ok := m.contracts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ct
	return &cp, nil
}

func (m *Memory) GetContractByProject(projectID uint) (*models.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ct := range m.contracts {
		if ct.ProjectID == projectID {
			cp := *ct
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateContract(ct *models.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[ct.ID]; !ok {
		return ErrNotFound
	}
	ct.UpdatedAt = time.Now()
	cp := *ct
	m.contracts[ct.ID] = &cp
	return nil
}

func (m *Memory) ListContractsByUser(userID uuid.UUID) ([]models.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Contract
	for _, ct := range m.contracts {
		if ct.ClientID == userID || ct.FreelancerID == userID {
			out = append(out, *ct)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Review operations

func (m *Memory) CreateReview(r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.ContractID == r.ContractID && existing.ReviewerID == r.ReviewerID {
			return ErrDuplicateKey
		}
	}
	r.ID = m.id("review")
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *Memory) GetReview(contractID uint, reviewerID uuid.UUID) (*models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reviews {
		if r.ContractID == contractID && r.ReviewerID == reviewerID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListReviewsByReviewee(userID uuid.UUID) ([]models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Review
	for _, r := range m.reviews {
		if r.RevieweeID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListReviewsByContract(contractID uint) ([]models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Review
	for _, r := range m.reviews {
		if r.ContractID == contractID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Payment operations

func (m *Memory) CreatePayment(p *models.PaymentTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id("payment")
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *Memory) ListPaymentsByContract(contractID uint) ([]models.PaymentTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PaymentTransaction
	for _, p := range m.payments {
		if p.ContractID == contractID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListPaymentsByFreelancer(freelancerID uuid.UUID) ([]models.PaymentTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PaymentTransaction
	for _, p := range m.payments {
		ct, ok := m.contracts[p.ContractID]
		if ok && ct.FreelancerID == freelancerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Portfolio operations

func (m *Memory) GetPortfolioByFreelancer(freelancerID uuid.UUID) (*models.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.portfolios {
		if p.FreelancerID == freelancerID {
			cp := *p
			cp.Cases = nil
			for _, c := range m.cases {
				if c.PortfolioID == p.ID {
					cp.Cases = append(cp.Cases, *c)
				}
			}
			sort.Slice(cp.Cases, func(i, j int) bool { return cp.Cases[i].ID < cp.Cases[j].ID })
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) SavePortfolio(p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.id("portfolio")
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	cp := *p
	cp.Cases = nil
	m.portfolios[p.ID] = &cp
	return nil
}

func (m *Memory) CreatePortfolioCase(c *models.PortfolioCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id("case")
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.cases[c.ID] = &cp
	return nil
}

// Message operations

func (m *Memory) CreateMessage(msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.CreatedAt = time.Now()
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *Memory) Conversation(userID, otherID uuid.UUID) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Message
	for _, msg := range m.messages {
		if (msg.SenderID == userID && msg.ReceiverID == otherID) ||
			(msg.SenderID == otherID && msg.ReceiverID == userID) {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *Memory) UnreadCount(userID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, msg := range m.messages {
		if msg.ReceiverID == userID && !msg.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *Memory) MarkConversationRead(userID, otherID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ReceiverID == userID && msg.SenderID == otherID {
			msg.IsRead = true
		}
	}
	return nil
}
