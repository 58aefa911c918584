package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

type fixture struct {
	store      *store.Memory
	svc        *Service
	client     uuid.UUID
	freelancer uuid.UUID
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st := store.NewMemory()
	return &fixture{
		store:      st,
		svc:        NewService(st, opts...),
		client:     uuid.New(),
		freelancer: uuid.New(),
	}
}

func (f *fixture) openProject(t *testing.T) *models.Project {
	t.Helper()
	p, err := f.svc.CreateProject(CreateProjectInput{
		ClientID:    f.client,
		Title:       "Landing page redesign",
		Description: "Rebuild the marketing site landing page",
		Budget:      1500,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func (f *fixture) pendingBid(t *testing.T, projectID uint) *models.Bid {
	t.Helper()
	b, err := f.svc.SubmitBid(SubmitBidInput{
		ProjectID:             projectID,
		FreelancerID:          f.freelancer,
		ProposedAmount:        1200.50,
		EstimatedDurationDays: 14,
		CoverLetter:           "I have shipped similar pages before.",
	})
	if err != nil {
		t.Fatalf("SubmitBid: %v", err)
	}
	return b
}

func (f *fixture) activeContract(t *testing.T) (*models.Project, *models.Bid, *models.Contract) {
	t.Helper()
	p := f.openProject(t)
	b := f.pendingBid(t, p.ID)
	if _, err := f.svc.AcceptBid(b.ID, f.client); err != nil {
		t.Fatalf("AcceptBid: %v", err)
	}
	ct, err := f.store.GetContractByProject(p.ID)
	if err != nil {
		t.Fatalf("GetContractByProject: %v", err)
	}
	return p, b, ct
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		in   CreateProjectInput
	}{
		{"empty title", CreateProjectInput{ClientID: f.client, Description: "d", Budget: 100}},
		{"empty description", CreateProjectInput{ClientID: f.client, Title: "t", Budget: 100}},
		{"zero budget", CreateProjectInput{ClientID: f.client, Title: "t", Description: "d"}},
		{"negative budget", CreateProjectInput{ClientID: f.client, Title: "t", Description: "d", Budget: -5}},
		{"sub-cent budget", CreateProjectInput{ClientID: f.client, Title: "t", Description: "d", Budget: 10.999}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.CreateProject(tc.in); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSubmitBidOnClosedProject(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)
	if _, err := f.svc.CloseProject(p.ID, f.client); err != nil {
		t.Fatalf("CloseProject: %v", err)
	}

	_, err := f.svc.SubmitBid(SubmitBidInput{
		ProjectID:             p.ID,
		FreelancerID:          f.freelancer,
		ProposedAmount:        500,
		EstimatedDurationDays: 7,
		CoverLetter:           "hello",
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestSubmitBidOwnProject(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)

	_, err := f.svc.SubmitBid(SubmitBidInput{
		ProjectID:             p.ID,
		FreelancerID:          f.client,
		ProposedAmount:        500,
		EstimatedDurationDays: 7,
		CoverLetter:           "hello",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSubmitBidDuplicate(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)
	f.pendingBid(t, p.ID)

	_, err := f.svc.SubmitBid(SubmitBidInput{
		ProjectID:             p.ID,
		FreelancerID:          f.freelancer,
		ProposedAmount:        900,
		EstimatedDurationDays: 10,
		CoverLetter:           "second try",
	})
	if !errors.Is(err, ErrDuplicateBid) {
		t.Fatalf("err = %v, want ErrDuplicateBid", err)
	}
}

func TestWithdrawThenRebid(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)
	b := f.pendingBid(t, p.ID)

	if _, err := f.svc.WithdrawBid(b.ID, f.freelancer); err != nil {
		t.Fatalf("WithdrawBid: %v", err)
	}
	// a withdrawn bid no longer blocks a fresh one
	f.pendingBid(t, p.ID)
}

func TestAcceptBidHappyPath(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return start }))
	p := f.openProject(t)
	b := f.pendingBid(t, p.ID)

	accepted, err := f.svc.AcceptBid(b.ID, f.client)
	if err != nil {
		t.Fatalf("AcceptBid: %v", err)
	}
	if accepted.Status != models.BidStatusAccepted {
		t.Errorf("bid status = %s, want accepted", accepted.Status)
	}

	gotP, _ := f.store.GetProject(p.ID)
	if gotP.Status != models.ProjectStatusInProgress {
		t.Errorf("project status = %s, want in_progress", gotP.Status)
	}

	ct, err := f.store.GetContractByProject(p.ID)
	if err != nil {
		t.Fatalf("contract not created: %v", err)
	}
	if ct.Status != models.ContractStatusActive {
		t.Errorf("contract status = %s, want active", ct.Status)
	}
	if ct.AgreedAmount != b.ProposedAmount {
		t.Errorf("agreed amount = %v, want %v", ct.AgreedAmount, b.ProposedAmount)
	}
	if !ct.StartDate.Equal(start) {
		t.Errorf("start date = %v, want %v", ct.StartDate, start)
	}
	if ct.ClientID != f.client || ct.FreelancerID != f.freelancer {
		t.Errorf("contract parties = (%s, %s)", ct.ClientID, ct.FreelancerID)
	}
}

func TestAcceptBidUnauthorizedLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)
	b := f.pendingBid(t, p.ID)

	if _, err := f.svc.AcceptBid(b.ID, uuid.New()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	gotB, _ := f.store.GetBid(b.ID)
	if gotB.Status != models.BidStatusPending {
		t.Errorf("bid status = %s, want pending", gotB.Status)
	}
	gotP, _ := f.store.GetProject(p.ID)
	if gotP.Status != models.ProjectStatusOpen {
		t.Errorf("project status = %s, want open", gotP.Status)
	}
	if _, err := f.store.GetContractByProject(p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("contract should not exist, err = %v", err)
	}
}

func TestAcceptBidIdempotent(t *testing.T) {
	f := newFixture(t)
	_, b, _ := f.activeContract(t)

	again, err := f.svc.AcceptBid(b.ID, f.client)
	if err != nil {
		t.Fatalf("repeat AcceptBid: %v", err)
	}
	if again.Status != models.BidStatusAccepted {
		t.Errorf("bid status = %s, want accepted", again.Status)
	}
}

func TestAcceptWithdrawnBid(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)
	b := f.pendingBid(t, p.ID)
	if _, err := f.svc.WithdrawBid(b.ID, f.freelancer); err != nil {
		t.Fatalf("WithdrawBid: %v", err)
	}

	if _, err := f.svc.AcceptBid(b.ID, f.client); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestAcceptBidAutoRejectsSiblings(t *testing.T) {
	f := newFixture(t, WithAutoRejectSiblingBids())
	p := f.openProject(t)
	b := f.pendingBid(t, p.ID)

	other, err := f.svc.SubmitBid(SubmitBidInput{
		ProjectID:             p.ID,
		FreelancerID:          uuid.New(),
		ProposedAmount:        999.99,
		EstimatedDurationDays: 20,
		CoverLetter:           "pick me",
	})
	if err != nil {
		t.Fatalf("SubmitBid: %v", err)
	}

	if _, err := f.svc.AcceptBid(b.ID, f.client); err != nil {
		t.Fatalf("AcceptBid: %v", err)
	}

	gotOther, _ := f.store.GetBid(other.ID)
	if gotOther.Status != models.BidStatusRejected {
		t.Errorf("sibling bid status = %s, want rejected", gotOther.Status)
	}
}

func TestRejectBidByNonOwner(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)
	b := f.pendingBid(t, p.ID)

	if _, err := f.svc.RejectBid(b.ID, f.freelancer); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestWithdrawBidByNonSubmitter(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)
	b := f.pendingBid(t, p.ID)

	if _, err := f.svc.WithdrawBid(b.ID, f.client); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCancelProject(t *testing.T) {
	f := newFixture(t)

	t.Run("open", func(t *testing.T) {
		p := f.openProject(t)
		out, err := f.svc.CancelProject(p.ID, f.client)
		if err != nil {
			t.Fatalf("CancelProject: %v", err)
		}
		if out.Status != models.ProjectStatusCancelled {
			t.Errorf("status = %s, want cancelled", out.Status)
		}
	})

	t.Run("in progress", func(t *testing.T) {
		p := f.openProject(t)
		b := f.pendingBid(t, p.ID)
		if _, err := f.svc.AcceptBid(b.ID, f.client); err != nil {
			t.Fatalf("AcceptBid: %v", err)
		}
		out, err := f.svc.CancelProject(p.ID, f.client)
		if err != nil {
			t.Fatalf("CancelProject: %v", err)
		}
		if out.Status != models.ProjectStatusCancelled {
			t.Errorf("status = %s, want cancelled", out.Status)
		}
	})

	t.Run("repeat is idempotent", func(t *testing.T) {
		p := f.openProject(t)
		if _, err := f.svc.CancelProject(p.ID, f.client); err != nil {
			t.Fatalf("CancelProject: %v", err)
		}
		out, err := f.svc.CancelProject(p.ID, f.client)
		if err != nil {
			t.Fatalf("repeat CancelProject: %v", err)
		}
		if out.Status != models.ProjectStatusCancelled {
			t.Errorf("status = %s, want cancelled", out.Status)
		}
	})

	t.Run("closed cannot cancel", func(t *testing.T) {
		p := f.openProject(t)
		if _, err := f.svc.CloseProject(p.ID, f.client); err != nil {
			t.Fatalf("CloseProject: %v", err)
		}
		if _, err := f.svc.CancelProject(p.ID, f.client); !errors.Is(err, ErrInvalidState) {
			t.Errorf("err = %v, want ErrInvalidState", err)
		}
	})

	t.Run("non-owner", func(t *testing.T) {
		p := f.openProject(t)
		if _, err := f.svc.CancelProject(p.ID, uuid.New()); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})
}

func TestCloseProjectRequiresOpen(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)
	b := f.pendingBid(t, p.ID)
	if _, err := f.svc.AcceptBid(b.ID, f.client); err != nil {
		t.Fatalf("AcceptBid: %v", err)
	}

	if _, err := f.svc.CloseProject(p.ID, f.client); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestCreateContractDuplicate(t *testing.T) {
	f := newFixture(t)
	p, _, _ := f.activeContract(t)

	_, err := f.svc.CreateContract(CreateContractInput{
		ProjectID:    p.ID,
		FreelancerID: f.freelancer,
		Amount:       1000,
		StartDate:    time.Now(),
	}, f.client)
	if !errors.Is(err, ErrDuplicateContract) {
		t.Fatalf("err = %v, want ErrDuplicateContract", err)
	}
}

func TestCreateContractEndBeforeStart(t *testing.T) {
	f := newFixture(t)
	p := f.openProject(t)

	start := time.Now()
	end := start.Add(-24 * time.Hour)
	_, err := f.svc.CreateContract(CreateContractInput{
		ProjectID:    p.ID,
		FreelancerID: f.freelancer,
		Amount:       1000,
		StartDate:    start,
		EndDate:      &end,
	}, f.client)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCompleteContract(t *testing.T) {
	done := time.Date(2026, 4, 2, 17, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return done }))
	p, _, ct := f.activeContract(t)

	// the freelancer side may complete too
	out, err := f.svc.CompleteContract(ct.ID, f.freelancer)
	if err != nil {
		t.Fatalf("CompleteContract: %v", err)
	}
	if out.Status != models.ContractStatusCompleted {
		t.Errorf("status = %s, want completed", out.Status)
	}
	if out.EndDate == nil || !out.EndDate.Equal(done) {
		t.Errorf("end date = %v, want %v", out.EndDate, done)
	}

	gotP, _ := f.store.GetProject(p.ID)
	if gotP.Status != models.ProjectStatusCompleted {
		t.Errorf("project status = %s, want completed", gotP.Status)
	}
}

func TestCompleteContractNonParty(t *testing.T) {
	f := newFixture(t)
	_, _, ct := f.activeContract(t)

	if _, err := f.svc.CompleteContract(ct.ID, uuid.New()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCompleteContractIdempotent(t *testing.T) {
	f := newFixture(t)
	_, _, ct := f.activeContract(t)

	if _, err := f.svc.CompleteContract(ct.ID, f.client); err != nil {
		t.Fatalf("CompleteContract: %v", err)
	}
	out, err := f.svc.CompleteContract(ct.ID, f.client)
	if err != nil {
		t.Fatalf("repeat CompleteContract: %v", err)
	}
	if out.Status != models.ContractStatusCompleted {
		t.Errorf("status = %s, want completed", out.Status)
	}
}

func TestCancelCompletedContract(t *testing.T) {
	f := newFixture(t)
	_, _, ct := f.activeContract(t)

	if _, err := f.svc.CompleteContract(ct.ID, f.client); err != nil {
		t.Fatalf("CompleteContract: %v", err)
	}
	if _, err := f.svc.CancelContract(ct.ID, f.client); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestDisputeContract(t *testing.T) {
	f := newFixture(t)
	_, _, ct := f.activeContract(t)

	out, err := f.svc.DisputeContract(ct.ID, f.freelancer)
	if err != nil {
		t.Fatalf("DisputeContract: %v", err)
	}
	if out.Status != models.ContractStatusDisputed {
		t.Errorf("status = %s, want disputed", out.Status)
	}
}

func TestReviewLifecycle(t *testing.T) {
	f := newFixture(t)
	_, _, ct := f.activeContract(t)

	// no reviews while the contract is still active
	_, err := f.svc.CreateReview(CreateReviewInput{
		ContractID: ct.ID,
		ReviewerID: f.client,
		Rating:     5,
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}

	if _, err := f.svc.CompleteContract(ct.ID, f.client); err != nil {
		t.Fatalf("CompleteContract: %v", err)
	}

	clientReview, err := f.svc.CreateReview(CreateReviewInput{
		ContractID: ct.ID,
		ReviewerID: f.client,
		Rating:     5,
		Comment:    "great work",
	})
	if err != nil {
		t.Fatalf("client CreateReview: %v", err)
	}
	if clientReview.RevieweeID != f.freelancer {
		t.Errorf("reviewee = %s, want the freelancer", clientReview.RevieweeID)
	}

	freelancerReview, err := f.svc.CreateReview(CreateReviewInput{
		ContractID: ct.ID,
		ReviewerID: f.freelancer,
		Rating:     4,
		Comment:    "clear brief",
	})
	if err != nil {
		t.Fatalf("freelancer CreateReview: %v", err)
	}
	if freelancerReview.RevieweeID != f.client {
		t.Errorf("reviewee = %s, want the client", freelancerReview.RevieweeID)
	}

	// one review per reviewer per contract
	_, err = f.svc.CreateReview(CreateReviewInput{
		ContractID: ct.ID,
		ReviewerID: f.client,
		Rating:     1,
	})
	if !errors.Is(err, ErrDuplicateReview) {
		t.Fatalf("err = %v, want ErrDuplicateReview", err)
	}
}

func TestReviewByNonParty(t *testing.T) {
	f := newFixture(t)
	_, _, ct := f.activeContract(t)
	if _, err := f.svc.CompleteContract(ct.ID, f.client); err != nil {
		t.Fatalf("CompleteContract: %v", err)
	}

	_, err := f.svc.CreateReview(CreateReviewInput{
		ContractID: ct.ID,
		ReviewerID: uuid.New(),
		Rating:     3,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestReviewRatingBounds(t *testing.T) {
	f := newFixture(t)
	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.CreateReview(CreateReviewInput{
			ContractID: 1,
			ReviewerID: f.client,
			Rating:     rating,
		})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("rating %d: err = %v, want ErrValidation", rating, err)
		}
	}
}

func TestOperationsOnMissingRecords(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CancelProject(99, f.client); !errors.Is(err, ErrNotFound) {
		t.Errorf("CancelProject err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.AcceptBid(99, f.client); !errors.Is(err, ErrNotFound) {
		t.Errorf("AcceptBid err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.CompleteContract(99, f.client); !errors.Is(err, ErrNotFound) {
		t.Errorf("CompleteContract err = %v, want ErrNotFound", err)
	}
}
