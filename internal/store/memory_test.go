package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sgpfreelancing/platform_be/internal/models"
)

func seedProjects(t *testing.T, m *Memory, n int, category uint, status models.ProjectStatus) {
	t.Helper()
	for i := 0; i < n; i++ {
		p := &models.Project{
			Title:       fmt.Sprintf("Project %d", i),
			Description: "work to be done",
			Budget:      100,
			CategoryID:  category,
			ClientID:    uuid.New(),
			Status:      status,
		}
		if err := m.CreateProject(p); err != nil {
			t.Fatalf("CreateProject: %v", err)
		}
	}
}

func TestListOpenProjectsFilters(t *testing.T) {
	m := NewMemory()
	seedProjects(t, m, 3, 1, models.ProjectStatusOpen)
	seedProjects(t, m, 2, 2, models.ProjectStatusOpen)
	seedProjects(t, m, 4, 1, models.ProjectStatusCancelled)

	all, total, err := m.ListOpenProjects(ProjectFilter{})
	if err != nil {
		t.Fatalf("ListOpenProjects: %v", err)
	}
	if total != 5 || len(all) != 5 {
		t.Fatalf("total = %d, len = %d, want 5/5", total, len(all))
	}

	byCat, total, err := m.ListOpenProjects(ProjectFilter{CategoryID: 2})
	if err != nil {
		t.Fatalf("ListOpenProjects: %v", err)
	}
	if total != 2 || len(byCat) != 2 {
		t.Fatalf("category filter: total = %d, len = %d, want 2/2", total, len(byCat))
	}
}

func TestListOpenProjectsSearch(t *testing.T) {
	m := NewMemory()
	if err := m.CreateProject(&models.Project{
		Title:       "Mobile App Development",
		Description: "iOS and Android",
		Budget:      100,
		ClientID:    uuid.New(),
		Status:      models.ProjectStatusOpen,
	}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	seedProjects(t, m, 2, 0, models.ProjectStatusOpen)

	hits, total, err := m.ListOpenProjects(ProjectFilter{Search: "mobile"})
	if err != nil {
		t.Fatalf("ListOpenProjects: %v", err)
	}
	if total != 1 || len(hits) != 1 {
		t.Fatalf("search: total = %d, len = %d, want 1/1", total, len(hits))
	}

	byDesc, _, err := m.ListOpenProjects(ProjectFilter{Search: "android"})
	if err != nil {
		t.Fatalf("ListOpenProjects: %v", err)
	}
	if len(byDesc) != 1 {
		t.Fatalf("description search hit %d projects, want 1", len(byDesc))
	}
}

func TestListOpenProjectsPagination(t *testing.T) {
	m := NewMemory()
	seedProjects(t, m, 7, 0, models.ProjectStatusOpen)

	page1, total, err := m.ListOpenProjects(ProjectFilter{Page: 1, PageSize: 3})
	if err != nil {
		t.Fatalf("ListOpenProjects: %v", err)
	}
	if total != 7 || len(page1) != 3 {
		t.Fatalf("page 1: total = %d, len = %d, want 7/3", total, len(page1))
	}

	page3, _, err := m.ListOpenProjects(ProjectFilter{Page: 3, PageSize: 3})
	if err != nil {
		t.Fatalf("ListOpenProjects: %v", err)
	}
	if len(page3) != 1 {
		t.Fatalf("page 3 len = %d, want 1", len(page3))
	}

	past, _, err := m.ListOpenProjects(ProjectFilter{Page: 4, PageSize: 3})
	if err != nil {
		t.Fatalf("ListOpenProjects: %v", err)
	}
	if len(past) != 0 {
		t.Fatalf("page past the end len = %d, want 0", len(past))
	}
}

func TestCreateOtpUpsertsPerEmail(t *testing.T) {
	m := NewMemory()

	first := &models.OtpRecord{Email: "a@x.com", Code: "111111", ExpiresAt: time.Now().Add(time.Minute)}
	if err := m.CreateOtp(first); err != nil {
		t.Fatalf("CreateOtp: %v", err)
	}
	second := &models.OtpRecord{Email: "A@X.com", Code: "222222", ExpiresAt: time.Now().Add(time.Minute)}
	if err := m.CreateOtp(second); err != nil {
		t.Fatalf("CreateOtp: %v", err)
	}

	live := 0
	for _, rec := range m.otps {
		if rec.Email == "a@x.com" {
			live++
		}
	}
	if live != 1 {
		t.Fatalf("%d live records for the email, want exactly 1", live)
	}

	rec, err := m.LatestOtp("a@x.com")
	if err != nil {
		t.Fatalf("LatestOtp: %v", err)
	}
	if rec.Code != "222222" {
		t.Fatalf("surviving code = %s, want the later one", rec.Code)
	}
}

func TestContractUniquePerProject(t *testing.T) {
	m := NewMemory()
	ct := &models.Contract{ProjectID: 1, ClientID: uuid.New(), FreelancerID: uuid.New(), AgreedAmount: 100, StartDate: time.Now()}
	if err := m.CreateContract(ct); err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	dup := &models.Contract{ProjectID: 1, ClientID: uuid.New(), FreelancerID: uuid.New(), AgreedAmount: 200, StartDate: time.Now()}
	if err := m.CreateContract(dup); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}
}

func TestConversationAndUnread(t *testing.T) {
	m := NewMemory()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	send := func(from, to uuid.UUID, text string) {
		t.Helper()
		if err := m.CreateMessage(&models.Message{SenderID: from, ReceiverID: to, Content: text}); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}
	send(a, b, "hi")
	send(b, a, "hello")
	send(c, b, "unrelated")

	conv, err := m.Conversation(a, b)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(conv) != 2 {
		t.Fatalf("conversation len = %d, want 2", len(conv))
	}

	n, err := m.UnreadCount(b)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("unread = %d, want 2", n)
	}

	if err := m.MarkConversationRead(b, a); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	n, _ = m.UnreadCount(b)
	if n != 1 {
		t.Fatalf("unread after mark = %d, want 1", n)
	}
}
