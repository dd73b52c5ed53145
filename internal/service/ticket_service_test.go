package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/civic-kit/complaint-service/internal/domain"
	"github.com/civic-kit/complaint-service/internal/events"
	"github.com/civic-kit/complaint-service/internal/repository"
	"github.com/civic-kit/complaint-service/internal/sla"
	"github.com/civic-kit/complaint-service/pkg/util"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
	clock   *testClock
}

func newFakeTicketRepo(clock *testClock) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket), clock: clock}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = r.clock.now
	ticket.UpdatedAt = r.clock.now
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return errors.New("ticket not found")
	}
	ticket.UpdatedAt = r.clock.now
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, util.NewNotFound("ticket", nil)
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.TicketNumber == number {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, util.NewNotFound("ticket", nil)
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Deleted() {
			continue
		}
		if filter.CitizenID != nil && ticket.CitizenID != *filter.CitizenID {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) SetSLADeadline(_ context.Context, id string, deadline time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return util.NewNotFound("ticket", nil)
	}
	if ticket.SLADeadline != nil {
		return errors.New("deadline already set")
	}
	d := deadline
	ticket.SLADeadline = &d
	return nil
}

func (r *fakeTicketRepo) FindBreached(_ context.Context, exclude []domain.TicketStatus, now time.Time, limit, offset int) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *fakeTicketRepo) SoftDelete(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return util.NewNotFound("ticket", nil)
	}
	t := now
	ticket.DeletedAt = &t
	return nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	seq     int
	entries []*domain.TicketLog
	marks   map[string]bool
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{marks: make(map[string]bool)}
}

func (r *fakeLogRepo) Create(_ context.Context, entry *domain.TicketLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.ID = fmt.Sprintf("log-%d", r.seq)
	copied := *entry
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeLogRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.TicketLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketLog
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) MarkNotification(_ context.Context, logID string, sent bool, at *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if entry.ID == logID {
			if entry.NotificationSent != nil {
				return errors.New("notification already recorded")
			}
			s := sent
			entry.NotificationSent = &s
			entry.NotificationSentAt = at
			r.marks[logID] = sent
			return nil
		}
	}
	return util.NewNotFound("ticket log", nil)
}

func (r *fakeLogRepo) byAction(action domain.ActionType) []domain.TicketLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketLog
	for _, entry := range r.entries {
		if entry.ActionType == action {
			out = append(out, *entry)
		}
	}
	return out
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments []*domain.TicketAssignment
}

func (r *fakeAssignmentRepo) Replace(_ context.Context, assignment *domain.TicketAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.assignments {
		if existing.TicketID == assignment.TicketID {
			existing.Active = false
		}
	}
	copied := *assignment
	copied.ID = fmt.Sprintf("assign-%d", len(r.assignments)+1)
	r.assignments = append(r.assignments, &copied)
	return nil
}

func (r *fakeAssignmentRepo) ListActiveByTicket(_ context.Context, ticketID string) ([]domain.TicketAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketAssignment
	for _, assignment := range r.assignments {
		if assignment.TicketID == ticketID && assignment.Active {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	attachments []*domain.TicketAttachment
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.TicketAttachment) error {
	attachment.ID = fmt.Sprintf("att-%d", len(r.attachments)+1)
	copied := *attachment
	r.attachments = append(r.attachments, &copied)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	var out []domain.TicketAttachment
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID {
			out = append(out, *attachment)
		}
	}
	return out, nil
}

type fakeCitizenRepo struct {
	citizens map[string]*domain.Citizen
}

func (r *fakeCitizenRepo) GetByID(_ context.Context, id string) (*domain.Citizen, error) {
	citizen, ok := r.citizens[id]
	if !ok {
		return nil, util.NewNotFound("citizen", nil)
	}
	return citizen, nil
}

func (r *fakeCitizenRepo) GetByPhone(_ context.Context, phone string) (*domain.Citizen, error) {
	for _, citizen := range r.citizens {
		if citizen.PhoneNumber == phone {
			return citizen, nil
		}
	}
	return nil, util.NewNotFound("citizen", nil)
}

func (r *fakeCitizenRepo) Upsert(_ context.Context, citizen *domain.Citizen) error {
	for _, existing := range r.citizens {
		if existing.PhoneNumber == citizen.PhoneNumber {
			existing.FullName = citizen.FullName
			*citizen = *existing
			return nil
		}
	}
	citizen.ID = fmt.Sprintf("cit-%d", len(r.citizens)+1)
	copied := *citizen
	r.citizens[citizen.ID] = &copied
	return nil
}

type fakeCategoryRepo struct {
	categories map[string]*domain.Category
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, util.NewNotFound("category", nil)
	}
	return category, nil
}

type fakeStaffRepo struct {
	staff map[string]*domain.StaffUser
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffUser, error) {
	staff, ok := r.staff[id]
	if !ok {
		return nil, util.NewNotFound("staff", nil)
	}
	return staff, nil
}

func (r *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffUser, error) {
	for _, staff := range r.staff {
		if staff.Email == email {
			return staff, nil
		}
	}
	return nil, util.NewNotFound("staff", nil)
}

func (r *fakeStaffRepo) FindActiveByRole(_ context.Context, roleID string) (*domain.StaffUser, error) {
	for _, staff := range r.staff {
		if staff.Active && staff.RoleID == roleID {
			return staff, nil
		}
	}
	return nil, nil
}

func (r *fakeStaffRepo) FindFirstActive(_ context.Context) (*domain.StaffUser, error) {
	for _, staff := range r.staff {
		if staff.Active {
			return staff, nil
		}
	}
	return nil, nil
}

type staticRules struct {
	rules map[string]*domain.SlaRule
}

func (r *staticRules) FindActiveByCategory(_ context.Context, categoryID string) (*domain.SlaRule, error) {
	return r.rules[categoryID], nil
}

func (r *staticRules) GetByID(_ context.Context, _ string) (*domain.SlaRule, error) {
	return nil, nil
}

type ticketFixture struct {
	clock       *testClock
	tickets     *fakeTicketRepo
	logs        *fakeLogRepo
	assignments *fakeAssignmentRepo
	attachments *fakeAttachmentRepo
	citizens    *fakeCitizenRepo
	categories  *fakeCategoryRepo
	staff       *fakeStaffRepo
	rules       *staticRules
	dispatcher  events.Dispatcher

	mu        sync.Mutex
	published []events.Event
}

func newTicketFixture() *ticketFixture {
	clock := &testClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	f := &ticketFixture{
		clock:       clock,
		tickets:     newFakeTicketRepo(clock),
		logs:        newFakeLogRepo(),
		assignments: &fakeAssignmentRepo{},
		attachments: &fakeAttachmentRepo{},
		citizens: &fakeCitizenRepo{citizens: map[string]*domain.Citizen{
			"cit-1": {ID: "cit-1", FullName: "Amina Yusuf", PhoneNumber: "+254700000001"},
		}},
		categories: &fakeCategoryRepo{categories: map[string]*domain.Category{
			"cat-roads": {ID: "cat-roads", Name: "Roads"},
		}},
		staff: &fakeStaffRepo{staff: map[string]*domain.StaffUser{
			"staff-1": {ID: "staff-1", Email: "officer@city.gov", RoleID: "role-officer", Active: true},
			"staff-2": {ID: "staff-2", Email: "retired@city.gov", RoleID: "role-officer", Active: false},
		}},
		rules: &staticRules{rules: map[string]*domain.SlaRule{
			"cat-roads": {ID: "rule-1", CategoryID: "cat-roads", MaxHours: 48},
		}},
		dispatcher: events.NewInMemoryDispatcher(),
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated, events.EventTicketStatusUpdated, events.EventTicketAssigned,
	} {
		f.dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.published = append(f.published, event)
			return nil
		})
	}
	return f
}

func (f *ticketFixture) service() *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		LogRepo:        f.logs,
		AssignmentRepo: f.assignments,
		AttachmentRepo: f.attachments,
		CitizenRepo:    f.citizens,
		CategoryRepo:   f.categories,
		StaffRepo:      f.staff,
		Deadlines:      sla.NewDeadlineCalculator(f.rules, sla.DefaultSLAHours),
		Dispatcher:     f.dispatcher,
		Clock:          f.clock,
	})
}

func (f *ticketFixture) eventsOfType(eventType events.EventType) []events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []events.Event
	for _, event := range f.published {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func TestCreateTicketSetsDeadlineFromCategoryRule(t *testing.T) {
	f := newTicketFixture()
	svc := f.service()

	ticket, err := svc.Create(context.Background(), TicketCreateInput{
		CitizenID:   "cit-1",
		CategoryID:  "cat-roads",
		Description: "Pothole on Main Street",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(ticket.TicketNumber, "TKT-") {
		t.Errorf("ticket number %q, want TKT- prefix", ticket.TicketNumber)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Errorf("priority = %s, want MEDIUM default", ticket.Priority)
	}
	if ticket.SLADeadline == nil {
		t.Fatal("deadline not set")
	}
	if want := f.clock.now.Add(48 * time.Hour); !ticket.SLADeadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", ticket.SLADeadline, want)
	}

	created := f.logs.byAction(domain.ActionCreated)
	if len(created) != 1 {
		t.Fatalf("CREATED logs = %d, want 1", len(created))
	}
	if created[0].ActorType != domain.ActorTypeUser {
		t.Errorf("actor = %s, want USER", created[0].ActorType)
	}
	if got := f.eventsOfType(events.EventTicketCreated); len(got) != 1 {
		t.Errorf("created events = %d, want 1", len(got))
	}
}

func TestCreateTicketFallsBackToDefaultDeadline(t *testing.T) {
	f := newTicketFixture()
	f.categories.categories["cat-misc"] = &domain.Category{ID: "cat-misc", Name: "Other"}
	svc := f.service()

	ticket, err := svc.Create(context.Background(), TicketCreateInput{
		CitizenID:   "cit-1",
		CategoryID:  "cat-misc",
		Description: "Noise complaint",
		Priority:    domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := f.clock.now.Add(24 * time.Hour); !ticket.SLADeadline.Equal(want) {
		t.Errorf("deadline = %v, want default 24h %v", ticket.SLADeadline, want)
	}
}

func TestCreateTicketRejectsEmptyDescription(t *testing.T) {
	f := newTicketFixture()
	if _, err := f.service().Create(context.Background(), TicketCreateInput{
		CitizenID:  "cit-1",
		CategoryID: "cat-roads",
	}); err == nil {
		t.Fatal("expected validation error for empty description")
	}
}

func TestDeadlineIsNeverRecomputed(t *testing.T) {
	f := newTicketFixture()
	svc := f.service()

	ticket, err := svc.Create(context.Background(), TicketCreateInput{
		CitizenID: "cit-1", CategoryID: "cat-roads", Description: "Broken streetlight",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	original := *ticket.SLADeadline

	// The category rule tightens afterwards; existing deadlines hold.
	f.rules.rules["cat-roads"].MaxHours = 2
	f.clock.now = f.clock.now.Add(time.Hour)
	if _, err := svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusInProgress, "", nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	stored, err := svc.Get(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored.SLADeadline.Equal(original) {
		t.Errorf("deadline changed from %v to %v", original, stored.SLADeadline)
	}
}

func TestUpdateStatusFollowsLifecycle(t *testing.T) {
	f := newTicketFixture()
	svc := f.service()
	ticket, _ := svc.Create(context.Background(), TicketCreateInput{
		CitizenID: "cit-1", CategoryID: "cat-roads", Description: "Overflowing drain",
	})
	actorID := "staff-1"

	updated, err := svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusResolved, "fixed", &actorID)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.TicketStatusResolved {
		t.Errorf("status = %s, want RESOLVED", updated.Status)
	}
	if updated.ClosedAt == nil {
		t.Error("ClosedAt not stamped on RESOLVED")
	}

	changed := f.logs.byAction(domain.ActionStatusChanged)
	if len(changed) != 1 {
		t.Fatalf("STATUS_CHANGED logs = %d, want 1", len(changed))
	}
	if changed[0].ActorType != domain.ActorTypeStaff {
		t.Errorf("actor = %s, want STAFF", changed[0].ActorType)
	}
	if changed[0].NewValue["note"] != "fixed" {
		t.Errorf("note = %v, want fixed", changed[0].NewValue["note"])
	}

	published := f.eventsOfType(events.EventTicketStatusUpdated)
	if len(published) != 1 {
		t.Fatalf("status events = %d, want 1", len(published))
	}
	payload := published[0].Payload.(events.TicketStatusUpdatedPayload)
	if payload.LogID != changed[0].ID {
		t.Errorf("event log id = %s, want %s", payload.LogID, changed[0].ID)
	}
}

func TestUpdateStatusRejectsInvalidTransitions(t *testing.T) {
	f := newTicketFixture()
	svc := f.service()
	ticket, _ := svc.Create(context.Background(), TicketCreateInput{
		CitizenID: "cit-1", CategoryID: "cat-roads", Description: "Fallen tree",
	})

	if _, err := svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusClosed, "", nil); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusOpen, "", nil); err == nil {
		t.Fatal("CLOSED ticket accepted a transition; want rejection")
	}
	if got := len(f.logs.byAction(domain.ActionStatusChanged)); got != 1 {
		t.Errorf("STATUS_CHANGED logs = %d, want 1 (rejected transition must not log)", got)
	}
}

func TestReopenClearsClosedAt(t *testing.T) {
	f := newTicketFixture()
	svc := f.service()
	ticket, _ := svc.Create(context.Background(), TicketCreateInput{
		CitizenID: "cit-1", CategoryID: "cat-roads", Description: "Water leak",
	})

	if _, err := svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusResolved, "", nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	reopened, err := svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusInProgress, "issue recurred", nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.ClosedAt != nil {
		t.Error("ClosedAt should be cleared on reopen")
	}
}

func TestAssignReplacesActiveAssignmentAndForcesStatus(t *testing.T) {
	f := newTicketFixture()
	f.staff.staff["staff-3"] = &domain.StaffUser{ID: "staff-3", RoleID: "role-officer", Active: true}
	svc := f.service()
	ticket, _ := svc.Create(context.Background(), TicketCreateInput{
		CitizenID: "cit-1", CategoryID: "cat-roads", Description: "Blocked drainage",
	})

	if _, err := svc.Assign(context.Background(), ticket.ID, "staff-1", "staff-1"); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	updated, err := svc.Assign(context.Background(), ticket.ID, "staff-3", "staff-1")
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if updated.Status != domain.TicketStatusAssigned {
		t.Errorf("status = %s, want ASSIGNED", updated.Status)
	}

	active, _ := f.assignments.ListActiveByTicket(context.Background(), ticket.ID)
	if len(active) != 1 {
		t.Fatalf("active assignments = %d, want 1", len(active))
	}
	if active[0].AssignedTo != "staff-3" {
		t.Errorf("assigned to %s, want staff-3", active[0].AssignedTo)
	}
	if got := len(f.eventsOfType(events.EventTicketAssigned)); got != 2 {
		t.Errorf("assigned events = %d, want 2", got)
	}
}

func TestAssignRejectsInactiveStaff(t *testing.T) {
	f := newTicketFixture()
	svc := f.service()
	ticket, _ := svc.Create(context.Background(), TicketCreateInput{
		CitizenID: "cit-1", CategoryID: "cat-roads", Description: "Street flooding",
	})

	if _, err := svc.Assign(context.Background(), ticket.ID, "staff-2", "staff-1"); err == nil {
		t.Fatal("expected rejection for inactive assignee")
	}
	active, _ := f.assignments.ListActiveByTicket(context.Background(), ticket.ID)
	if len(active) != 0 {
		t.Errorf("active assignments = %d, want 0", len(active))
	}
}

func TestAssignRejectsClosedTicket(t *testing.T) {
	f := newTicketFixture()
	svc := f.service()
	ticket, _ := svc.Create(context.Background(), TicketCreateInput{
		CitizenID: "cit-1", CategoryID: "cat-roads", Description: "Graffiti",
	})
	if _, err := svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusClosed, "", nil); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := svc.Assign(context.Background(), ticket.ID, "staff-1", "staff-1"); err == nil {
		t.Fatal("expected rejection for closed ticket")
	}
}

func TestRemoveSoftDeletesAndHidesTicket(t *testing.T) {
	f := newTicketFixture()
	svc := f.service()
	ticket, _ := svc.Create(context.Background(), TicketCreateInput{
		CitizenID: "cit-1", CategoryID: "cat-roads", Description: "Abandoned vehicle",
	})

	actorID := "staff-1"
	if err := svc.Remove(context.Background(), ticket.ID, &actorID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := svc.Get(context.Background(), ticket.ID); err == nil {
		t.Fatal("deleted ticket still visible")
	}
	if got := len(f.logs.byAction(domain.ActionDeleted)); got != 1 {
		t.Errorf("DELETED logs = %d, want 1", got)
	}
	// The audit trail survives the delete.
	logs, err := f.logs.ListByTicket(context.Background(), ticket.ID, 100, 0)
	if err != nil || len(logs) == 0 {
		t.Errorf("audit trail lost after delete: %v entries, err %v", len(logs), err)
	}
}

func TestAddAttachmentLogsEntry(t *testing.T) {
	f := newTicketFixture()
	svc := f.service()
	ticket, _ := svc.Create(context.Background(), TicketCreateInput{
		CitizenID: "cit-1", CategoryID: "cat-roads", Description: "Damaged signage",
	})

	uploadedBy := "cit-1"
	attachment, err := svc.AddAttachment(context.Background(), ticket.ID, AttachmentInput{
		FileURL:  "https://files.example.org/photo.jpg",
		FileType: "image/jpeg",
	}, &uploadedBy)
	if err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}
	if attachment.ID == "" {
		t.Error("attachment id not assigned")
	}
	if got := len(f.logs.byAction(domain.ActionAttachmentAdded)); got != 1 {
		t.Errorf("ATTACHMENT_ADDED logs = %d, want 1", got)
	}
}
