package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civic-kit/complaint-service/internal/domain"
	"github.com/civic-kit/complaint-service/internal/events"
	"github.com/civic-kit/complaint-service/internal/repository"
	"github.com/civic-kit/complaint-service/internal/sla"
	"github.com/civic-kit/complaint-service/pkg/util"
)

// TicketService coordinates the complaint ticket lifecycle.
type TicketService struct {
	tickets     repository.TicketRepository
	logs        repository.TicketLogRepository
	assignments repository.AssignmentRepository
	attachments repository.AttachmentRepository
	citizens    repository.CitizenRepository
	categories  repository.CategoryRepository
	staff       repository.StaffRepository
	deadlines   *sla.DeadlineCalculator
	dispatcher  events.Dispatcher
	clock       sla.Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	LogRepo        repository.TicketLogRepository
	AssignmentRepo repository.AssignmentRepository
	AttachmentRepo repository.AttachmentRepository
	CitizenRepo    repository.CitizenRepository
	CategoryRepo   repository.CategoryRepository
	StaffRepo      repository.StaffRepository
	Deadlines      *sla.DeadlineCalculator
	Dispatcher     events.Dispatcher
	Clock          sla.Clock
}

// TicketCreateInput describes a new complaint.
type TicketCreateInput struct {
	CitizenID   string
	CategoryID  string
	Description string
	Priority    domain.TicketPriority
}

// AttachmentInput describes an uploaded file reference.
type AttachmentInput struct {
	FileURL  string
	FileType string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		logs:        deps.LogRepo,
		assignments: deps.AssignmentRepo,
		attachments: deps.AttachmentRepo,
		citizens:    deps.CitizenRepo,
		categories:  deps.CategoryRepo,
		staff:       deps.StaffRepo,
		deadlines:   deps.Deadlines,
		dispatcher:  deps.Dispatcher,
		clock:       clock,
	}
}

// Create registers a complaint, computes its SLA deadline from the category's
// rule and writes the CREATED audit entry. The deadline is fixed here and
// never recomputed.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, util.NewValidationError("description is required", nil)
	}
	if _, err := s.citizens.GetByID(ctx, input.CitizenID); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		TicketNumber: generateTicketNumber(s.clock.Now()),
		CitizenID:    input.CitizenID,
		CategoryID:   input.CategoryID,
		Description:  description,
		Status:       domain.TicketStatusOpen,
		Priority:     input.Priority,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	deadline, err := s.deadlines.ForCategory(ctx, ticket.CategoryID, ticket.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.SetSLADeadline(ctx, ticket.ID, deadline); err != nil {
		return nil, err
	}
	ticket.SLADeadline = &deadline

	actorID := input.CitizenID
	entry := &domain.TicketLog{
		TicketID:   ticket.ID,
		ActionType: domain.ActionCreated,
		NewValue: map[string]any{
			"status":      string(ticket.Status),
			"priority":    string(ticket.Priority),
			"category_id": ticket.CategoryID,
		},
		ActorType: domain.ActorTypeUser,
		ActorID:   &actorID,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.ActorTypeUser, ActorID: &actorID},
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			CategoryID:   ticket.CategoryID,
			Priority:     ticket.Priority,
			SLADeadline:  ticket.SLADeadline,
		},
	})
	return ticket, nil
}

// UpdateStatus moves a ticket through the lifecycle. Transitions outside the
// allowed table are rejected. A nil actorID records the change as SYSTEM.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus, note string, actorID *string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Deleted() {
		return nil, util.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	if !ticket.Status.CanTransition(newStatus) {
		return nil, util.NewConflict(
			fmt.Sprintf("cannot move ticket from %s to %s", ticket.Status, newStatus),
			map[string]any{"from": string(ticket.Status), "to": string(newStatus)},
		)
	}

	oldStatus := ticket.Status
	now := s.clock.Now()
	ticket.Status = newStatus
	switch {
	case newStatus == domain.TicketStatusResolved || newStatus == domain.TicketStatusClosed:
		ticket.ClosedAt = &now
	case oldStatus.Terminal():
		// Reopened: the closure timestamp no longer applies.
		ticket.ClosedAt = nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	entry := &domain.TicketLog{
		TicketID:   ticket.ID,
		ActionType: domain.ActionStatusChanged,
		OldValue:   map[string]any{"status": string(oldStatus)},
		NewValue:   map[string]any{"status": string(newStatus), "note": note},
		ActorType:  domain.ActorTypeSystem,
		ActorID:    actorID,
	}
	if actorID != nil {
		entry.ActorType = domain.ActorTypeStaff
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, err
	}

	actor := events.SystemActor()
	if actorID != nil {
		actor = events.StaffActor(*actorID)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusUpdated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusUpdatedPayload{
			TicketNumber: ticket.TicketNumber,
			OldStatus:    oldStatus,
			NewStatus:    newStatus,
			Note:         note,
			LogID:        entry.ID,
		},
	})
	return ticket, nil
}

// Assign hands a ticket to a staff member, replacing any active assignment,
// and forces the ticket into ASSIGNED.
func (s *TicketService) Assign(ctx context.Context, ticketID, staffID, assignedBy string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Deleted() {
		return nil, util.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	if ticket.Status.Terminal() {
		return nil, util.NewConflict("cannot assign a closed ticket",
			map[string]any{"status": string(ticket.Status)})
	}

	assignee, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if !assignee.Active {
		return nil, util.NewValidationError("staff member is inactive",
			map[string]any{"staff_id": staffID})
	}

	now := s.clock.Now()
	assignment := &domain.TicketAssignment{
		TicketID:   ticket.ID,
		AssignedTo: staffID,
		AssignedBy: assignedBy,
		AssignedAt: now,
		Active:     true,
	}
	if err := s.assignments.Replace(ctx, assignment); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	if ticket.Status != domain.TicketStatusAssigned {
		ticket.Status = domain.TicketStatusAssigned
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
	}

	actorID := assignedBy
	entry := &domain.TicketLog{
		TicketID:   ticket.ID,
		ActionType: domain.ActionAssigned,
		OldValue:   map[string]any{"status": string(oldStatus)},
		NewValue:   map[string]any{"status": string(ticket.Status), "assigned_to": staffID},
		ActorType:  domain.ActorTypeStaff,
		ActorID:    &actorID,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.StaffActor(assignedBy),
		Payload: events.TicketAssignedPayload{
			AssignedTo: staffID,
			AssignedBy: assignedBy,
		},
	})
	return ticket, nil
}

// AddAttachment stores a file reference against a ticket.
func (s *TicketService) AddAttachment(ctx context.Context, ticketID string, input AttachmentInput, uploadedBy *string) (*domain.TicketAttachment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Deleted() {
		return nil, util.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	if strings.TrimSpace(input.FileURL) == "" {
		return nil, util.NewValidationError("file url is required", nil)
	}

	attachment := &domain.TicketAttachment{
		TicketID:   ticket.ID,
		FileURL:    input.FileURL,
		FileType:   input.FileType,
		UploadedBy: uploadedBy,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, err
	}

	entry := &domain.TicketLog{
		TicketID:   ticket.ID,
		ActionType: domain.ActionAttachmentAdded,
		NewValue:   map[string]any{"file_url": attachment.FileURL, "file_type": attachment.FileType},
		ActorType:  domain.ActorTypeUser,
		ActorID:    uploadedBy,
	}
	if uploadedBy == nil {
		entry.ActorType = domain.ActorTypeSystem
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, err
	}
	return attachment, nil
}

// Get fetches a ticket by id.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Deleted() {
		return nil, util.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	return ticket, nil
}

// GetByNumber fetches a ticket by its public number.
func (s *TicketService) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if ticket.Deleted() {
		return nil, util.NewNotFound("ticket", map[string]any{"number": number})
	}
	return ticket, nil
}

// List returns tickets matching the filter.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// GetLogs returns the ticket's audit trail, oldest first.
func (s *TicketService) GetLogs(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketLog, error) {
	if _, err := s.Get(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.logs.ListByTicket(ctx, ticketID, limit, offset)
}

// ListAttachments returns the ticket's stored file references.
func (s *TicketService) ListAttachments(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	if _, err := s.Get(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.attachments.ListByTicket(ctx, ticketID)
}

// Remove soft-deletes a ticket. The row and its audit trail are retained.
func (s *TicketService) Remove(ctx context.Context, ticketID string, actorID *string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.Deleted() {
		return util.NewNotFound("ticket", map[string]any{"id": ticketID})
	}

	now := s.clock.Now()
	if err := s.tickets.SoftDelete(ctx, ticket.ID, now); err != nil {
		return err
	}

	entry := &domain.TicketLog{
		TicketID:   ticket.ID,
		ActionType: domain.ActionDeleted,
		OldValue:   map[string]any{"status": string(ticket.Status)},
		ActorType:  domain.ActorTypeSystem,
		ActorID:    actorID,
	}
	if actorID != nil {
		entry.ActorType = domain.ActorTypeStaff
	}
	return s.logs.Create(ctx, entry)
}

func generateTicketNumber(now time.Time) string {
	suffix := strings.ToLower(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("TKT-%d-%s", now.UnixMilli(), suffix)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
