package service

import (
	"context"

	"github.com/civic-kit/complaint-service/internal/domain"
	"github.com/civic-kit/complaint-service/internal/repository"
	"github.com/civic-kit/complaint-service/internal/sla"
	"github.com/civic-kit/complaint-service/pkg/util"
)

// SlaService exposes the SLA monitoring surface: open escalations, overdue
// tickets and manual escalation resolution.
type SlaService struct {
	tickets     repository.TicketRepository
	escalations repository.EscalationRepository
	clock       sla.Clock
}

// NewSlaService constructs the service.
func NewSlaService(tickets repository.TicketRepository, escalations repository.EscalationRepository, clock sla.Clock) *SlaService {
	if clock == nil {
		clock = sla.SystemClock{}
	}
	return &SlaService{tickets: tickets, escalations: escalations, clock: clock}
}

// ListEscalations returns unresolved escalations, paged.
func (s *SlaService) ListEscalations(ctx context.Context, limit, offset int) ([]domain.Escalation, error) {
	return s.escalations.ListUnresolved(ctx, limit, offset)
}

// ListOverdueTickets returns tickets past their SLA deadline that are still
// open in some form. Unlike the escalation sweep, ESCALATED tickets are
// included here: they remain overdue until resolved or closed.
func (s *SlaService) ListOverdueTickets(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	exclude := []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusClosed}
	return s.tickets.FindBreached(ctx, exclude, s.clock.Now(), limit, offset)
}

// ResolveEscalation closes out an escalation after staff has handled it.
func (s *SlaService) ResolveEscalation(ctx context.Context, escalationID string) (*domain.Escalation, error) {
	esc, err := s.escalations.Resolve(ctx, escalationID, s.clock.Now())
	if err != nil {
		return nil, util.ToDomainError(err)
	}
	return esc, nil
}
