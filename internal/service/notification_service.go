package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/civic-kit/complaint-service/internal/domain"
	"github.com/civic-kit/complaint-service/internal/events"
	"github.com/civic-kit/complaint-service/internal/notification"
	"github.com/civic-kit/complaint-service/internal/repository"
	"github.com/civic-kit/complaint-service/internal/sla"
)

// NotificationService pushes WhatsApp updates to citizens when their ticket
// changes state. Delivery is best-effort: failures are logged and recorded on
// the audit entry, never propagated back into the ticket workflow.
type NotificationService struct {
	tickets  repository.TicketRepository
	citizens repository.CitizenRepository
	logs     repository.TicketLogRepository
	sender   notification.Sender
	logger   *zap.Logger
	clock    sla.Clock

	maxAttempts int
	backoff     time.Duration
	sleep       func(time.Duration)
}

// NotificationDependencies bundles collaborators for the notifier.
type NotificationDependencies struct {
	TicketRepo  repository.TicketRepository
	CitizenRepo repository.CitizenRepository
	LogRepo     repository.TicketLogRepository
	Sender      notification.Sender
	Logger      *zap.Logger
	Clock       sla.Clock
	MaxAttempts int
	Backoff     time.Duration
}

// NewNotificationService constructs the notifier.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	maxAttempts := deps.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoff := deps.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &NotificationService{
		tickets:     deps.TicketRepo,
		citizens:    deps.CitizenRepo,
		logs:        deps.LogRepo,
		sender:      deps.Sender,
		logger:      deps.Logger,
		clock:       clock,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       time.Sleep,
	}
}

// RegisterHandlers subscribes the notifier to ticket lifecycle events.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketStatusUpdated, s.handleStatusUpdated)
	dispatcher.Subscribe(events.EventTicketEscalated, s.handleEscalated)
}

func (s *NotificationService) handleStatusUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusUpdatedPayload)
	if !ok {
		return nil
	}
	body := notification.StatusUpdateMessage(payload.TicketNumber, payload.NewStatus, payload.Note)
	s.notifyCitizen(ctx, event.TicketID, payload.TicketNumber, payload.LogID, body)
	return nil
}

func (s *NotificationService) handleEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketEscalatedPayload)
	if !ok {
		return nil
	}
	body := notification.StatusUpdateMessage(payload.TicketNumber, domain.TicketStatusEscalated, "")
	s.notifyCitizen(ctx, event.TicketID, payload.TicketNumber, payload.LogID, body)
	return nil
}

func (s *NotificationService) notifyCitizen(ctx context.Context, ticketID, ticketNumber, logID, body string) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		s.logger.Warn("notification skipped: ticket lookup failed",
			zap.String("ticket_number", ticketNumber), zap.Error(err))
		return
	}
	citizen, err := s.citizens.GetByID(ctx, ticket.CitizenID)
	if err != nil {
		s.logger.Warn("notification skipped: citizen lookup failed",
			zap.String("ticket_number", ticketNumber), zap.Error(err))
		return
	}

	sent := s.deliver(ctx, citizen.PhoneNumber, body, ticketNumber)

	if logID == "" {
		return
	}
	var sentAt *time.Time
	if sent {
		now := s.clock.Now()
		sentAt = &now
	}
	if err := s.logs.MarkNotification(ctx, logID, sent, sentAt); err != nil {
		s.logger.Warn("failed to record notification outcome",
			zap.String("ticket_number", ticketNumber), zap.Error(err))
	}
}

// deliver retries transient send failures with doubling backoff.
func (s *NotificationService) deliver(ctx context.Context, to, body, ticketNumber string) bool {
	wait := s.backoff
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result := s.sender.Send(ctx, to, body)
		if result.Success {
			s.logger.Info("notification delivered",
				zap.String("ticket_number", ticketNumber),
				zap.String("message_id", result.MessageID),
				zap.Int("attempt", attempt))
			return true
		}
		s.logger.Warn("notification send failed",
			zap.String("ticket_number", ticketNumber),
			zap.String("error", result.Error),
			zap.Int("attempt", attempt))
		if attempt < s.maxAttempts {
			s.sleep(wait)
			wait *= 2
		}
	}
	return false
}
