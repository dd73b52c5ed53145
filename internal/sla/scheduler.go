package sla

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civic-kit/complaint-service/internal/domain"
	"github.com/civic-kit/complaint-service/internal/events"
	"github.com/civic-kit/complaint-service/internal/observability"
	"github.com/civic-kit/complaint-service/internal/persistence"
	"github.com/civic-kit/complaint-service/internal/repository"
)

// SweepLockKey names the advisory lock serializing escalation sweeps.
const SweepLockKey = "sla:escalation-sweep"

// Scheduler scans breached tickets and records escalations.
type Scheduler struct {
	tickets     repository.TicketRepository
	rules       repository.SlaRuleRepository
	escalations repository.EscalationRepository
	staff       repository.StaffRepository
	locker      persistence.SweepLocker
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	clock       Clock

	pageSize    int
	concurrency int
	lockTTL     time.Duration
}

// SchedulerDependencies bundles collaborators for the scheduler.
type SchedulerDependencies struct {
	TicketRepo     repository.TicketRepository
	SlaRuleRepo    repository.SlaRuleRepository
	EscalationRepo repository.EscalationRepository
	StaffRepo      repository.StaffRepository
	Locker         persistence.SweepLocker
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Clock          Clock
	PageSize       int
	Concurrency    int
	LockTTL        time.Duration
}

// NewScheduler constructs the scheduler.
func NewScheduler(deps SchedulerDependencies) *Scheduler {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	lockTTL := deps.LockTTL
	if lockTTL <= 0 {
		lockTTL = 3 * time.Minute
	}
	return &Scheduler{
		tickets:     deps.TicketRepo,
		rules:       deps.SlaRuleRepo,
		escalations: deps.EscalationRepo,
		staff:       deps.StaffRepo,
		locker:      deps.Locker,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		clock:       clock,
		pageSize:    pageSize,
		concurrency: concurrency,
		lockTTL:     lockTTL,
	}
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Scanned   int
	Escalated int
	Skipped   int
	Failed    int
}

type ticketOutcome int

const (
	outcomeSkipped ticketOutcome = iota
	outcomeEscalated
	outcomeFailed
)

// RunSweep executes one escalation pass. Only one sweep runs at a time; if
// the advisory lock is held elsewhere the tick is skipped, not queued.
// Per-ticket errors never abort the sweep.
func (s *Scheduler) RunSweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	release, ok, err := s.locker.Acquire(ctx, SweepLockKey, s.lockTTL)
	if err != nil {
		return result, err
	}
	if !ok {
		s.logger.Debug("escalation sweep already running; skipping tick")
		s.metrics.RecordSweepLockMiss()
		return result, nil
	}
	defer func() {
		if err := release(ctx); err != nil {
			s.logger.Warn("failed to release sweep lock", zap.Error(err))
		}
	}()

	now := s.clock.Now()
	excluded := domain.SLAExcludedStatuses()

	// Escalated tickets fall out of the breach predicate as we write, so the
	// next page starts after only the tickets that stayed in the result set.
	offset := 0
	for {
		batch, err := s.tickets.FindBreached(ctx, excluded, now, s.pageSize, offset)
		if err != nil {
			s.logger.Error("breach scan failed", zap.Error(err))
			return result, err
		}
		if len(batch) == 0 {
			break
		}

		outcomes := s.processBatch(ctx, batch, now)
		remained := 0
		for _, outcome := range outcomes {
			result.Scanned++
			switch outcome {
			case outcomeEscalated:
				result.Escalated++
			case outcomeFailed:
				result.Failed++
				remained++
			default:
				result.Skipped++
				remained++
			}
		}
		offset += remained

		if len(batch) < s.pageSize {
			break
		}
	}

	s.metrics.RecordSweep(result.Scanned, result.Escalated, result.Skipped, result.Failed)
	s.logger.Info("escalation sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("escalated", result.Escalated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *Scheduler) processBatch(ctx context.Context, batch []domain.Ticket, now time.Time) []ticketOutcome {
	outcomes := make([]ticketOutcome, len(batch))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.processTicket(ctx, &batch[i], now)
		}(i)
	}
	wg.Wait()
	return outcomes
}

func (s *Scheduler) processTicket(ctx context.Context, ticket *domain.Ticket, now time.Time) ticketOutcome {
	if ticket.SLADeadline == nil {
		return outcomeSkipped
	}

	rule, err := s.rules.FindActiveByCategory(ctx, ticket.CategoryID)
	if err != nil {
		s.logger.Error("rule lookup failed",
			zap.String("ticket_number", ticket.TicketNumber), zap.Error(err))
		return outcomeFailed
	}

	current, err := s.escalations.GetUnresolvedByTicket(ctx, ticket.ID)
	if err != nil {
		s.logger.Error("escalation lookup failed",
			zap.String("ticket_number", ticket.TicketNumber), zap.Error(err))
		return outcomeFailed
	}
	currentLevel := 0
	if current != nil {
		currentLevel = current.Level
	}

	hoursBreached := int(now.Sub(*ticket.SLADeadline).Hours())
	target := resolveTargetLevel(currentLevel, hoursBreached, rule)
	if target == 0 {
		return outcomeSkipped
	}

	staff, err := s.findEscalationTarget(ctx, rule)
	if err != nil {
		s.logger.Error("staff lookup failed",
			zap.String("ticket_number", ticket.TicketNumber), zap.Error(err))
		return outcomeFailed
	}
	if staff == nil {
		s.logger.Warn("no staff found for escalation",
			zap.String("ticket_number", ticket.TicketNumber))
		return outcomeSkipped
	}

	esc, entry, err := s.escalations.RecordEscalation(ctx, ticket.ID, ticket.Status, target, staff.ID, now)
	if err != nil {
		if errors.Is(err, repository.ErrTicketStateChanged) {
			s.logger.Warn("ticket changed during sweep; escalation abandoned",
				zap.String("ticket_number", ticket.TicketNumber))
			return outcomeSkipped
		}
		s.logger.Error("escalation write failed",
			zap.String("ticket_number", ticket.TicketNumber), zap.Error(err))
		return outcomeFailed
	}

	s.logger.Warn("ticket escalated",
		zap.String("ticket_number", ticket.TicketNumber),
		zap.Int("level", target),
		zap.String("escalated_to", staff.ID),
	)
	s.publishEscalated(ctx, ticket, esc, entry)
	return outcomeEscalated
}

// resolveTargetLevel picks the escalation level a breach duration warrants.
// Highest matching threshold wins; a threshold of 0 is not configured and
// never matches. A ticket past its deadline with no escalation yet is always
// raised to level 1, even before the level-1 threshold elapses.
func resolveTargetLevel(currentLevel, hoursBreached int, rule *domain.SlaRule) int {
	switch {
	case currentLevel < domain.EscalationLevel2 && rule.Level2Threshold() > 0 && hoursBreached >= rule.Level2Threshold():
		return domain.EscalationLevel2
	case currentLevel < domain.EscalationLevel1 && rule.Level1Threshold() > 0 && hoursBreached >= rule.Level1Threshold():
		return domain.EscalationLevel1
	case currentLevel == 0:
		return domain.EscalationLevel1
	default:
		return 0
	}
}

func (s *Scheduler) findEscalationTarget(ctx context.Context, rule *domain.SlaRule) (*domain.StaffUser, error) {
	if rule == nil || rule.EscalationRoleID == "" {
		return s.staff.FindFirstActive(ctx)
	}
	return s.staff.FindActiveByRole(ctx, rule.EscalationRoleID)
}

func (s *Scheduler) publishEscalated(ctx context.Context, ticket *domain.Ticket, esc *domain.Escalation, entry *domain.TicketLog) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		Actor:     events.SystemActor(),
		Timestamp: esc.EscalatedAt,
		Payload: events.TicketEscalatedPayload{
			TicketNumber: ticket.TicketNumber,
			Level:        esc.Level,
			EscalatedTo:  esc.EscalatedTo,
			OldStatus:    ticket.Status,
			SLADeadline:  *ticket.SLADeadline,
			LogID:        entry.ID,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
