package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    TicketStatus
		to      TicketStatus
		allowed bool
	}{
		{"open to assigned", TicketStatusOpen, TicketStatusAssigned, true},
		{"open to resolved", TicketStatusOpen, TicketStatusResolved, true},
		{"open to escalated", TicketStatusOpen, TicketStatusEscalated, true},
		{"assigned to in_progress", TicketStatusAssigned, TicketStatusInProgress, true},
		{"in_progress to resolved", TicketStatusInProgress, TicketStatusResolved, true},
		{"in_progress to open", TicketStatusInProgress, TicketStatusOpen, false},
		{"escalated back to in_progress", TicketStatusEscalated, TicketStatusInProgress, true},
		{"escalated to closed", TicketStatusEscalated, TicketStatusClosed, true},
		{"resolved reopen", TicketStatusResolved, TicketStatusInProgress, true},
		{"resolved to closed", TicketStatusResolved, TicketStatusClosed, true},
		{"closed is final", TicketStatusClosed, TicketStatusOpen, false},
		{"closed to resolved", TicketStatusClosed, TicketStatusResolved, false},
		{"same status", TicketStatusOpen, TicketStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	if !TicketStatusResolved.Terminal() || !TicketStatusClosed.Terminal() {
		t.Fatal("RESOLVED and CLOSED must be terminal for SLA purposes")
	}
	for _, s := range []TicketStatus{TicketStatusOpen, TicketStatusAssigned, TicketStatusInProgress, TicketStatusEscalated} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestSLAExcludedStatuses(t *testing.T) {
	excluded := SLAExcludedStatuses()
	want := map[TicketStatus]bool{
		TicketStatusResolved:  true,
		TicketStatusClosed:    true,
		TicketStatusEscalated: true,
	}
	if len(excluded) != len(want) {
		t.Fatalf("expected %d excluded statuses, got %d", len(want), len(excluded))
	}
	for _, s := range excluded {
		if !want[s] {
			t.Errorf("unexpected excluded status %s", s)
		}
	}
}
