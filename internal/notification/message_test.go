package notification

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/civic-kit/complaint-service/internal/config"
	"github.com/civic-kit/complaint-service/internal/domain"
)

func TestStatusUpdateMessage(t *testing.T) {
	msg := StatusUpdateMessage("TKT-1700000000000-042", domain.TicketStatusResolved, "pothole filled")
	if !strings.Contains(msg, "TKT-1700000000000-042") {
		t.Errorf("message must reference the ticket number, got %q", msg)
	}
	if !strings.Contains(msg, "Resolved") {
		t.Errorf("message must carry the human status label, got %q", msg)
	}
	if !strings.Contains(msg, "Note: pothole filled") {
		t.Errorf("message must include the note, got %q", msg)
	}
}

func TestStatusUpdateMessageWithoutNote(t *testing.T) {
	msg := StatusUpdateMessage("TKT-1", domain.TicketStatusEscalated, "  ")
	if strings.Contains(msg, "Note:") {
		t.Errorf("blank note must be omitted, got %q", msg)
	}
	if !strings.Contains(msg, StatusLabel(domain.TicketStatusEscalated)) {
		t.Errorf("expected escalated label, got %q", msg)
	}
}

func TestStatusLabelFallsBackToRawStatus(t *testing.T) {
	if got := StatusLabel(domain.TicketStatus("WEIRD")); got != "WEIRD" {
		t.Errorf("unknown status should render verbatim, got %q", got)
	}
}

func TestWhatsAppSenderWithoutCredentials(t *testing.T) {
	sender := NewWhatsAppSender(config.NotificationConfig{}, zap.NewNop())
	result := sender.Send(context.Background(), "+620000000000", "hello")
	if result.Success {
		t.Fatal("send without credentials must fail")
	}
	if result.Error == "" {
		t.Fatal("failed result must carry an error description")
	}
}
