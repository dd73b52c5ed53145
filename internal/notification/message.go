package notification

import (
	"fmt"
	"strings"

	"github.com/civic-kit/complaint-service/internal/domain"
)

var statusLabels = map[domain.TicketStatus]string{
	domain.TicketStatusOpen:       "Opened",
	domain.TicketStatusAssigned:   "Assigned to an officer",
	domain.TicketStatusInProgress: "Being processed",
	domain.TicketStatusResolved:   "Resolved",
	domain.TicketStatusEscalated:  "Escalated for urgent handling",
	domain.TicketStatusClosed:     "Closed",
}

// StatusLabel renders a ticket status in citizen-facing language.
func StatusLabel(status domain.TicketStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// StatusUpdateMessage composes the text sent to a submitter after a status
// change.
func StatusUpdateMessage(ticketNumber string, status domain.TicketStatus, note string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Update for ticket %s\n\nStatus: %s", ticketNumber, StatusLabel(status))
	if note = strings.TrimSpace(note); note != "" {
		fmt.Fprintf(&b, "\nNote: %s", note)
	}
	b.WriteString("\n\nThank you for using our service.")
	return b.String()
}
