package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/events"
)

// NotificationService is the engine's Notify collaborator. It listens on
// the dispatcher and fans out to delivery channels; delivery is
// best-effort and can never fail the lifecycle transition that emitted
// the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to engine events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketOverdue, n.handleTicketOverdue)
}

// handleTicketCreated notifies administrators of a new ticket.
func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return
	}
	n.logger.Info("notify admins: new ticket",
		zap.String("ticket_code", event.TicketCode),
		zap.String("title", payload.Title))
}

// handleTicketAssigned notifies the assigned worker.
func (n *NotificationService) handleTicketAssigned(_ context.Context, event events.Event) {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return
	}
	n.logger.Info("notify worker: ticket assigned",
		zap.String("ticket_code", event.TicketCode),
		zap.String("assignee_id", payload.AssigneeID),
		zap.String("title", payload.Title))
}

// handleTicketStatusChanged notifies the requester of progress.
func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return
	}
	message := payload.Message
	if message == "" {
		message = "Your ticket status changed to " + string(payload.NewStatus)
	}
	n.logger.Info("notify requester: ticket update",
		zap.String("ticket_code", event.TicketCode),
		zap.String("requester_id", payload.RequesterID),
		zap.String("message", message))
}

// handleTicketOverdue notifies the requester their ticket expired.
func (n *NotificationService) handleTicketOverdue(_ context.Context, event events.Event) {
	payload, ok := event.Payload.(events.TicketOverduePayload)
	if !ok {
		return
	}
	n.logger.Info("notify requester: ticket overdue",
		zap.String("ticket_code", event.TicketCode),
		zap.String("requester_id", payload.RequesterID),
		zap.String("origin_status", string(payload.OriginStatus)))
}
