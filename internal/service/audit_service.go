package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/salesflow/internal/events"
)

// EventCounter receives one tick per audited event.
type EventCounter interface {
	RecordEvent(eventType string)
}

// AuditService writes an audit trail of authentication and admin events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	counter    EventCounter
}

// NewAuditService creates the service. counter may be nil.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, counter EventCounter) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		counter:    counter,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventLogout, a.handleLogout)
	a.dispatcher.Subscribe(events.EventAccountCreated, a.handleAccountChanged)
	a.dispatcher.Subscribe(events.EventAccountDeleted, a.handleAccountChanged)
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	a.logger.Info("LoginSucceeded", eventFields(event)...)
	a.count(event)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	fields := eventFields(event)
	if p, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("username", p.Username), zap.String("reason", p.Reason))
	}
	a.logger.Warn("LoginFailed", fields...)
	a.count(event)
	return nil
}

func (a *AuditService) handleLogout(_ context.Context, event events.Event) error {
	a.logger.Info("Logout", eventFields(event)...)
	a.count(event)
	return nil
}

func (a *AuditService) handleAccountChanged(_ context.Context, event events.Event) error {
	fields := eventFields(event)
	if p, ok := event.Payload.(events.AccountPayload); ok {
		fields = append(fields, zap.Int64("account_id", p.AccountID), zap.String("account_username", p.Username))
		if p.Role != "" {
			fields = append(fields, zap.String("account_role", p.Role))
		}
	}
	a.logger.Info(string(event.Type), fields...)
	a.count(event)
	return nil
}

func (a *AuditService) count(event events.Event) {
	if a.counter != nil {
		a.counter.RecordEvent(string(event.Type))
	}
}

func eventFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("at", event.Timestamp),
	}
	if event.Actor.AccountID != 0 {
		fields = append(fields, zap.Int64("actor_id", event.Actor.AccountID), zap.String("actor", event.Actor.Username))
	}
	return fields
}
