package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/session-auth/internal/events"
)

// AuditService writes authentication events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventRegistered, a.handle)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handle)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handle)
	a.dispatcher.Subscribe(events.EventLogout, a.handle)
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("at", event.Timestamp),
	}
	if event.IdentityID != nil {
		fields = append(fields, zap.Int64("identity_id", *event.IdentityID))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	a.logger.Info("auth event", fields...)
	return nil
}
