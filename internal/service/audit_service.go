package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/commerce-auth/internal/events"
	"github.com/spec-kit/commerce-auth/internal/observability"
)

// AuditRecorder receives auth outcomes for metrics.
type AuditRecorder interface {
	RecordLogin(outcome string)
	RecordRegistration(outcome string)
}

// AuditService turns auth events into security log lines and metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   AuditRecorder
}

// NewAuditService creates the service. recorder may be nil.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, recorder AuditRecorder) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.On(a.handleUserRegistered), events.EventUserRegistered)
	a.dispatcher.Subscribe(events.On(a.handleRegistrationRejected), events.EventRegistrationRejected)
	a.dispatcher.Subscribe(events.On(a.handleLoginSucceeded), events.EventLoginSucceeded)
	a.dispatcher.Subscribe(events.On(a.handleLoginFailed), events.EventLoginFailed)
	a.dispatcher.Subscribe(a.handleLoginLocked, events.EventLoginLocked)
}

func (a *AuditService) handleUserRegistered(_ context.Context, event events.Event, p events.UserRegisteredPayload) error {
	a.logger.Info("user registered",
		eventFields(event, zap.String("user_id", p.UserID), zap.String("role", p.Role))...)
	a.recordRegistration("created")
	return nil
}

func (a *AuditService) handleRegistrationRejected(_ context.Context, event events.Event, p events.RegistrationRejectedPayload) error {
	a.logger.Info("registration rejected", eventFields(event, zap.String("reason", p.Reason))...)
	a.recordRegistration(p.Reason)
	return nil
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event, p events.LoginSucceededPayload) error {
	a.logger.Info("login succeeded",
		eventFields(event, zap.String("role", p.Role), zap.Time("expires_at", p.ExpiresAt))...)
	a.recordLogin("success")
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event, p events.LoginFailedPayload) error {
	a.logger.Warn("login failed",
		eventFields(event, zap.String("reason", p.Reason), zap.Int64("failures", p.Failures))...)
	a.recordLogin("invalid_credentials")
	return nil
}

func (a *AuditService) handleLoginLocked(_ context.Context, event events.Event) error {
	a.logger.Warn("login locked", eventFields(event)...)
	a.recordLogin("locked")
	return nil
}

func eventFields(event events.Event, extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("event_id", event.ID),
		observability.MaskedEmail("email", event.Subject),
	}, extra...)
}

func (a *AuditService) recordLogin(outcome string) {
	if a.recorder != nil {
		a.recorder.RecordLogin(outcome)
	}
}

func (a *AuditService) recordRegistration(outcome string) {
	if a.recorder != nil {
		a.recorder.RecordRegistration(outcome)
	}
}
