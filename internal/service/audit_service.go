package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/medmarket-admin/internal/domain"
	"github.com/spec-kit/medmarket-admin/internal/events"
	"github.com/spec-kit/medmarket-admin/internal/repository"
)

// AuditService records authentication events. Every event is logged; when
// a repository is configured the event is also persisted. Audit failures
// never propagate into the auth flow that emitted the event.
type AuditService struct {
	dispatcher events.Dispatcher
	repo       repository.AuditRepository
	logger     *zap.Logger
}

// NewAuditService creates the service; repo may be nil for log-only mode.
func NewAuditService(dispatcher events.Dispatcher, repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		repo:       repo,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to auth events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handle(domain.AuditLoginSucceeded, true))
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handle(domain.AuditLoginFailed, false))
	a.dispatcher.Subscribe(events.EventLogout, a.handle(domain.AuditLogout, true))
	a.dispatcher.Subscribe(events.EventSessionExpired, a.handle(domain.AuditSessionExpired, false))
	a.dispatcher.Subscribe(events.EventAdminDenied, a.handle(domain.AuditAdminDenied, false))
}

// ListRecent exposes the trail for the admin history view.
func (a *AuditService) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if a.repo == nil {
		return nil, nil
	}
	return a.repo.ListRecent(ctx, limit)
}

func (a *AuditService) handle(action domain.AuditAction, success bool) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		a.logger.Info(string(action),
			zap.String("session_id", event.SessionID),
			zap.String("email", event.Email),
			zap.Any("payload", event.Payload))

		if a.repo == nil {
			return nil
		}

		entry := &domain.AuditEntry{
			ID:        uuid.NewString(),
			SessionID: event.SessionID,
			Email:     event.Email,
			Action:    action,
			Success:   success,
			Detail:    detailOf(event),
		}
		if err := a.repo.Create(ctx, entry); err != nil {
			a.logger.Warn("audit persist failed", zap.Error(err))
		}
		return nil
	}
}

func detailOf(event events.Event) string {
	switch payload := event.Payload.(type) {
	case events.LoginFailedPayload:
		return payload.Reason
	case events.SessionExpiredPayload:
		return payload.Source
	case events.AdminDeniedPayload:
		return payload.Path
	default:
		return ""
	}
}
