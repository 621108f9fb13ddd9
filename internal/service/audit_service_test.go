package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/medmarket-admin/internal/domain"
	"github.com/spec-kit/medmarket-admin/internal/events"
)

type fakeAuditRepo struct {
	entries []domain.AuditEntry
	err     error
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListRecent(context.Context, int) ([]domain.AuditEntry, error) {
	return f.entries, nil
}

func TestAuditServiceRecordsAuthEvents(t *testing.T) {
	ctx := context.Background()
	dispatcher := events.NewInMemoryDispatcher()
	repo := &fakeAuditRepo{}

	NewAuditService(dispatcher, repo, zap.NewNop()).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		ID:        "e1",
		Type:      events.EventLoginSucceeded,
		SessionID: "s1",
		Email:     "a@b.com",
		Timestamp: time.Now(),
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		ID:        "e2",
		Type:      events.EventLoginFailed,
		SessionID: "s1",
		Email:     "a@b.com",
		Timestamp: time.Now(),
		Payload:   events.LoginFailedPayload{Reason: "rejected"},
	}))

	require.Len(t, repo.entries, 2)

	require.Equal(t, domain.AuditLoginSucceeded, repo.entries[0].Action)
	require.True(t, repo.entries[0].Success)
	require.Equal(t, "a@b.com", repo.entries[0].Email)

	require.Equal(t, domain.AuditLoginFailed, repo.entries[1].Action)
	require.False(t, repo.entries[1].Success)
	require.Equal(t, "rejected", repo.entries[1].Detail)
}

func TestAuditServicePersistFailureDoesNotPropagate(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	repo := &fakeAuditRepo{err: errors.New("db down")}

	NewAuditService(dispatcher, repo, zap.NewNop()).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventLogout,
		SessionID: "s1",
	}))
}

func TestAuditServiceLogOnlyMode(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	audit := NewAuditService(dispatcher, nil, zap.NewNop())
	audit.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventLoginSucceeded,
		SessionID: "s1",
	}))

	entries, err := audit.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Nil(t, entries)
}
