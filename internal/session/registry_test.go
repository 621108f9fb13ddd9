package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistryReturnsSameManagerPerSession(t *testing.T) {
	registry := NewRegistry(func(sessionID string) *Manager {
		return NewManager(sessionID, NewMemoryStore(), &stubTransport{}, nil, nil, nil)
	}, time.Hour)

	first := registry.Get("sess-1")
	second := registry.Get("sess-1")
	other := registry.Get("sess-2")

	require.Same(t, first, second)
	require.NotSame(t, first, other)
	require.Equal(t, 2, registry.Len())
}

func TestRegistryEvictsIdleSessions(t *testing.T) {
	registry := NewRegistry(func(sessionID string) *Manager {
		return NewManager(sessionID, NewMemoryStore(), &stubTransport{}, nil, nil, nil)
	}, time.Minute)

	now := time.Now()
	registry.now = func() time.Time { return now }

	stale := registry.Get("sess-1")

	now = now.Add(2 * time.Minute)
	replacement := registry.Get("sess-1")

	require.NotSame(t, stale, replacement)
	require.Equal(t, 1, registry.Len())
}

func TestRegistryDrop(t *testing.T) {
	registry := NewRegistry(func(sessionID string) *Manager {
		return NewManager(sessionID, NewMemoryStore(), &stubTransport{}, nil, nil, nil)
	}, time.Hour)

	registry.Get("sess-1")
	registry.Drop("sess-1")
	require.Zero(t, registry.Len())
}
