package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/medmarket-admin/internal/domain"
	"github.com/spec-kit/medmarket-admin/internal/events"
)

// User-facing messages for the login error taxonomy. Transport errors are
// always collapsed to the connectivity message; they never escape as raw
// errors.
const (
	msgMissingCredentials = "email and password are required"
	msgLoginFallback      = "login failed"
	msgConnectivity       = "unable to reach the server, please try again"
)

// LoginReply is what the upstream login transport reports back. Subadmin
// is passed through to the login hook; the manager itself never reads it.
type LoginReply struct {
	Success  bool
	Token    string
	User     domain.UserIdentity
	Subadmin bool
	Error    string
}

// Transport is the remote side of login/logout. Implemented by the
// upstream API client; stubbed in tests.
type Transport interface {
	Login(ctx context.Context, email, password string) (*LoginReply, error)
	Logout(ctx context.Context, token string) error
}

// RoleChecker reports the admin tier for the session. Implemented by the
// role resolver; optional.
type RoleChecker interface {
	IsAdminUser(ctx context.Context) bool
}

// LoginResult is the structured outcome surfaced to callers.
type LoginResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Subscriber receives the new state after every transition.
type Subscriber func(domain.AuthState)

// Manager is the single source of truth for a browser session's
// authentication state. It starts in a loading phase, resolves to
// authenticated or not on Init, and transitions via Login/Logout.
//
// Concurrent Login calls are not coordinated: both run, last write wins.
// The UI disables its trigger during an in-flight call.
type Manager struct {
	sessionID  string
	store      Store
	validator  *Validator
	transport  Transport
	roles      RoleChecker
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu            sync.Mutex
	loading       bool
	authenticated bool
	user          *domain.UserIdentity
	subscribers   []Subscriber

	now     func() time.Time
	onLogin func(context.Context, *LoginReply)
}

// NewManager builds a manager for one browser session. roles and
// dispatcher may be nil.
func NewManager(sessionID string, store Store, transport Transport, roles RoleChecker, dispatcher events.Dispatcher, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessionID:  sessionID,
		store:      store,
		validator:  NewValidator(store),
		transport:  transport,
		roles:      roles,
		dispatcher: dispatcher,
		logger:     logger,
		loading:    true,
		now:        time.Now,
	}
}

// Init resolves the initial state from persisted storage: a cached profile
// plus a locally usable token restores the session; anything else clears
// the stale credential and lands unauthenticated.
func (m *Manager) Init(ctx context.Context) {
	profile, err := m.store.Profile(ctx)
	if err != nil {
		m.logger.Warn("session profile read failed", zap.Error(err))
	}

	if profile == nil || !m.validator.IsTokenValid(ctx) {
		if err := m.store.ClearToken(ctx); err != nil {
			m.logger.Warn("clear stale credential failed", zap.Error(err))
		}
		m.setState(ctx, false, nil)
		return
	}

	user := profile.User
	m.setState(ctx, true, &user)
}

// Login authenticates against the upstream API. Validation failures and
// transport problems are reported in the result, never as an error.
func (m *Manager) Login(ctx context.Context, email, password string) LoginResult {
	if email == "" || password == "" {
		return LoginResult{Success: false, Error: msgMissingCredentials}
	}

	reply, err := m.transport.Login(ctx, email, password)
	if err != nil {
		m.logger.Warn("login transport error", zap.Error(err))
		m.publish(ctx, events.EventLoginFailed, email, events.LoginFailedPayload{Reason: "transport"})
		return LoginResult{Success: false, Error: msgConnectivity}
	}

	if !reply.Success {
		message := reply.Error
		if message == "" {
			message = msgLoginFallback
		}
		m.publish(ctx, events.EventLoginFailed, email, events.LoginFailedPayload{Reason: "rejected"})
		return LoginResult{Success: false, Error: message}
	}

	if reply.Token != "" {
		if err := m.store.SetToken(ctx, reply.Token); err != nil {
			m.logger.Warn("credential persist failed", zap.Error(err))
		}
	}

	user := reply.User
	if user.Email == "" {
		user.Email = email
	}
	profile := &domain.SessionProfile{User: user, Timestamp: m.now().UnixMilli()}
	if err := m.store.SetProfile(ctx, profile); err != nil {
		m.logger.Warn("session profile persist failed", zap.Error(err))
	}

	m.setState(ctx, true, &user)
	if m.onLogin != nil {
		m.onLogin(ctx, reply)
	}
	m.publish(ctx, events.EventLoginSucceeded, user.Email, nil)
	return LoginResult{Success: true}
}

// OnLogin registers a hook invoked after a successful login with the raw
// transport reply. The admin profile record is written through this hook
// by a separate flow, keeping it uncoordinated with the session profile.
func (m *Manager) OnLogin(fn func(context.Context, *LoginReply)) {
	m.onLogin = fn
}

// Logout is best-effort remote, guaranteed local: the transport call may
// fail or panic, the session still ends unauthenticated with the
// credential and profile cleared.
func (m *Manager) Logout(ctx context.Context) {
	email := ""
	if u := m.User(); u != nil {
		email = u.Email
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("logout transport panicked", zap.Any("panic", r))
		}
		if err := m.store.ClearToken(ctx); err != nil {
			m.logger.Warn("clear credential failed", zap.Error(err))
		}
		m.setState(ctx, false, nil)
		m.publish(ctx, events.EventLogout, email, nil)
	}()

	if m.transport == nil {
		return
	}
	token, err := m.store.Token(ctx)
	if err != nil || token == "" {
		return
	}
	if err := m.transport.Logout(ctx, token); err != nil {
		m.logger.Warn("logout transport error", zap.Error(err))
	}
}

// Expire ends the session after the credential has been invalidated
// elsewhere, typically by the upstream API rejecting it. Clearing the
// store again is idempotent; the point is that the cached state stops
// claiming an authentication the store can no longer back.
func (m *Manager) Expire(ctx context.Context) {
	if err := m.store.ClearToken(ctx); err != nil {
		m.logger.Warn("clear expired credential failed", zap.Error(err))
	}
	m.setState(ctx, false, nil)
}

// State returns the current derived state. The admin flag is resolved on
// read so a profile blob written after login is picked up immediately.
func (m *Manager) State(ctx context.Context) domain.AuthState {
	m.mu.Lock()
	state := domain.AuthState{
		IsAuthenticated: m.authenticated,
		Loading:         m.loading,
	}
	m.mu.Unlock()

	if state.IsAuthenticated && m.roles != nil {
		state.IsAdmin = m.roles.IsAdminUser(ctx)
	}
	return state
}

// User returns the cached identity, nil when unauthenticated.
func (m *Manager) User() *domain.UserIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// SessionID returns the browser session identifier.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// Subscribe registers a callback invoked after every state transition.
func (m *Manager) Subscribe(fn Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) setState(ctx context.Context, authenticated bool, user *domain.UserIdentity) {
	m.mu.Lock()
	m.loading = false
	m.authenticated = authenticated
	m.user = user
	subs := append([]Subscriber{}, m.subscribers...)
	m.mu.Unlock()

	state := m.State(ctx)
	for _, fn := range subs {
		fn(state)
	}
}

func (m *Manager) publish(ctx context.Context, eventType events.EventType, email string, payload interface{}) {
	if m.dispatcher == nil {
		return
	}
	_ = m.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: m.sessionID,
		Email:     email,
		Timestamp: m.now(),
		Payload:   payload,
	})
}
