package session

import (
	"sync"

	"github.com/rs/zerolog"
)

// Phase is the discriminant of a SessionState.
type Phase int

const (
	// PhaseLoading means reconciliation has not run yet this process
	// lifetime.
	PhaseLoading Phase = iota

	// PhaseAnonymous means no authenticated account should be treated as
	// active.
	PhaseAnonymous

	// PhaseAuthenticated means a specific persisted account is active.
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseAnonymous:
		return "anonymous"
	case PhaseAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// State is the session state exposed to UI consumers. Session is non-nil
// exactly when Phase is PhaseAuthenticated.
type State struct {
	Phase   Phase
	Session *AccountSession
}

// Manager reconciles "is the user logged in" against the account registry
// and exposes the result as a single observable State.
//
// All operations are safe for concurrent use; reconciliations are
// serialized by a mutex so two interleaved checks can never produce a torn
// state.
type Manager struct {
	mu             sync.Mutex
	registry       AccountSessionRegistry
	state          State
	forceAnonymous bool
	subscribers    map[chan State]struct{}
	log            zerolog.Logger
}

// NewManager creates a Manager in the Loading state. Reconciliation does
// not run until the first CheckSessionState call.
func NewManager(registry AccountSessionRegistry, log zerolog.Logger) *Manager {
	return &Manager{
		registry:    registry,
		state:       State{Phase: PhaseLoading},
		subscribers: make(map[chan State]struct{}),
		log:         log.With().Str("component", "session").Logger(),
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a channel receiving every state transition, starting
// with the current state. Slow consumers miss intermediate transitions
// rather than blocking the engine.
func (m *Manager) Subscribe() chan State {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan State, 8)
	ch <- m.state
	m.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (m *Manager) Unsubscribe(ch chan State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscribers[ch]; ok {
		delete(m.subscribers, ch)
		close(ch)
	}
}

// setState must be called with m.mu held.
func (m *Manager) setState(state State) {
	m.state = state
	for ch := range m.subscribers {
		select {
		case ch <- state:
		default:
		}
	}
}

// SetAnonymousMode forces the Anonymous state while on, masking any real
// session underneath (explicit "browse without an account" choice).
// Turning it off re-runs reconciliation immediately.
func (m *Manager) SetAnonymousMode(on bool) {
	m.mu.Lock()
	m.forceAnonymous = on
	if on {
		m.log.Debug().Msg("anonymous mode enabled")
		m.setState(State{Phase: PhaseAnonymous})
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.log.Debug().Msg("anonymous mode disabled, rechecking session")
	m.CheckSessionState()
}

// CheckSessionState runs the reconciliation algorithm and returns the
// resulting state. Callable at any time: app start, resume, after a
// completed login, or as a retry.
//
// When the registry holds accounts but its last-active pointer is unset,
// the most recently used account is auto-selected and the pointer
// repaired. Falling back to Anonymous in that situation would silently
// log out a user whose account is sitting in durable storage (the pointer
// write can be lost to process death independently of the account write).
func (m *Manager) CheckSessionState() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.forceAnonymous {
		m.setState(State{Phase: PhaseAnonymous})
		return m.state
	}

	active, err := m.registry.LastActive()
	if err != nil {
		// Last resort: a broken registry must not crash the session
		// check, but this is not the normal anonymous path.
		m.log.Error().Err(err).Msg("registry unavailable, falling back to anonymous")
		m.setState(State{Phase: PhaseAnonymous})
		return m.state
	}

	if active == nil {
		accounts, err := m.registry.Enumerate()
		if err != nil {
			m.log.Error().Err(err).Msg("registry enumeration failed, falling back to anonymous")
			m.setState(State{Phase: PhaseAnonymous})
			return m.state
		}

		if len(accounts) > 0 {
			selected := mostRecentlyUsed(accounts)
			m.log.Warn().
				Int("accounts", len(accounts)).
				Str("selected", selected.Handle()).
				Msg("active account missing but accounts exist, auto-selecting")

			if err := m.registry.SetLastActive(selected.ID); err != nil {
				m.log.Error().Err(err).Msg("failed to repair last-active pointer")
			}
			active = selected
		}
	}

	if active != nil {
		m.log.Debug().Str("account", active.Handle()).Msg("session state: authenticated")
		m.setState(State{Phase: PhaseAuthenticated, Session: active})
	} else {
		m.log.Debug().Msg("session state: anonymous (no accounts)")
		m.setState(State{Phase: PhaseAnonymous})
	}
	return m.state
}

// RegisterAccount stores a freshly completed login, marks it active and
// moves the state to Authenticated.
func (m *Manager) RegisterAccount(identity AccountIdentity, authorization Authorization, meta InstanceMeta, domain string) (*AccountSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.registry.Add(identity, authorization, meta, domain)
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("account", stored.Handle()).Msg("account registered")
	m.forceAnonymous = false
	m.setState(State{Phase: PhaseAuthenticated, Session: stored})
	return stored, nil
}

// CurrentSession returns the active account, or nil when none exists or
// anonymous mode is on. Anonymous mode fully masks a live session.
func (m *Manager) CurrentSession() *AccountSession {
	m.mu.Lock()
	forced := m.forceAnonymous
	m.mu.Unlock()

	if forced {
		return nil
	}

	active, err := m.registry.LastActive()
	if err != nil {
		m.log.Error().Err(err).Msg("registry unavailable reading current session")
		return nil
	}
	return active
}

func mostRecentlyUsed(accounts []*AccountSession) *AccountSession {
	selected := accounts[0]
	for _, account := range accounts[1:] {
		if account.LastUsedAt.After(selected.LastUsedAt) {
			selected = account
		}
	}
	return selected
}
