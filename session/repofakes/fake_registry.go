package fakeregistry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kabinka/go-auth-client/session"
)

var _ session.AccountSessionRegistry = (*FakeRegistry)(nil)

// FakeRegistry is an in-memory session.AccountSessionRegistry for tests.
type FakeRegistry struct {
	mu         sync.RWMutex
	accounts   map[string]*session.AccountSession
	lastActive string
	nowTime    func() time.Time

	// Err, when set, is returned from every operation to simulate an
	// unavailable storage layer.
	Err error
}

// NewFakeRegistry creates an empty fake registry.
func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{
		accounts: make(map[string]*session.AccountSession),
		nowTime:  time.Now,
	}
}

// SetNowTime sets the clock used for record timestamps.
func (f *FakeRegistry) SetNowTime(nowFunc func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowTime = nowFunc
}

// Seed inserts a session directly, without touching the last-active
// pointer. Tests use it to model accounts whose pointer write was lost.
func (f *FakeRegistry) Seed(s *session.AccountSession) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	f.accounts[s.ID] = s
}

func (f *FakeRegistry) Enumerate() ([]*session.AccountSession, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.Err != nil {
		return nil, f.Err
	}

	out := make([]*session.AccountSession, 0, len(f.accounts))
	for _, s := range f.accounts {
		out = append(out, s)
	}
	return out, nil
}

func (f *FakeRegistry) LastActive() (*session.AccountSession, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if f.lastActive == "" {
		return nil, nil
	}
	return f.accounts[f.lastActive], nil
}

func (f *FakeRegistry) SetLastActive(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	f.lastActive = id
	return nil
}

func (f *FakeRegistry) Add(identity session.AccountIdentity, authorization session.Authorization, meta session.InstanceMeta, domain string) (*session.AccountSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	now := f.nowTime()
	stored := &session.AccountSession{
		ID:            uuid.NewString(),
		Domain:        domain,
		Identity:      identity,
		Authorization: authorization,
		Instance:      meta,
		CreatedAt:     now,
		LastUsedAt:    now,
	}
	f.accounts[stored.ID] = stored
	f.lastActive = stored.ID
	return stored, nil
}
