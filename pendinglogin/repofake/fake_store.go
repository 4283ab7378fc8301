package fakependingstore

import (
	"sync"
	"time"

	"github.com/kabinka/go-auth-client/pendinglogin"
)

var _ pendinglogin.Store = (*FakePendingStore)(nil)

// FakePendingStore is an in-memory pendinglogin.Store for tests.
type FakePendingStore struct {
	mu      sync.RWMutex
	record  *pendinglogin.PendingLogin
	nowTime func() time.Time

	// SaveErr, when set, is returned from Save to simulate a persistence
	// failure before the browser handoff.
	SaveErr error
}

// NewFakePendingStore creates an empty fake store.
func NewFakePendingStore() *FakePendingStore {
	return &FakePendingStore{nowTime: time.Now}
}

// SetNowTime sets the clock used for CreatedAt.
func (f *FakePendingStore) SetNowTime(nowFunc func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowTime = nowFunc
}

func (f *FakePendingStore) Save(instanceBaseURL, clientID, clientSecret string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SaveErr != nil {
		return "", f.SaveErr
	}

	state, err := pendinglogin.NewOAuthState()
	if err != nil {
		return "", err
	}

	f.record = &pendinglogin.PendingLogin{
		InstanceBaseURL: instanceBaseURL,
		OAuthState:      state,
		CodeVerifier:    pendinglogin.NewCodeVerifier(),
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		CreatedAt:       f.nowTime(),
	}
	return state, nil
}

func (f *FakePendingStore) Load() (*pendinglogin.PendingLogin, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.record == nil {
		return nil, nil
	}
	record := *f.record
	return &record, nil
}

func (f *FakePendingStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record = nil
	return nil
}
