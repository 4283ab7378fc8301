// Package boltstore persists the pending login in a bbolt database.
//
// bbolt gives the two properties the handshake depends on: the Save
// transaction is atomic (the record is overwritten wholesale or not at
// all) and it is fsynced before Update returns, so the record survives the
// process being killed immediately after the browser handoff.
package boltstore

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	enginerr "github.com/kabinka/go-auth-client/internal/errors"
	"github.com/kabinka/go-auth-client/pendinglogin"
)

const (
	dirPerm  = fs.FileMode(0o700)
	filePerm = fs.FileMode(0o600)

	// openTimeout is the maximum time to wait for the bolt file lock.
	openTimeout = 5 * time.Second
)

var (
	loginBucket = []byte("pending_login")
	recordKey   = []byte("current")
)

var _ pendinglogin.Store = (*Store)(nil)

// Store is a bbolt-backed pendinglogin.Store.
type Store struct {
	db      *bolt.DB
	nowTime func() time.Time
}

// Option modifies a Store.
type Option func(*Store)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// Open opens (creating if needed) the pending-login database at path.
func Open(path string, options ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, errors.Wrap(err, "[boltstore.Open] creating data directory")
	}

	db, err := bolt.Open(path, filePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrap(err, "[boltstore.Open] opening db")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(loginBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[boltstore.Open] initializing db")
	}

	s := &Store{db: db, nowTime: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save generates fresh CSRF and PKCE material, then durably overwrites any
// existing record. A persistence failure is surfaced to the caller; a
// half-written record would corrupt the handshake, so nothing is retried
// here.
func (s *Store) Save(instanceBaseURL, clientID, clientSecret string) (string, error) {
	state, err := pendinglogin.NewOAuthState()
	if err != nil {
		return "", err
	}

	record := pendinglogin.PendingLogin{
		InstanceBaseURL: instanceBaseURL,
		OAuthState:      state,
		CodeVerifier:    pendinglogin.NewCodeVerifier(),
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		CreatedAt:       s.nowTime(),
	}

	value, err := json.Marshal(record)
	if err != nil {
		return "", errors.Wrap(err, "[boltstore.Save] encoding record")
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(loginBucket).Put(recordKey, value)
	})
	if err != nil {
		return "", errors.Wrap(enginerr.ErrPendingLoginWrite, err.Error())
	}

	return state, nil
}

// Load returns the stored record, or nil when none exists.
func (s *Store) Load() (*pendinglogin.PendingLogin, error) {
	var record *pendinglogin.PendingLogin

	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(loginBucket).Get(recordKey)
		if value == nil {
			return nil
		}
		record = &pendinglogin.PendingLogin{}
		return json.Unmarshal(value, record)
	})
	if err != nil {
		return nil, errors.Wrap(err, "[boltstore.Load] reading record")
	}

	return record, nil
}

// Clear deletes the record. Idempotent.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(loginBucket).Delete(recordKey)
	})
	return errors.Wrap(err, "[boltstore.Clear] deleting record")
}
