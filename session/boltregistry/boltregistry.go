// Package boltregistry is a bbolt-backed AccountSessionRegistry.
//
// Accounts live in one bucket keyed by record id; the last-active pointer
// is a single key in a meta bucket. The two are written in separate
// transactions on Add, which is exactly why the Manager's auto-select
// repair exists: a crash between the two writes leaves an account without
// a pointer.
package boltregistry

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	enginerr "github.com/kabinka/go-auth-client/internal/errors"
	"github.com/kabinka/go-auth-client/session"
)

const (
	dirPerm  = fs.FileMode(0o700)
	filePerm = fs.FileMode(0o600)

	openTimeout = 5 * time.Second
)

var (
	accountsBucket = []byte("accounts")
	metaBucket     = []byte("meta")
	lastActiveKey  = []byte("last_active")
)

var _ session.AccountSessionRegistry = (*Registry)(nil)

// Registry is a durable AccountSessionRegistry.
type Registry struct {
	db      *bolt.DB
	nowTime func() time.Time
}

// Option modifies a Registry.
type Option func(*Registry)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(r *Registry) {
		r.nowTime = nowFunc
	}
}

// Open opens (creating if needed) the registry database at path.
func Open(path string, options ...Option) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, errors.Wrap(err, "[boltregistry.Open] creating data directory")
	}

	db, err := bolt.Open(path, filePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrapf(enginerr.ErrRegistryUnavailable, "[boltregistry.Open] opening db: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(accountsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[boltregistry.Open] initializing db")
	}

	r := &Registry{db: db, nowTime: time.Now}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) Enumerate() ([]*session.AccountSession, error) {
	var out []*session.AccountSession

	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(accountsBucket).ForEach(func(_, value []byte) error {
			var s session.AccountSession
			if err := json.Unmarshal(value, &s); err != nil {
				return err
			}
			out = append(out, &s)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(enginerr.ErrRegistryUnavailable, "[boltregistry.Enumerate] reading accounts: %v", err)
	}
	return out, nil
}

func (r *Registry) LastActive() (*session.AccountSession, error) {
	var active *session.AccountSession

	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(metaBucket).Get(lastActiveKey)
		if id == nil {
			return nil
		}
		value := tx.Bucket(accountsBucket).Get(id)
		if value == nil {
			// Pointer names a deleted record; treat as unset so the
			// caller's auto-select can repair it.
			return nil
		}
		active = &session.AccountSession{}
		return json.Unmarshal(value, active)
	})
	if err != nil {
		return nil, errors.Wrapf(enginerr.ErrRegistryUnavailable, "[boltregistry.LastActive] reading pointer: %v", err)
	}
	return active, nil
}

func (r *Registry) SetLastActive(id string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(lastActiveKey, []byte(id))
	})
	return errors.Wrap(err, "[boltregistry.SetLastActive] writing pointer")
}

func (r *Registry) Add(identity session.AccountIdentity, authorization session.Authorization, meta session.InstanceMeta, domain string) (*session.AccountSession, error) {
	now := r.nowTime()
	stored := &session.AccountSession{
		ID:            uuid.NewString(),
		Domain:        domain,
		Identity:      identity,
		Authorization: authorization,
		Instance:      meta,
		CreatedAt:     now,
		LastUsedAt:    now,
	}

	value, err := json.Marshal(stored)
	if err != nil {
		return nil, errors.Wrap(err, "[boltregistry.Add] encoding account")
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(accountsBucket).Put([]byte(stored.ID), value)
	})
	if err != nil {
		return nil, errors.Wrap(err, "[boltregistry.Add] writing account")
	}

	if err := r.SetLastActive(stored.ID); err != nil {
		return nil, err
	}
	return stored, nil
}
