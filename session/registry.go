package session

// AccountSessionRegistry is the durable store of completed logins. It is
// injected into the Manager rather than reached through a process-wide
// singleton so reconciliation stays testable against a fake.
//
// Entries are immutable once written; updates replace a record wholesale.
// The engine is the only writer.
type AccountSessionRegistry interface {
	// Enumerate returns every stored account session.
	Enumerate() ([]*AccountSession, error)

	// LastActive returns the account the "last active" pointer names, or
	// nil when the pointer is unset.
	LastActive() (*AccountSession, error)

	// SetLastActive points the registry at the given record id.
	SetLastActive(id string) error

	// Add stores a freshly completed login, points the registry at it and
	// returns the stored session.
	Add(identity AccountIdentity, authorization Authorization, meta InstanceMeta, domain string) (*AccountSession, error)
}
