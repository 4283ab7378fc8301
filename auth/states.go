package auth

// FlowState tracks where the login handshake currently is. States only
// move forward; Failed and Completed are terminal for the attempt (a new
// StartLogin resets to Registering).
type FlowState int

const (
	// Idle means no login attempt has been made by this client instance.
	Idle FlowState = iota

	// Registering means dynamic app registration is in flight.
	Registering

	// AwaitingCallback means the browser has been handed the authorize
	// URL and the engine is waiting for the redirect, possibly across a
	// process restart.
	AwaitingCallback

	// Exchanging means the authorization code is being exchanged for a
	// token.
	Exchanging

	// VerifyingIdentity means the token works and the account behind it
	// is being confirmed.
	VerifyingIdentity

	// Completed means the account has been registered with the session
	// manager.
	Completed

	// Failed means the attempt ended in an error surfaced to the caller.
	Failed
)

func (s FlowState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Registering:
		return "registering"
	case AwaitingCallback:
		return "awaiting_callback"
	case Exchanging:
		return "exchanging"
	case VerifyingIdentity:
		return "verifying_identity"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}
