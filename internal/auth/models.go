package auth

import (
	"time"

	"smartkyc/internal/domain"
)

// State is the gate's position in the authorization lifecycle. The
// privilege check is a named state, not an implicit race: while
// PrivilegeCheckPending no directory subscription starts and no cached
// directory state is exposed.
type State string

const (
	StateUnauthenticated       State = "unauthenticated"
	StateAuthenticating        State = "authenticating"
	StatePrivilegeCheckPending State = "privilege_check_pending"
	StateAuthorized            State = "authorized"
	StateDenied                State = "denied"
)

// Session binds one authorized principal to the lifetime of the directory
// subscription and evidence cache.
type Session struct {
	ID        string
	Principal domain.Principal
	StartedAt time.Time
}
