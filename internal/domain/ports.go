package domain

import "context"

// CancelFunc releases a subscription. Implementations must be idempotent.
type CancelFunc func()

// AdminRegistry is the name of the registry collection holding admin
// privilege entries.
const AdminRegistry = "admins"

// RegistryFieldIsAdmin is the privilege flag inside a registry entry.
const RegistryFieldIsAdmin = "isAdmin"

// RecordStore is the external system of record for verification records.
// Any document database with change-notification support qualifies; the
// in-tree implementations are an in-memory store and a postgres store with
// a LISTEN/NOTIFY change feed.
type RecordStore interface {
	// Subscribe registers fn to receive the full current set of records
	// now and again after every change, in the order the store emits
	// change notifications. The returned CancelFunc stops deliveries.
	Subscribe(ctx context.Context, fn func(records []RawRecord)) (CancelFunc, error)

	// Update merges the given fields into the record. Omitted fields are
	// left unchanged.
	Update(ctx context.Context, ownerID string, fields map[string]any) error

	// Delete removes the record entirely.
	Delete(ctx context.Context, ownerID string) error

	// GetRegistryEntry reads one entry from a separate registry
	// collection. The second return is false when the entry is absent.
	GetRegistryEntry(ctx context.Context, registry, id string) (map[string]any, bool, error)

	// SetRegistryEntry writes one entry into a registry collection. Used
	// only by the admin bootstrap path.
	SetRegistryEntry(ctx context.Context, registry, id string, fields map[string]any) error
}

// ObjectHandle identifies one stored blob.
type ObjectHandle struct {
	// Path is the full object path, e.g. users/u1/documents/passport.jpg.
	Path string
	// Name is the final path element.
	Name string
}

// BlobStore is the external system holding uploaded evidence files.
type BlobStore interface {
	// List returns handles for every object under the path prefix.
	List(ctx context.Context, prefix string) ([]ObjectHandle, error)

	// AccessURL issues a time-limited access URL for one object.
	AccessURL(ctx context.Context, handle ObjectHandle) (string, error)

	// DeleteObject removes one object.
	DeleteObject(ctx context.Context, handle ObjectHandle) error
}

// Principal is an authenticated identity attempting to use the console.
type Principal struct {
	UID   string
	Email string
	// Credential is the opaque token the identity provider issued.
	Credential string
}

// IdentityProvider is the external authentication system.
type IdentityProvider interface {
	// SignIn authenticates credentials and establishes a session.
	SignIn(ctx context.Context, email, password string) (Principal, error)

	// SignOut revokes the current session.
	SignOut(ctx context.Context) error

	// OnSessionChange registers fn to be invoked when a session appears
	// (signedIn true) or disappears. Used for ambient session restoration.
	OnSessionChange(fn func(principal Principal, signedIn bool)) CancelFunc
}
