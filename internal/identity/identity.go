// Package identity defines who the application is acting for: an
// authenticated user or the guest sentinel. The identity decides which
// persistence backend a session binds to.
package identity

import "context"

// GuestID is the fixed sentinel id for the unauthenticated identity.
const GuestID = "guest"

// Identity is the current user or guest.
type Identity struct {
	ID         string
	Email      string
	IsLoggedIn bool
}

// Guest returns the guest sentinel identity.
func Guest() Identity {
	return Identity{ID: GuestID}
}

// Provider supplies identity-change notifications and sign-in/out. The core
// treats it as an opaque capability; it does not implement authentication.
type Provider interface {
	// SignIn authenticates and returns the resulting identity. Subscribers
	// are notified of the change.
	SignIn(ctx context.Context, email, password string) (Identity, error)

	// SignOut ends the authenticated session; subscribers are notified with
	// the guest identity.
	SignOut(ctx context.Context) error

	// Current returns the identity in effect, guest when none.
	Current(ctx context.Context) Identity

	// OnChange registers a callback invoked on every identity change.
	OnChange(fn func(Identity))
}
