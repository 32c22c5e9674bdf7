package interfaces

import "rollcall/pkg/types"

// IdentityVerifier validates a bearer credential and yields the principal
// behind it. A failure means the connection or request must be rejected.
type IdentityVerifier interface {
	Verify(token string) (types.Identity, error)
}
