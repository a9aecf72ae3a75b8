package auth

import "context"

// Identity is the verified caller of a request.
type Identity struct {
	UserID string
}

// IsZero reports whether the identity carries no user.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// Is reports whether the identity belongs to userID.
func (i Identity) Is(userID string) bool {
	return !i.IsZero() && i.UserID == userID
}

type identityKey struct{}

// WithIdentity stores the verified caller on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by the auth gate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}
