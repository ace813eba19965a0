package shared

import "context"

// Identity is the security context resolved for a request: the principal
// and the flattened authority set computed at authentication time.
type Identity struct {
	PrincipalID int64    `json:"principal_id"`
	Email       string   `json:"email"`
	Authorities []string `json:"authorities"`
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the resolved identity from context.
// It returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
