package auth

import "context"

// Identity is the caller as established by the trusted layer in front of this service.
type Identity struct {
	Username  string
	SessionID string
}

// AuthResult is what a successful authentication yields for downstream handlers.
type AuthResult struct {
	Username            string
	UpstreamAccessToken string
	RoleID              string
	OrgCode             string
}

// AuthContext is attached to a request once its session has been arbitrated.
type AuthContext struct {
	AuthResult
	SessionID           string
	IsConcurrentSession bool
}

type contextKey int

const (
	identityKey contextKey = iota
	authContextKey
)

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

func AuthContextFrom(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*AuthContext)
	return ac, ok && ac != nil
}
