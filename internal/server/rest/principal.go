package rest

import "context"

// Source tells which kind of token authenticated a request.
type Source string

const (
	SourceApp      Source = "app"
	SourceProvider Source = "provider"
)

// Principal is the authenticated caller. Handlers only ever see this, never
// the token it came from.
type Principal struct {
	UserID string
	Source Source
}

type ctxKey string

const principalKey ctxKey = "principal"

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored by the auth middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
