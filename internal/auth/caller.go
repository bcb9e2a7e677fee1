package auth

import "context"

// Caller is the identity a request acts as.
// A Caller with no subject is anonymous: it can only read public taxonomies.
type Caller struct {
	Subject string
	Grants  []Grant
	Admin   bool
}

// Anonymous returns a caller without grants.
func Anonymous() *Caller {
	return &Caller{}
}

// IsAnonymous reports whether the caller presented no valid token.
func (c *Caller) IsAnonymous() bool {
	return c.Subject == ""
}

type callerKey struct{}

// WithCaller stores the caller in the context.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller stored in ctx, or nil when there is none.
func CallerFromContext(ctx context.Context) *Caller {
	c, _ := ctx.Value(callerKey{}).(*Caller)
	return c
}
