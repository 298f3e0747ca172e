package auth

import "context"

// ActingUser is the identity attributed to the current request for
// audit-stamping purposes.
type ActingUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type actingUserKey struct{}

// WithActingUser returns a child context carrying the acting user. The value
// is immutable and request-scoped; interleaved requests never observe each
// other's identity.
func WithActingUser(ctx context.Context, user ActingUser) context.Context {
	return context.WithValue(ctx, actingUserKey{}, user)
}

// ActingUserFrom returns the acting user stored in ctx. Absence is reported
// via the bool; callers must tolerate it and leave audit fields unset.
func ActingUserFrom(ctx context.Context) (ActingUser, bool) {
	user, ok := ctx.Value(actingUserKey{}).(ActingUser)
	return user, ok
}
