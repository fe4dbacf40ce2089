package auth

import "context"

type contextKey struct{}

// AuthContext carries the authenticated caller through a request. Email is
// the account email of the signed-in user; core operations receive the
// actor explicitly rather than reading any global session state.
type AuthContext struct {
	UserID    int64
	Email     string
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// Email returns the authenticated user's email, or "" for anonymous
// requests.
func Email(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Email
}
