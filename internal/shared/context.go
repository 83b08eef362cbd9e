package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the request session to ctx. The session
// middleware is the only writer.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the request session, or nil on the
// anonymous surface where no session middleware runs.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
