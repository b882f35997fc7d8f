package interceptors

import (
	"context"
	"sync"
)

type contextKey struct{ name string }

var (
	userIDKey  = contextKey{"user_id"}
	tokenIDKey = contextKey{"token_id"}
	scopeKey   = contextKey{"request_scope"}
)

// WithIdentity returns a context with user_id and token_id set.
// Handlers and guards read these via GetUserID and GetTokenID.
func WithIdentity(ctx context.Context, userID, tokenID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, tokenIDKey, tokenID)
	return ctx
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetTokenID returns the jti of the access token from context and true if set; otherwise "", false.
func GetTokenID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenIDKey).(string)
	return v, ok
}

// requestScope carries values discovered while a request is handled (the team a
// guard resolved) back out to the middleware that wraps the handler.
type requestScope struct {
	mu       sync.Mutex
	clientIP string
	teamID   string
}

// WithRequestScope attaches a mutable scope for the current request.
func WithRequestScope(ctx context.Context, clientIP string) context.Context {
	return context.WithValue(ctx, scopeKey, &requestScope{clientIP: clientIP})
}

// SetTeamID records the team the request acts on. No-op without a request scope.
func SetTeamID(ctx context.Context, teamID string) {
	s, ok := ctx.Value(scopeKey).(*requestScope)
	if !ok {
		return
	}
	s.mu.Lock()
	s.teamID = teamID
	s.mu.Unlock()
}

// GetTeamID returns the team recorded by SetTeamID, if any.
func GetTeamID(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(scopeKey).(*requestScope)
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teamID, s.teamID != ""
}

// ClientIP returns the client IP stored on the request scope, or "unknown".
func ClientIP(ctx context.Context) string {
	if s, ok := ctx.Value(scopeKey).(*requestScope); ok && s.clientIP != "" {
		return s.clientIP
	}
	return "unknown"
}
