package types

import "context"

// ContextKey is the typed key used for request-scoped values.
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
)

// SetRequestID returns a child context carrying the request id.
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

// GetRequestID returns the request id from the context, or "" if absent.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(CtxRequestID).(string); ok {
		return v
	}
	return ""
}
