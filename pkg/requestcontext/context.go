// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by transport middleware and consumed by services. Keeping
// this package free of net/http lets services import only what they need.
package requestcontext

import "context"

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyActor
)

// WithRequestID attaches a request correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID returns the request correlation id, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithActor attaches the authenticated admin acting on this request.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, keyActor, actor)
}

// Actor returns the acting admin identity, or "" when absent.
func Actor(ctx context.Context) string {
	v, _ := ctx.Value(keyActor).(string)
	return v
}
