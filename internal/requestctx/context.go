// Package requestctx carries per-request correlation data through context.Context.
// The HTTP layer populates it once per request; use cases read the start time and
// endpoint from it so that every timestamp of a request is identical.
package requestctx

import (
	"context"
	"time"
)

// requestKey is a context key type for storing request information.
type requestKey struct{}

// Info describes the request currently being served.
type Info struct {
	// ID is the correlation id, echoed in the x-ms-request-id header.
	ID string
	// StartTime is the instant the request was accepted.
	StartTime time.Time
	// Endpoint is the externally visible vault base URL (scheme://host[:port]).
	Endpoint string
	// APIVersion is the api-version query parameter sent by the client.
	APIVersion string
}

// WithInfo stores request information in the context.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, requestKey{}, info)
}

// GetInfo retrieves request information from the context.
// Returns (info, true) if present, or a zero Info and false if no information was set.
func GetInfo(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(requestKey{}).(Info)
	return info, ok
}

// RequestID returns the correlation id stored in the context, or an empty string.
func RequestID(ctx context.Context) string {
	info, _ := GetInfo(ctx)
	return info.ID
}
