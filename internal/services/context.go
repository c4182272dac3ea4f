package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	endpointKey  contextKey = "endpoint"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithEndpoint annotates context with the API endpoint serving the request.
func WithEndpoint(ctx context.Context, endpoint string) context.Context {
	if endpoint == "" {
		return ctx
	}
	return context.WithValue(ctx, endpointKey, endpoint)
}

// EndpointFromContext returns the endpoint name if present.
func EndpointFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(endpointKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
