package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// UserKey is the context key for user identifiers.
	UserKey contextKey = "user"

	// DepartmentKey is the context key for department identifiers.
	DepartmentKey contextKey = "department"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithUser adds a user identifier to the context.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser retrieves the user identifier from the context.
func GetUser(ctx context.Context) string {
	if user, ok := ctx.Value(UserKey).(string); ok {
		return user
	}
	return ""
}

// WithDepartment adds a department identifier to the context.
func WithDepartment(ctx context.Context, department string) context.Context {
	return context.WithValue(ctx, DepartmentKey, department)
}

// GetDepartment retrieves the department identifier from the context.
func GetDepartment(ctx context.Context) string {
	if dept, ok := ctx.Value(DepartmentKey).(string); ok {
		return dept
	}
	return ""
}
