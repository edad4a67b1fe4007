package middleware

import "context"

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxRole       contextKey = "actor_role"
	ctxEducatorID contextKey = "educator_id"
)

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}

func withStringValue(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxUserID)
}

// RoleFromContext returns the actor role, or "".
func RoleFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRole)
}

// EducatorIDFromContext returns the educator id of the actor, or "".
func EducatorIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxEducatorID)
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withStringValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	return withStringValue(ctx, ctxRole, role)
}

// WithEducatorID injects the educator identifier into the context.
func WithEducatorID(ctx context.Context, educatorID string) context.Context {
	return withStringValue(ctx, ctxEducatorID, educatorID)
}
