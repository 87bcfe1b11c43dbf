package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	organizationIDKey contextKey = "organization_id"
	userIDKey         contextKey = "user_id"
)

// WithRequester stores the caller's organization and user in ctx.
func WithRequester(ctx context.Context, orgID, userID uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, organizationIDKey, orgID)
	return context.WithValue(ctx, userIDKey, userID)
}

func GetOrganizationID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(organizationIDKey).(uuid.UUID)
	return id, ok
}

func GetUserID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(userIDKey).(uuid.UUID)
	return id, ok
}
