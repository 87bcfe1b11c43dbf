package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func JobLoadingStatusKey(id uuid.UUID) string {
	return fmt.Sprintf("jobloading:status:%s", id)
}

// RateLimitKey is the per-organization request counter for the current window.
func RateLimitKey(orgID uuid.UUID) string {
	return fmt.Sprintf("ratelimit:org:%s", orgID)
}
