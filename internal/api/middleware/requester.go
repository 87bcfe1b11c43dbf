package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/jobloader/internal/api/response"
)

// Headers set by the upstream gateway after it has authenticated the caller.
const (
	HeaderOrganizationID = "X-Organization-ID"
	HeaderUserID         = "X-User-ID"
)

// Requester reads the caller identity forwarded by the gateway and puts it in
// the request context. Requests without a valid identity get 401.
func Requester(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID, err := uuid.Parse(strings.TrimSpace(r.Header.Get(HeaderOrganizationID)))
		if err != nil || orgID == uuid.Nil {
			response.Error(w, http.StatusUnauthorized,
				"MISSING_REQUESTER", "Missing or invalid "+HeaderOrganizationID+" header", nil)
			return
		}
		userID, err := uuid.Parse(strings.TrimSpace(r.Header.Get(HeaderUserID)))
		if err != nil || userID == uuid.Nil {
			response.Error(w, http.StatusUnauthorized,
				"MISSING_REQUESTER", "Missing or invalid "+HeaderUserID+" header", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), orgID, userID)))
	})
}
