package middlewares

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bookbay/storefront/internal/pkg/clientmeta"
)

// AttachClientMetadata puts the caller's session ID and Authorization header
// into the request context so downstream layers can forward them to the
// backend. A request without a session gets a fresh one, echoed back in the
// response so the storefront can persist it.
func AttachClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(clientmeta.HeaderXSessionID)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		w.Header().Set(clientmeta.HeaderXSessionID, sessionID)

		ctx := clientmeta.WithSessionID(r.Context(), sessionID)
		if auth := r.Header.Get(clientmeta.HeaderAuthorization); auth != "" {
			ctx = clientmeta.WithAuthorization(ctx, auth)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
