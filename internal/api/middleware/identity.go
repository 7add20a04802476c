package middleware

import "net/http"

// Authentication is an upstream concern; the edge terminates it and forwards
// an opaque user identity. Identity copies that identity into the request
// context, defaulting to "anonymous" when the header is absent.
const (
	userIDHeader    = "X-User-ID"
	anonymousUserID = "anonymous"
)

func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			userID = anonymousUserID
		}
		next.ServeHTTP(w, r.WithContext(SetUserID(r.Context(), userID)))
	})
}
