package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kingxl111/search-engine/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a unique ID, propagates it through the
// context for logging, and echoes it in the response header. An incoming
// X-Request-ID is honored so IDs survive proxies.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := logger.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
