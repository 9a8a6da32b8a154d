package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/vin-jex/job-orchestrator/internal/observability"
)

// withRequestContext stamps each request with a request id and a logger
// scoped to it, so handlers can call observability.LoggerFromContext
// instead of threading s.logger through every call.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), observability.RequestIDKey(), requestID)
		ctx = observability.ContextWithLogger(ctx, s.logger.With("request_id", requestID))

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
