package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/kreaite/studio-core/pkg/requestid"
)

// RequestID takes the request ID from the x-request-id header, or from Chi's
// built-in middleware if one was already generated, or mints a new UUID, and
// injects it into the request context for the rest of the stack.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("x-request-id")
		if reqID == "" {
			reqID = middleware.GetReqID(r.Context())
		}
		if reqID == "" {
			reqID = requestid.Generate()
		}

		w.Header().Set("x-request-id", reqID)
		r = r.WithContext(requestid.ToContext(r.Context(), reqID))

		next.ServeHTTP(w, r)
	})
}
