package middleware

import (
	"net/http"

	"github.com/rpattn/vendorfair/internal/auth"
)

// OperatorMiddleware copies the operator header into the request context.
func OperatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name := r.Header.Get(auth.OperatorHeader); name != "" {
			r = r.WithContext(auth.ContextWithOperator(r.Context(), name))
		}
		next.ServeHTTP(w, r)
	})
}
