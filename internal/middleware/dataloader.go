package middleware

import (
	"net/http"

	"github.com/rpattn/vendorfair/internal/ledgerloader"
)

// DataLoaderMiddleware attaches a fresh ledger loader to each request so its
// cache never outlives the request.
func DataLoaderMiddleware(reader ledgerloader.Reader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := ledgerloader.NewLedgerLoader(reader)
			ctx := ledgerloader.WithLoader(r.Context(), loader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
