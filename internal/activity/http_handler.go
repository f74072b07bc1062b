package activity

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/vendorfair/internal/domain"
)

// NewHTTPHandler serves GET /activity?kind=&limit=.
func NewHTTPHandler(recorder *Recorder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		kind := domain.ActivityKind(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("kind"))))

		entries, err := recorder.Recent(r.Context(), kind, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(entries)
	})
}
