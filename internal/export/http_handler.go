package export

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/vendorfair/internal/table"
)

const (
	csvPath  = "/verificaciones.csv"
	xlsxPath = "/feria.xlsx"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	service *Service
}

// NewHTTPHandler serves GET .../verificaciones.csv and GET .../feria.xlsx.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method != http.MethodGet:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	case strings.HasSuffix(r.URL.Path, csvPath):
		h.handleCSV(w, r)
	case strings.HasSuffix(r.URL.Path, xlsxPath):
		h.handleWorkbook(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.service.WriteVerificationsCSV(r.Context(), &buf); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeDownload(w, "text/csv; charset=utf-8", h.service.FileName("verificaciones", "csv"), buf.Bytes())
}

func (h *Handler) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.service.WriteWorkbook(r.Context(), &buf); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeDownload(w, xlsxContentType, h.service.FileName("feria", "xlsx"), buf.Bytes())
}

// Files are rendered to memory first so a failure can still produce an error
// status instead of a truncated download.
func writeDownload(w http.ResponseWriter, contentType, fileName string, payload []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func statusFor(err error) int {
	var missing *table.MissingColumnError
	if errors.As(err, &missing) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
