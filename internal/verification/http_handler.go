package verification

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/table"
)

// NewSearchHandler serves GET /vendors?q=.
func NewSearchHandler(service *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		candidates, err := service.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, candidates)
	})
}

// Handler serves GET and POST /verifications.
type Handler struct {
	service *Service
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleSave(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	input := Input{
		DNI:            r.FormValue("dni"),
		EventDay:       r.FormValue("fecha_evento_dia"),
		StallCode:      r.FormValue("puesto_codigo"),
		InCorrectStall: domain.ParseBool(r.FormValue("en_puesto_correcto")),
		VoucherOK:      domain.ParseBool(r.FormValue("voucher_ok")),
		Observation:    r.FormValue("observacion"),
	}

	// Only the evidence file name is kept; its bytes are drained and dropped.
	file, header, err := r.FormFile("evidencia")
	switch {
	case err == nil:
		defer file.Close()
		_, _ = io.Copy(io.Discard, file)
		input.EvidenceFileName = header.Filename
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		http.Error(w, fmt.Sprintf("invalid evidence file: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.service.Save(r.Context(), input)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func statusFor(err error) int {
	var missing *table.MissingColumnError
	switch {
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrMissingIdentity), errors.Is(err, ErrInvalidEventDay):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownEventDay):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
