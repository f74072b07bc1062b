// Package registration appends new vendor inscriptions to the master dataset.
package registration

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/eventdays"
	"github.com/rpattn/vendorfair/internal/textnorm"
)

// DefaultPhoneRegion is used when no region is configured.
const DefaultPhoneRegion = "PE"

// Form is a registration as submitted by the office.
type Form struct {
	EntryDate         string `json:"fecha_ingreso"`
	Document          string `json:"documento"`
	Subject           string `json:"asunto"`
	Name              string `json:"nombre" validate:"required"`
	DNI               string `json:"dni" validate:"required"`
	Address           string `json:"direccion"`
	Category          string `json:"rubro"`
	RequestedLocation string `json:"ubicacion_solicitada"`
	Phone             string `json:"telefono"`
	Status            string `json:"estado"`
	Correspondence    string `json:"correspondencia"`
	Payment           string `json:"pago" validate:"required"`
	Receipt           string `json:"n_recibo" validate:"required"`
	Authorization     string `json:"autorizacion"`
	AuthorizationDate string `json:"fecha_autorizacion"`
	EventDay1         string `json:"fecha_evento_1"`
	EventDay2         string `json:"fecha_evento_2"`
	Stall             string `json:"n_puesto"`
}

func (f Form) trimmed() Form {
	v := reflect.ValueOf(&f).Elem()
	for i := 0; i < v.NumField(); i++ {
		if field := v.Field(i); field.Kind() == reflect.String {
			field.SetString(strings.TrimSpace(field.String()))
		}
	}
	return f
}

// Builder turns forms into master records.
type Builder struct {
	validate *validator.Validate
	region   string
}

// NewBuilder returns a builder formatting phone numbers for region.
func NewBuilder(region string) *Builder {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultPhoneRegion
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Builder{validate: v, region: region}
}

// Build validates form and assembles the record carrying sequence number seq.
// Empty required fields fail with a *domain.ValidationError naming each of
// them by their form key.
func (b *Builder) Build(form Form, seq int, now time.Time) (domain.MasterRecord, error) {
	form = form.trimmed()
	if err := b.validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return domain.MasterRecord{}, err
		}
		missing := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			missing = append(missing, fe.Field())
		}
		return domain.MasterRecord{}, &domain.ValidationError{Missing: missing}
	}

	entryDate := textnorm.FormatDate(now)
	if parsed, ok := textnorm.ParsePossibleDate(form.EntryDate); ok {
		entryDate = textnorm.FormatDate(parsed)
	}

	status := domain.ParseStatus(form.Status)
	if status == "" {
		status = domain.StatusPending
	}

	return domain.MasterRecord{
		Sequence:          seq,
		EntryDate:         entryDate,
		Document:          form.Document,
		Subject:           form.Subject,
		Name:              strings.ToUpper(form.Name),
		DNI:               domain.CanonicalID(form.DNI),
		Address:           form.Address,
		Category:          strings.ToUpper(form.Category),
		RequestedLocation: form.RequestedLocation,
		Phone:             b.formatPhone(form.Phone),
		Status:            status,
		Correspondence:    form.Correspondence,
		Payment:           domain.NewPayment(form.Payment),
		Receipt:           form.Receipt,
		Authorization:     form.Authorization,
		AuthorizationDate: form.AuthorizationDate,
		EventDates:        joinEventDays(form.EventDay1, form.EventDay2),
		Stall:             form.Stall,
	}, nil
}

// formatPhone renders valid numbers as E.164 and keeps anything else as typed.
func (b *Builder) formatPhone(raw string) string {
	if raw == "" {
		return ""
	}
	p, err := libphonenumber.Parse(raw, b.region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return raw
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}

func joinEventDays(first, second string) string {
	day1, ok1 := textnorm.ParsePossibleDate(first)
	day2, ok2 := textnorm.ParsePossibleDate(second)
	switch {
	case ok1 && ok2:
		d1, d2 := textnorm.DateOnly(day1), textnorm.DateOnly(day2)
		if d2.Before(d1) {
			d1, d2 = d2, d1
		}
		if d1.Equal(d2) {
			return eventdays.Join(d1, nil)
		}
		return eventdays.Join(d1, &d2)
	case ok1:
		return eventdays.Join(textnorm.DateOnly(day1), nil)
	case ok2:
		return eventdays.Join(textnorm.DateOnly(day2), nil)
	default:
		return ""
	}
}

// NextSequenceNumber is one past the largest sequence in records, or 1 when
// none is numeric.
func NextSequenceNumber(records []domain.MasterRecord) int {
	highest := 0
	for _, rec := range records {
		if rec.Sequence > highest {
			highest = rec.Sequence
		}
	}
	return highest + 1
}
