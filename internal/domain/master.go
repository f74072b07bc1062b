package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rpattn/vendorfair/internal/table"
	"github.com/rpattn/vendorfair/internal/textnorm"
)

// Canonical master column labels. Lookups go through normalized headers, so
// files with different accents, case or punctuation still resolve.
const (
	ColSequence          = "N°"
	ColEntryDate         = "Fecha de Ingreso"
	ColDocument          = "Documento"
	ColSubject           = "Asunto"
	ColName              = "Nombre"
	ColDNI               = "DNI"
	ColAddress           = "Dirección"
	ColCategory          = "Rubro"
	ColRequestedLocation = "Ubicación Solicitada"
	ColPhone             = "Teléfono"
	ColStatus            = "Estado"
	ColCorrespondence    = "Correspondencia"
	ColPayment           = "Pago"
	ColReceipt           = "N° Recibo"
	ColAuthorization     = "Autorización"
	ColAuthorizationDate = "Fecha de Autorización"
	ColEventDates        = "Fecha del Evento"
	ColStall             = "N° Puesto"
)

// MasterColumns is the canonical file order of the master dataset.
var MasterColumns = []string{
	ColSequence,
	ColEntryDate,
	ColDocument,
	ColSubject,
	ColName,
	ColDNI,
	ColAddress,
	ColCategory,
	ColRequestedLocation,
	ColPhone,
	ColStatus,
	ColCorrespondence,
	ColPayment,
	ColReceipt,
	ColAuthorization,
	ColAuthorizationDate,
	ColEventDates,
	ColStall,
}

// Status is the approval state of an inscription.
type Status string

const (
	StatusPending  Status = "PENDIENTE"
	StatusApproved Status = "APROBADO"
	StatusRejected Status = "RECHAZADO"
)

// ParseStatus maps free text onto a known status. Unknown text is kept
// upper-cased so it survives a rewrite.
func ParseStatus(text string) Status {
	switch textnorm.NormalizeHeader(text) {
	case "":
		return ""
	case "pendiente", "pending":
		return StatusPending
	case "aprobado", "approved":
		return StatusApproved
	case "rechazado", "rejected":
		return StatusRejected
	default:
		return Status(strings.ToUpper(strings.TrimSpace(text)))
	}
}

// Payment is a money amount that may have been typed as free text.
type Payment struct {
	Amount decimal.Decimal `json:"amount"`
	Valid  bool            `json:"valid"`
	Raw    string          `json:"raw,omitempty"`
}

// NewPayment parses text, keeping it verbatim when it is not a number.
func NewPayment(text string) Payment {
	text = strings.TrimSpace(text)
	amount, ok := textnorm.ToNumberMaybe(text)
	if !ok {
		return Payment{Raw: text}
	}
	return Payment{Amount: amount, Valid: true}
}

// String renders the payment cell.
func (p Payment) String() string {
	if p.Raw != "" {
		return p.Raw
	}
	if p.Valid {
		return p.Amount.String()
	}
	return ""
}

// MasterRecord is one vendor inscription of the master dataset. Text fields
// hold the cell values verbatim so an unchanged row rewrites identically.
type MasterRecord struct {
	Sequence          int     `json:"sequence"`
	EntryDate         string  `json:"entry_date"`
	Document          string  `json:"document"`
	Subject           string  `json:"subject"`
	Name              string  `json:"name"`
	DNI               string  `json:"dni"`
	Address           string  `json:"address"`
	Category          string  `json:"category"`
	RequestedLocation string  `json:"requested_location"`
	Phone             string  `json:"phone"`
	Status            Status  `json:"status"`
	Correspondence    string  `json:"correspondence"`
	Payment           Payment `json:"payment"`
	Receipt           string  `json:"receipt"`
	Authorization     string  `json:"authorization"`
	AuthorizationDate string  `json:"authorization_date"`
	EventDates        string  `json:"event_dates"`
	Stall             string  `json:"stall"`
}

// values returns the record keyed by canonical label.
func (r MasterRecord) values() map[string]string {
	sequence := ""
	if r.Sequence > 0 {
		sequence = strconv.Itoa(r.Sequence)
	}
	return map[string]string{
		ColSequence:          sequence,
		ColEntryDate:         r.EntryDate,
		ColDocument:          r.Document,
		ColSubject:           r.Subject,
		ColName:              r.Name,
		ColDNI:               r.DNI,
		ColAddress:           r.Address,
		ColCategory:          r.Category,
		ColRequestedLocation: r.RequestedLocation,
		ColPhone:             r.Phone,
		ColStatus:            string(r.Status),
		ColCorrespondence:    r.Correspondence,
		ColPayment:           r.Payment.String(),
		ColReceipt:           r.Receipt,
		ColAuthorization:     r.Authorization,
		ColAuthorizationDate: r.AuthorizationDate,
		ColEventDates:        r.EventDates,
		ColStall:             r.Stall,
	}
}

// MasterRecordsFromTable decodes every row. Absent columns decode as empty
// values; a non-numeric sequence decodes as 0.
func MasterRecordsFromTable(t table.Table) []MasterRecord {
	index := table.NewHeaderIndex(t.Headers)
	cols := make(map[string]int, len(MasterColumns))
	for _, label := range MasterColumns {
		if idx, ok := index.Lookup(label); ok {
			cols[label] = idx
		} else {
			cols[label] = -1
		}
	}

	records := make([]MasterRecord, 0, t.Len())
	for row := range t.Rows {
		get := func(label string) string {
			return t.Cell(row, cols[label])
		}
		records = append(records, MasterRecord{
			Sequence:          ParseSequence(get(ColSequence)),
			EntryDate:         get(ColEntryDate),
			Document:          get(ColDocument),
			Subject:           get(ColSubject),
			Name:              get(ColName),
			DNI:               CanonicalID(get(ColDNI)),
			Address:           get(ColAddress),
			Category:          get(ColCategory),
			RequestedLocation: get(ColRequestedLocation),
			Phone:             get(ColPhone),
			Status:            ParseStatus(get(ColStatus)),
			Correspondence:    get(ColCorrespondence),
			Payment:           NewPayment(get(ColPayment)),
			Receipt:           get(ColReceipt),
			Authorization:     get(ColAuthorization),
			AuthorizationDate: get(ColAuthorizationDate),
			EventDates:        get(ColEventDates),
			Stall:             get(ColStall),
		})
	}
	return records
}

// AppendMaster adds rec to a copy of t, laid out by t's own headers.
// Canonical columns missing from t are appended to its header row first, so
// existing rows are never rewritten.
func AppendMaster(t table.Table, rec MasterRecord) table.Table {
	out := t.Clone()
	if len(out.Headers) == 0 {
		out.Headers = append([]string(nil), MasterColumns...)
	}
	index := table.NewHeaderIndex(out.Headers)
	for _, label := range MasterColumns {
		if _, ok := index.Lookup(label); !ok {
			out.Headers = append(out.Headers, label)
		}
	}
	for i := range out.Rows {
		for len(out.Rows[i]) < len(out.Headers) {
			out.Rows[i] = append(out.Rows[i], "")
		}
	}

	index = table.NewHeaderIndex(out.Headers)
	row := make([]string, len(out.Headers))
	for label, value := range rec.values() {
		if idx, ok := index.Lookup(label); ok {
			row[idx] = value
		}
	}
	out.Append(row)
	return out
}

// ParseSequence reads a sequence cell, accepting spreadsheet renderings such
// as "7.0". Anything else is 0.
func ParseSequence(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	if n, err := strconv.Atoi(text); err == nil && n > 0 {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f > 0 && f == float64(int(f)) {
		return int(f)
	}
	return 0
}

var floatArtifact = regexp.MustCompile(`^(\d+)\.0+$`)

// CanonicalID normalizes a national ID cell. Leading zeros are kept, inner
// spaces removed and the ".0" suffix left by numeric spreadsheet cells is
// dropped, as is an exponent rendering of an integral number.
func CanonicalID(text string) string {
	id := strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	if id == "" {
		return ""
	}
	if m := floatArtifact.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	if strings.ContainsAny(id, "eE") {
		if f, err := strconv.ParseFloat(id, 64); err == nil && f > 0 && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return id
}
