package domain

import (
	"strings"
	"time"

	"github.com/rpattn/vendorfair/internal/textnorm"
)

// VerificationRecord is a field check of one vendor on one event day.
type VerificationRecord struct {
	DNI              string    `json:"dni"`
	EventDay         time.Time `json:"fecha_evento_dia"`
	StallCode        string    `json:"puesto_codigo"`
	InCorrectStall   bool      `json:"en_puesto_correcto"`
	VoucherOK        bool      `json:"voucher_ok"`
	Observation      string    `json:"observacion"`
	EvidenceFileName string    `json:"archivo_nombre"`
	Timestamp        time.Time `json:"timestamp"`
}

// Key is the natural key of the record.
func (v VerificationRecord) Key() VerificationKey {
	return NewVerificationKey(v.DNI, v.EventDay)
}

// VerificationKey identifies a verification by identity and calendar date.
type VerificationKey struct {
	DNI string
	Day time.Time
}

// NewVerificationKey canonicalizes the identity and drops the time of day.
func NewVerificationKey(dni string, day time.Time) VerificationKey {
	return VerificationKey{DNI: CanonicalID(dni), Day: textnorm.DateOnly(day)}
}

// String renders the key as "dni|YYYY-MM-DD".
func (k VerificationKey) String() string {
	return k.DNI + "|" + k.Day.Format("2006-01-02")
}

// ParseVerificationKey is the inverse of VerificationKey.String.
func ParseVerificationKey(text string) (VerificationKey, bool) {
	dni, day, found := strings.Cut(text, "|")
	if !found {
		return VerificationKey{}, false
	}
	parsed, err := time.Parse("2006-01-02", day)
	if err != nil {
		return VerificationKey{}, false
	}
	return NewVerificationKey(dni, parsed), true
}

// FormatBool renders a flag the way the ledger file stores it.
func FormatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// ParseBool reads a flag cell leniently; anything unrecognized is false.
func ParseBool(text string) bool {
	switch textnorm.NormalizeHeader(text) {
	case "true", "1", "yes", "y", "si", "s", "x", "verdadero":
		return true
	default:
		return false
	}
}
