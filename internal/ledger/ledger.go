// Package ledger keeps the verification ledger: one record per identity and
// event day, overwritten in place on every save.
package ledger

import (
	"time"

	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/table"
	"github.com/rpattn/vendorfair/internal/textnorm"
)

// Ledger file columns, in file order.
const (
	ColDNI            = "dni"
	ColEventDay       = "fecha_evento_dia"
	ColStallCode      = "puesto_codigo"
	ColInCorrectStall = "en_puesto_correcto"
	ColVoucherOK      = "voucher_ok"
	ColObservation    = "observacion"
	ColEvidence       = "archivo_nombre"
	ColTimestamp      = "timestamp"
)

// Columns is the header row of the ledger file.
var Columns = []string{
	ColDNI,
	ColEventDay,
	ColStallCode,
	ColInCorrectStall,
	ColVoucherOK,
	ColObservation,
	ColEvidence,
	ColTimestamp,
}

// TimestampLayout is how save times are written to the ledger file.
const TimestampLayout = "2006-01-02 15:04:05"

// Upsert stores rec under its (identity, day) key. An existing record with
// the same key has every non-key field replaced where it stands; otherwise
// rec is appended. Either way the stored timestamp is now. The returned flag
// reports whether an existing record was replaced.
func Upsert(records []domain.VerificationRecord, rec domain.VerificationRecord, now time.Time) ([]domain.VerificationRecord, bool) {
	key := rec.Key()
	rec.DNI = key.DNI
	rec.EventDay = key.Day
	rec.Timestamp = now

	for i := range records {
		if records[i].Key() != key {
			continue
		}
		current := &records[i]
		current.StallCode = rec.StallCode
		current.InCorrectStall = rec.InCorrectStall
		current.VoucherOK = rec.VoucherOK
		current.Observation = rec.Observation
		current.EvidenceFileName = rec.EvidenceFileName
		current.Timestamp = now
		return records, true
	}
	return append(records, rec), false
}

// Index maps keys to records. Later duplicates, which only a hand-edited
// file can hold, shadow earlier ones.
func Index(records []domain.VerificationRecord) map[domain.VerificationKey]domain.VerificationRecord {
	index := make(map[domain.VerificationKey]domain.VerificationRecord, len(records))
	for _, rec := range records {
		index[rec.Key()] = rec
	}
	return index
}

// FromTable decodes the ledger file. Rows without identity or a parseable
// day cannot be keyed and are skipped. A missing column is a
// *table.MissingColumnError.
func FromTable(t table.Table) ([]domain.VerificationRecord, error) {
	cols, err := table.NewHeaderIndex(t.Headers).Require(Columns...)
	if err != nil {
		return nil, err
	}
	records, _ := decode(t, cols)
	return records, nil
}

// UpsertTable applies Upsert to the ledger file itself. Only the row holding
// rec's key is rewritten, or one row is appended; rows that cannot be keyed
// and columns outside Columns are left exactly as they were. The stored
// record is returned together with the replaced flag.
func UpsertTable(t table.Table, rec domain.VerificationRecord, now time.Time) (table.Table, domain.VerificationRecord, bool, error) {
	cols, err := table.NewHeaderIndex(t.Headers).Require(Columns...)
	if err != nil {
		return table.Table{}, domain.VerificationRecord{}, false, err
	}

	records, positions := decode(t, cols)
	records, replaced := Upsert(records, rec, now)

	out := t.Clone()
	if !replaced {
		stored := records[len(records)-1]
		cells := recordCells(stored)
		row := make([]string, len(out.Headers))
		for i, label := range Columns {
			row[cols[label]] = cells[i]
		}
		out.Append(row)
		return out, stored, false, nil
	}

	key := rec.Key()
	for i, current := range records {
		if current.Key() != key {
			continue
		}
		cells := recordCells(current)
		r := positions[i]
		row := padTo(out.Rows[r], len(out.Headers))
		for c, label := range Columns {
			// Key cells keep the text they were typed with.
			if label == ColDNI || label == ColEventDay {
				continue
			}
			row[cols[label]] = cells[c]
		}
		out.Rows[r] = row
		return out, current, true, nil
	}
	return out, rec, true, nil
}

// decode reads every keyable row, returning the records with the table row
// each came from.
func decode(t table.Table, cols map[string]int) ([]domain.VerificationRecord, []int) {
	records := make([]domain.VerificationRecord, 0, t.Len())
	positions := make([]int, 0, t.Len())
	for r := range t.Rows {
		key, ok := rowKey(t, r, cols)
		if !ok {
			continue
		}
		get := func(label string) string {
			return t.Cell(r, cols[label])
		}
		rec := domain.VerificationRecord{
			DNI:              key.DNI,
			EventDay:         key.Day,
			StallCode:        get(ColStallCode),
			InCorrectStall:   domain.ParseBool(get(ColInCorrectStall)),
			VoucherOK:        domain.ParseBool(get(ColVoucherOK)),
			Observation:      get(ColObservation),
			EvidenceFileName: get(ColEvidence),
		}
		if ts, err := time.ParseInLocation(TimestampLayout, get(ColTimestamp), time.Local); err == nil {
			rec.Timestamp = ts
		} else if ts, ok := textnorm.ParsePossibleDate(get(ColTimestamp)); ok {
			rec.Timestamp = ts
		}
		records = append(records, rec)
		positions = append(positions, r)
	}
	return records, positions
}

// Canonical lays the ledger file out in Columns order, keeping every row as
// written, including rows that cannot be keyed.
func Canonical(t table.Table) (table.Table, error) {
	if _, err := table.NewHeaderIndex(t.Headers).Require(Columns...); err != nil {
		return table.Table{}, err
	}
	return table.Project(t, Columns), nil
}

func rowKey(t table.Table, r int, cols map[string]int) (domain.VerificationKey, bool) {
	dni := domain.CanonicalID(t.Cell(r, cols[ColDNI]))
	day, ok := textnorm.ParsePossibleDate(t.Cell(r, cols[ColEventDay]))
	if dni == "" || !ok {
		return domain.VerificationKey{}, false
	}
	return domain.NewVerificationKey(dni, day), true
}

// recordCells renders rec in Columns order.
func recordCells(rec domain.VerificationRecord) []string {
	ts := ""
	if !rec.Timestamp.IsZero() {
		ts = rec.Timestamp.Format(TimestampLayout)
	}
	return []string{
		rec.DNI,
		textnorm.FormatDate(rec.EventDay),
		rec.StallCode,
		domain.FormatBool(rec.InCorrectStall),
		domain.FormatBool(rec.VoucherOK),
		rec.Observation,
		rec.EvidenceFileName,
		ts,
	}
}

func padTo(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
