package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpattn/vendorfair/internal/table"
	"github.com/rpattn/vendorfair/internal/textnorm"
)

// DayRow is one master record seen on one of the event days it covers. It is
// a derived view and is never persisted as a dataset.
type DayRow struct {
	DNI           string              `json:"dni"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	Receipt       string              `json:"receipt"`
	Payment       decimal.NullDecimal `json:"payment"`
	EventDay      time.Time           `json:"event_day"`
	Document      string              `json:"document"`
	EntryDate     *time.Time          `json:"entry_date,omitempty"`
	CoversTwoDays bool                `json:"covers_two_days"`
	Stall         string              `json:"stall"`
}

// Key is the verification key of the row.
func (d DayRow) Key() VerificationKey {
	return NewVerificationKey(d.DNI, d.EventDay)
}

// DayColumns is the column order of the day view when exported.
var DayColumns = []string{
	"dni",
	"nombre",
	"rubro",
	"n_recibo",
	"pago",
	"fecha_evento_dia",
	"documento",
	"fecha_ingreso",
	"dos_dias",
	"n_puesto",
}

// DayTable renders rows for export.
func DayTable(rows []DayRow) table.Table {
	t := table.New(DayColumns)
	for _, row := range rows {
		payment := ""
		if row.Payment.Valid {
			payment = row.Payment.Decimal.String()
		}
		entry := ""
		if row.EntryDate != nil {
			entry = textnorm.FormatDate(*row.EntryDate)
		}
		t.Append([]string{
			row.DNI,
			row.Name,
			row.Category,
			row.Receipt,
			payment,
			textnorm.FormatDate(row.EventDay),
			row.Document,
			entry,
			FormatBool(row.CoversTwoDays),
			row.Stall,
		})
	}
	return t
}
