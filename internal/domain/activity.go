package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityKind names the write that produced an activity entry.
type ActivityKind string

const (
	ActivityRegistration ActivityKind = "REGISTRATION"
	ActivityVerification ActivityKind = "VERIFICATION"
	ActivityImport       ActivityKind = "IMPORT"
)

// ActivityEntry is one audited write against the datasets.
type ActivityEntry struct {
	ID        uuid.UUID    `json:"id"`
	Kind      ActivityKind `json:"kind"`
	DNI       string       `json:"dni,omitempty"`
	Operator  string       `json:"operator,omitempty"`
	EventDay  *time.Time   `json:"event_day,omitempty"`
	Detail    string       `json:"detail"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewActivityEntry stamps a new entry with an id and creation time.
func NewActivityEntry(kind ActivityKind, dni string, detail string) ActivityEntry {
	return ActivityEntry{
		ID:        uuid.New(),
		Kind:      kind,
		DNI:       dni,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}

// WithEventDay returns a copy of the entry bound to an event day.
func (e ActivityEntry) WithEventDay(day time.Time) ActivityEntry {
	e.EventDay = &day
	return e
}
