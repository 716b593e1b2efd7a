// Package record defines the record store boundary: listing tracked
// securities and writing computed price fields back to them.
package record

import (
	"context"
	"time"
)

// Record is one tracked security in the external database.
type Record struct {
	ID     string // opaque store identifier
	Ticker string // raw ticker text as typed by the user
}

// Fields are the values written back to a record. Nil numbers and a zero
// AsOfDate are written as explicit nulls, not zero.
type Fields struct {
	LastClose *float64
	Change    *float64
	ChangePct *float64
	AsOfDate  time.Time
}

// Store lists records and updates them by identifier.
type Store interface {
	// ListAllRecords pages through the whole database. Order is unspecified.
	ListAllRecords(ctx context.Context) ([]Record, error)
	UpdateRecord(ctx context.Context, id string, f Fields) error
}
