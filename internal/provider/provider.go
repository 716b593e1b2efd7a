package provider

import (
	"context"
	"sort"
	"time"
)

// Row is one daily bar. Nil fields were missing in the source payload.
type Row struct {
	Date     time.Time `json:"date"`
	Open     *float64  `json:"open"`
	High     *float64  `json:"high"`
	Low      *float64  `json:"low"`
	Close    *float64  `json:"close"`
	AdjClose *float64  `json:"adj_close"`
	Volume   *float64  `json:"volume"`
}

// Complete reports whether every field of the row is present.
func (r Row) Complete() bool {
	return r.Open != nil && r.High != nil && r.Low != nil && r.Close != nil && r.AdjClose != nil && r.Volume != nil
}

// Table is the daily history of one symbol in chronological order.
type Table []Row

// DropIncomplete returns the rows that have every field set, sorted by date.
func (t Table) DropIncomplete() Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.Complete() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Batch is the result of one history fetch. The source collapses the result
// to bare columns when a single symbol was requested, so a Batch is either a
// SingleSymbol or a MultiSymbol.
type Batch interface {
	batch()
}

// SingleSymbol holds the columns of the only symbol that was requested.
type SingleSymbol struct {
	Symbol string
	Table  Table
}

// MultiSymbol holds one table per symbol, keyed by canonical symbol.
// Symbols the source had no data for are absent.
type MultiSymbol struct {
	Tables map[string]Table
}

func (SingleSymbol) batch() {}
func (MultiSymbol) batch()  {}

// Fetcher retrieves daily history for a deduplicated, sorted symbol set in
// one call.
type Fetcher interface {
	Name() string
	FetchDailyHistory(ctx context.Context, symbols []string) (Batch, error)
}
