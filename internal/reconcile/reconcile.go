// Package reconcile extracts one symbol's clean close series from a batch
// history result and derives the latest close and day-over-day change.
package reconcile

import (
	"time"

	"stocksync/internal/provider"
)

// Reason explains why a result carries no data. It is informational only.
type Reason int

const (
	ReasonNone       Reason = iota
	ReasonNotInBatch        // symbol absent from the batch
	ReasonEmpty             // no complete rows left
)

func (r Reason) String() string {
	switch r {
	case ReasonNotInBatch:
		return "not in batch"
	case ReasonEmpty:
		return "empty series"
	default:
		return "none"
	}
}

// Metrics are the values written back to a record. Nil means absent, which
// is distinct from zero.
type Metrics struct {
	LastClose *float64
	Change    *float64
	ChangePct *float64 // percent units: 2.5 means 2.5%
	AsOfDate  time.Time // zero when absent
}

// Result is the outcome of reconciling one symbol.
type Result struct {
	Metrics Metrics
	Rows    int    // complete rows used
	NoData  Reason // ReasonNone when a last close was found
}

// HasData reports whether a last close was derived.
func (r Result) HasData() bool { return r.NoData == ReasonNone }

// Resolver answers per-symbol lookups against one batch. The batch shape is
// decided once in Resolve.
type Resolver struct {
	single *provider.Table
	tables map[string]provider.Table
}

// Resolve inspects the batch shape. A nil batch behaves as an empty
// multi-symbol batch.
func Resolve(b provider.Batch) *Resolver {
	switch v := b.(type) {
	case provider.SingleSymbol:
		t := v.Table
		return &Resolver{single: &t}
	case provider.MultiSymbol:
		return &Resolver{tables: v.Tables}
	default:
		return &Resolver{}
	}
}

// Lookup returns the raw table for symbol. A single-symbol batch answers
// every lookup with its only table.
func (r *Resolver) Lookup(symbol string) (provider.Table, bool) {
	if r.single != nil {
		return *r.single, true
	}
	t, ok := r.tables[symbol]
	return t, ok
}

// Reconcile derives the metrics of symbol. asOf is the run date stamped on
// the result regardless of the price dates. A symbol missing from the batch
// gets no metrics at all, its AsOfDate included.
func (r *Resolver) Reconcile(symbol string, asOf time.Time) Result {
	t, ok := r.Lookup(symbol)
	if !ok {
		return Result{NoData: ReasonNotInBatch}
	}
	return Compute(t, asOf)
}

// Compute derives metrics from a raw table:
// - rows missing any field are dropped
// - LastClose is the close of the most recent row
// - Change and ChangePct need a second row; ChangePct is absent when the
//   previous close is zero
func Compute(t provider.Table, asOf time.Time) Result {
	clean := t.DropIncomplete()
	res := Result{Metrics: Metrics{AsOfDate: asOf}, Rows: len(clean)}
	if len(clean) == 0 {
		res.NoData = ReasonEmpty
		return res
	}

	last := *clean[len(clean)-1].Close
	res.Metrics.LastClose = &last
	if len(clean) < 2 {
		return res
	}

	prev := *clean[len(clean)-2].Close
	change := last - prev
	res.Metrics.Change = &change
	if prev != 0 {
		pct := change / prev * 100
		res.Metrics.ChangePct = &pct
	}
	return res
}
