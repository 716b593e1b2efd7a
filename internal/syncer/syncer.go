// Package syncer runs one refresh of the record store: list records,
// fetch price history once for every distinct symbol, then reconcile and
// write back each record in turn.
package syncer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stocksync/internal/provider"
	"stocksync/internal/reconcile"
	"stocksync/internal/record"
	"stocksync/internal/symbol"
)

// RecordStore lists records and writes computed fields back.
//
//go:generate mockgen -package=syncer_test -destination=mock_collaborators_test.go -source=syncer.go RecordStore,HistoryFetcher
type RecordStore interface {
	ListAllRecords(ctx context.Context) ([]record.Record, error)
	UpdateRecord(ctx context.Context, id string, f record.Fields) error
}

// HistoryFetcher fetches daily history for a set of symbols in one call.
type HistoryFetcher interface {
	Name() string
	FetchDailyHistory(ctx context.Context, symbols []string) (provider.Batch, error)
}

var (
	_ RecordStore    = record.Store(nil)
	_ HistoryFetcher = provider.Fetcher(nil)
)

type Status int

const (
	StatusUpdated Status = iota // fields written
	StatusNoData                // no price data, absent fields written
	StatusSkipped               // nothing written (dry run or skip-no-data)
	StatusFailed                // reconcile or write failed
)

func (s Status) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	case StatusNoData:
		return "no_data"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of processing one record.
type Outcome struct {
	RecordID string
	Ticker   string
	Symbol   string
	Status   Status
	Result   reconcile.Result
	Err      error
}

// Report summarises a run.
type Report struct {
	Records     int // records listed
	EmptyTicker int // records ignored for lack of a ticker
	Symbols     int // distinct symbols fetched
	Updated     int
	NoData      int
	Skipped     int
	Failed      int
	Outcomes    []Outcome
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusUpdated:
		r.Updated++
	case StatusNoData:
		r.NoData++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

type Options struct {
	// DryRun computes and logs the fields without writing them.
	DryRun bool
	// SkipNoData leaves a record untouched when no price data was found
	// instead of clearing its fields.
	SkipNoData bool
	// Clock supplies the run date. Defaults to time.Now.
	Clock func() time.Time
}

type Syncer struct {
	store   RecordStore
	fetcher HistoryFetcher
	opts    Options
	log     *zap.Logger
}

func New(store RecordStore, fetcher HistoryFetcher, opts Options, log *zap.Logger) *Syncer {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{store: store, fetcher: fetcher, opts: opts, log: log}
}

// Run performs one sync. Listing and fetch failures abort the run; a
// failure on one record is recorded in the report and the run carries on.
func (s *Syncer) Run(ctx context.Context) (Report, error) {
	var rep Report

	records, err := s.store.ListAllRecords(ctx)
	if err != nil {
		return rep, fmt.Errorf("listing records: %w", err)
	}
	rep.Records = len(records)

	usable := make([]record.Record, 0, len(records))
	raws := make([]string, 0, len(records))
	for _, r := range records {
		if symbol.Normalize(r.Ticker) == "" {
			rep.EmptyTicker++
			continue
		}
		usable = append(usable, r)
		raws = append(raws, r.Ticker)
	}
	if len(usable) == 0 {
		s.log.Info("no tickers found", zap.Int("records", rep.Records))
		return rep, nil
	}

	canonical, symbols := symbol.Canonicalize(raws)
	rep.Symbols = len(symbols)
	s.log.Info("fetching history",
		zap.String("provider", s.fetcher.Name()),
		zap.Int("symbols", len(symbols)),
		zap.Int("records", len(usable)),
	)

	batch, err := s.fetcher.FetchDailyHistory(ctx, symbols)
	if err != nil {
		return rep, fmt.Errorf("fetching history: %w", err)
	}
	resolver := reconcile.Resolve(batch)
	asOf := s.opts.Clock()

	for _, r := range usable {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		o := s.process(ctx, resolver, r, canonical[r.Ticker], asOf)
		rep.add(o)
		s.logOutcome(o)
	}

	s.log.Info("sync finished",
		zap.Int("records", rep.Records),
		zap.Int("symbols", rep.Symbols),
		zap.Int("updated", rep.Updated),
		zap.Int("no_data", rep.NoData),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
		zap.Int("empty_ticker", rep.EmptyTicker),
	)
	return rep, nil
}

func (s *Syncer) process(ctx context.Context, resolver *reconcile.Resolver, r record.Record, sym string, asOf time.Time) (o Outcome) {
	o = Outcome{RecordID: r.ID, Ticker: r.Ticker, Symbol: sym}
	defer func() {
		if rec := recover(); rec != nil {
			o.Status = StatusFailed
			o.Err = fmt.Errorf("panic: %v", rec)
		}
	}()

	o.Result = resolver.Reconcile(sym, asOf)
	if !o.Result.HasData() && s.opts.SkipNoData {
		o.Status = StatusSkipped
		return o
	}
	if s.opts.DryRun {
		o.Status = StatusSkipped
		return o
	}

	m := o.Result.Metrics
	err := s.store.UpdateRecord(ctx, r.ID, record.Fields{
		LastClose: m.LastClose,
		Change:    m.Change,
		ChangePct: m.ChangePct,
		AsOfDate:  m.AsOfDate,
	})
	switch {
	case err != nil:
		o.Status = StatusFailed
		o.Err = fmt.Errorf("updating record: %w", err)
	case o.Result.HasData():
		o.Status = StatusUpdated
	default:
		o.Status = StatusNoData
	}
	return o
}

func (s *Syncer) logOutcome(o Outcome) {
	fields := []zap.Field{
		zap.String("record", o.RecordID),
		zap.String("ticker", o.Ticker),
		zap.String("symbol", o.Symbol),
		zap.Stringer("status", o.Status),
	}
	m := o.Result.Metrics
	if m.LastClose != nil {
		fields = append(fields, zap.Float64("last_close", *m.LastClose))
	}
	if m.Change != nil {
		fields = append(fields, zap.Float64("change", *m.Change))
	}
	if m.ChangePct != nil {
		fields = append(fields, zap.Float64("change_pct", *m.ChangePct))
	}
	if !o.Result.HasData() {
		fields = append(fields, zap.Stringer("reason", o.Result.NoData))
	}

	switch {
	case o.Err != nil:
		s.log.Error("record failed", append(fields, zap.Error(o.Err))...)
	case !o.Result.HasData():
		s.log.Warn("no price data", fields...)
	default:
		s.log.Info("record processed", fields...)
	}
}

// FailedRecords returns the outcomes of records that failed.
func (r Report) FailedRecords() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}
