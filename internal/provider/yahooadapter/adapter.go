package yahooadapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stocksync/internal/provider"
	"stocksync/internal/provider/yahoo"
)

type Config struct {
	Name     string // display name, default: Yahoo
	Range    string // chart range, default: 5d
	Interval string // bar interval, default: 1d
	// MaxConcurrency bounds the chart requests in flight for one batch.
	// Defaults to 4 when <= 0.
	MaxConcurrency int
}

// ChartGetter is the subset of the chart API client the adapter uses.
type ChartGetter interface {
	GetChart(ctx context.Context, symbol, rng, interval string, opts ...yahoo.ChartAPIClientOption) (*yahoo.Chart, error)
}

// Adapter turns per-symbol chart calls into one batch history fetch.
type Adapter struct {
	cfg    Config
	client ChartGetter
	log    *zap.Logger
}

var _ provider.Fetcher = (*Adapter)(nil)

func New(cfg Config, client ChartGetter, log *zap.Logger) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "Yahoo"
	}
	if cfg.Range == "" {
		cfg.Range = "5d"
	}
	if cfg.Interval == "" {
		cfg.Interval = "1d"
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{cfg: cfg, client: client, log: log.With(zap.String("provider", cfg.Name))}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// FetchDailyHistory fetches every symbol and assembles the batch. A single
// requested symbol yields a SingleSymbol batch, anything else a MultiSymbol
// batch. Symbols without data are left out; the call only fails when no
// symbol could be fetched at all.
func (a *Adapter) FetchDailyHistory(ctx context.Context, symbols []string) (provider.Batch, error) {
	var (
		mu       sync.Mutex
		tables   = make(map[string]provider.Table, len(symbols))
		failures []error
		missing  int
	)

	var g errgroup.Group
	g.SetLimit(a.cfg.MaxConcurrency)
	for _, sym := range symbols {
		g.Go(func() error {
			chart, err := a.client.GetChart(ctx, sym, a.cfg.Range, a.cfg.Interval)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, yahoo.ErrNotFound):
				a.log.Debug("no chart data", zap.String("symbol", sym), zap.Error(err))
				missing++
			case err != nil:
				a.log.Warn("chart fetch failed", zap.String("symbol", sym), zap.Error(err))
				failures = append(failures, fmt.Errorf("%s: %w", sym, err))
			default:
				tables[sym] = toTable(chart)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(symbols) > 0 && len(failures) == len(symbols) {
		return nil, fmt.Errorf("all %d symbols failed: %w", len(symbols), errors.Join(failures...))
	}
	a.log.Info("history fetched",
		zap.Int("symbols", len(symbols)),
		zap.Int("with_data", len(tables)),
		zap.Int("missing", missing),
		zap.Int("failed", len(failures)),
	)

	if len(symbols) == 1 {
		if t, ok := tables[symbols[0]]; ok {
			return provider.SingleSymbol{Symbol: symbols[0], Table: t}, nil
		}
		// nothing came back for the one symbol: report it as a lookup miss
		return provider.MultiSymbol{Tables: tables}, nil
	}
	return provider.MultiSymbol{Tables: tables}, nil
}

func toTable(chart *yahoo.Chart) provider.Table {
	if chart == nil {
		return nil
	}
	t := make(provider.Table, 0, len(chart.Bars))
	for _, b := range chart.Bars {
		t = append(t, provider.Row{
			Date:     b.Time,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			AdjClose: b.AdjClose,
			Volume:   b.Volume,
		})
	}
	return t
}
