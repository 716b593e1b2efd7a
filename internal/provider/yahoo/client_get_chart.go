package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound is returned when the API has no data for the symbol.
var ErrNotFound = errors.New("symbol not found")

// Chart is the daily history of one symbol.
type Chart struct {
	Symbol           string
	Currency         string
	ExchangeTimezone string
	GMTOffset        int
	Bars             []Bar
}

// Bar is one interval of a chart. Nil fields were null in the payload.
type Bar struct {
	Time     time.Time
	Open     *float64
	High     *float64
	Low      *float64
	Close    *float64
	AdjClose *float64
	Volume   *float64
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		Currency             string `json:"currency"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// GetChart retrieves the chart of symbol over rng (e.g. "5d") at interval (e.g. "1d").
func (c *ChartAPIClient) GetChart(ctx context.Context, symbol, rng, interval string, opts ...ChartAPIClientOption) (*Chart, error) {
	var override = &ChartAPIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	if query == nil {
		query = url.Values{}
	}
	query.Set("range", rng)
	query.Set("interval", interval)
	query.Set("includePrePost", "false")
	query.Set("events", "div,splits")

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", override.baseURL, url.PathEscape(symbol), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, symbol, describeError(res.Body))

	case http.StatusBadRequest:
		return nil, fmt.Errorf("bad request for %s: %s", symbol, describeError(res.Body))

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("unauthorized")

	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body chartResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding chart response: %w", err)
	}
	if e := body.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, symbol, e.Description)
		}
		return nil, fmt.Errorf("chart error %s: %s", e.Code, e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s: empty result", ErrNotFound, symbol)
	}

	return parseChart(body.Chart.Result[0]), nil
}

func parseChart(r chartResult) *Chart {
	chart := &Chart{
		Symbol:           r.Meta.Symbol,
		Currency:         r.Meta.Currency,
		ExchangeTimezone: r.Meta.ExchangeTimezoneName,
		GMTOffset:        r.Meta.GMTOffset,
		Bars:             make([]Bar, 0, len(r.Timestamp)),
	}
	loc := exchangeLocation(r.Meta.ExchangeTimezoneName, r.Meta.GMTOffset)

	// {
	//   "timestamp": [1760664600, ...],
	//   "indicators": {
	//     "quote": [{"open": [...], "high": [...], "low": [...], "close": [...], "volume": [...]}],
	//     "adjclose": [{"adjclose": [...]}]
	//   }
	// }
	hasQuote := len(r.Indicators.Quote) > 0
	hasAdj := len(r.Indicators.AdjClose) > 0
	for i, ts := range r.Timestamp {
		bar := Bar{Time: time.Unix(ts, 0).In(loc)}
		if hasQuote {
			q := r.Indicators.Quote[0]
			bar.Open = at(q.Open, i)
			bar.High = at(q.High, i)
			bar.Low = at(q.Low, i)
			bar.Close = at(q.Close, i)
			bar.Volume = at(q.Volume, i)
		}
		if hasAdj {
			bar.AdjClose = at(r.Indicators.AdjClose[0].AdjClose, i)
		} else {
			// Instruments without corporate actions omit the block entirely.
			bar.AdjClose = bar.Close
		}
		chart.Bars = append(chart.Bars, bar)
	}
	return chart
}

// at returns the i-th value or nil when the column is short.
func at(col []*float64, i int) *float64 {
	if i < 0 || i >= len(col) {
		return nil
	}
	return col[i]
}

func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("", gmtOffset)
}

// describeError extracts the API error description from an error body.
func describeError(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 2<<10))
	if err != nil || len(b) == 0 {
		return "no details"
	}
	var body chartResponse
	if err := json.Unmarshal(b, &body); err == nil && body.Chart.Error != nil {
		return body.Chart.Error.Description
	}
	return string(b)
}
