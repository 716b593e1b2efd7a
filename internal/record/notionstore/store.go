package notionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/text/width"

	"stocksync/internal/record"
	"stocksync/internal/record/notion"
)

// Properties names the database columns the computed fields are written to.
type Properties struct {
	LastClose string `json:"last_close" yaml:"last_close"`
	Change    string `json:"change" yaml:"change"`
	ChangePct string `json:"change_pct" yaml:"change_pct"`
	AsOfDate  string `json:"as_of_date" yaml:"as_of_date"`
}

// DefaultProperties are the column names of the stock tracking template.
var DefaultProperties = Properties{
	LastClose: "最新价",
	Change:    "涨跌额",
	ChangePct: "涨跌幅%",
	AsOfDate:  "更新日期",
}

// DefaultTickerProperties are tried in order when reading the ticker.
var DefaultTickerProperties = []string{"代码", "code"}

type Config struct {
	DatabaseID string
	PageSize   int // default 100, the API maximum
	// TickerProperties are the title or rich text columns holding the
	// ticker; the first non-empty one wins.
	TickerProperties []string
	Properties       Properties
}

// API is the subset of the Notion client the store uses.
type API interface {
	QueryDatabase(ctx context.Context, databaseID string, in notion.QueryDatabaseRequest) (*notion.QueryDatabaseResponse, error)
	UpdatePage(ctx context.Context, pageID string, in notion.UpdatePageRequest) (*notion.Page, error)
}

// Store is a record.Store backed by a Notion database.
type Store struct {
	cfg    Config
	client API
	log    *zap.Logger
}

var _ record.Store = (*Store)(nil)

func New(cfg Config, client API, log *zap.Logger) *Store {
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = 100
	}
	if len(cfg.TickerProperties) == 0 {
		cfg.TickerProperties = DefaultTickerProperties
	}
	p := &cfg.Properties
	if p.LastClose == "" {
		p.LastClose = DefaultProperties.LastClose
	}
	if p.Change == "" {
		p.Change = DefaultProperties.Change
	}
	if p.ChangePct == "" {
		p.ChangePct = DefaultProperties.ChangePct
	}
	if p.AsOfDate == "" {
		p.AsOfDate = DefaultProperties.AsOfDate
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{cfg: cfg, client: client, log: log.With(zap.String("store", "notion"))}
}

// ListAllRecords follows the query cursor until the database is exhausted.
func (s *Store) ListAllRecords(ctx context.Context) ([]record.Record, error) {
	var (
		out    []record.Record
		cursor string
		pages  int
	)
	for {
		res, err := s.client.QueryDatabase(ctx, s.cfg.DatabaseID, notion.QueryDatabaseRequest{
			StartCursor: cursor,
			PageSize:    s.cfg.PageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("querying database: %w", err)
		}
		pages++
		for _, p := range res.Results {
			out = append(out, record.Record{
				ID:     p.ID,
				Ticker: TickerText(p.Properties, s.cfg.TickerProperties),
			})
		}
		if !res.HasMore || res.NextCursor == nil || *res.NextCursor == "" {
			break
		}
		cursor = *res.NextCursor
	}
	s.log.Debug("records listed", zap.Int("records", len(out)), zap.Int("pages", pages))
	return out, nil
}

// UpdateRecord writes the four computed fields. Absent numbers and a zero
// date clear the column; the date is written as YYYY-MM-DD.
func (s *Store) UpdateRecord(ctx context.Context, id string, f record.Fields) error {
	p := s.cfg.Properties
	var date string
	if !f.AsOfDate.IsZero() {
		date = f.AsOfDate.Format(time.DateOnly)
	}
	_, err := s.client.UpdatePage(ctx, id, notion.UpdatePageRequest{Properties: map[string]any{
		p.LastClose: notion.NumberValue(f.LastClose),
		p.Change:    notion.NumberValue(f.Change),
		p.ChangePct: notion.NumberValue(f.ChangePct),
		p.AsOfDate:  notion.DateValue(date),
	}})
	return err
}

// TickerText returns the plain text of the first named property that is a
// non-empty title or rich text column. Full-width characters are narrowed
// so "００７００．ＨＫ" reads as "00700.HK".
func TickerText(properties json.RawMessage, names []string) string {
	if len(properties) == 0 {
		return ""
	}
	props := gjson.ParseBytes(properties)
	for _, name := range names {
		var prop gjson.Result
		props.ForEach(func(key, value gjson.Result) bool {
			if key.String() == name {
				prop = value
				return false
			}
			return true
		})
		if !prop.Exists() {
			continue
		}
		if text := plainText(prop); text != "" {
			return text
		}
	}
	return ""
}

func plainText(prop gjson.Result) string {
	typ := prop.Get("type").String()
	switch typ {
	case "title", "rich_text":
	default:
		return ""
	}
	var b strings.Builder
	for _, seg := range prop.Get(typ).Array() {
		b.WriteString(seg.Get("plain_text").String())
	}
	return strings.TrimSpace(width.Narrow.String(b.String()))
}
