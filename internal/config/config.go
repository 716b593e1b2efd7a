package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingToken      = errors.New("notion token is required (NOTION_TOKEN)")
	ErrMissingDatabaseID = errors.New("notion database id is required (NOTION_DATABASE_ID)")
)

type Properties struct {
	LastClose string `json:"last_close" yaml:"last_close"`
	Change    string `json:"change" yaml:"change"`
	ChangePct string `json:"change_pct" yaml:"change_pct"`
	AsOfDate  string `json:"as_of_date" yaml:"as_of_date"`
}

type Notion struct {
	Token            string     `json:"token" yaml:"token"`
	DatabaseID       string     `json:"database_id" yaml:"database_id"`
	BaseURL          string     `json:"base_url" yaml:"base_url"`
	Version          string     `json:"version" yaml:"version"`
	PageSize         int        `json:"page_size" yaml:"page_size"`
	TickerProperties []string   `json:"ticker_properties" yaml:"ticker_properties"`
	Properties       Properties `json:"properties" yaml:"properties"`
}

type Yahoo struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	Range          string `json:"range" yaml:"range"`
	Interval       string `json:"interval" yaml:"interval"`
	MaxConcurrency int    `json:"max_concurrency" yaml:"max_concurrency"`
	UserAgent      string `json:"user_agent" yaml:"user_agent"`
}

type Run struct {
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	DryRun            bool   `json:"dry_run" yaml:"dry_run"`
	SkipNoData        bool   `json:"skip_no_data" yaml:"skip_no_data"`
	LogLevel          string `json:"log_level" yaml:"log_level"`
	LogFormat         string `json:"log_format" yaml:"log_format"`
	LogFile           string `json:"log_file" yaml:"log_file"`
}

type Config struct {
	Notion Notion `json:"notion" yaml:"notion"`
	Yahoo  Yahoo  `json:"yahoo" yaml:"yahoo"`
	Run    Run    `json:"run" yaml:"run"`
}

func Default() Config {
	return Config{
		Notion: Notion{
			BaseURL:          "https://api.notion.com",
			Version:          "2022-06-28",
			PageSize:         100,
			TickerProperties: []string{"代码", "code"},
			Properties: Properties{
				LastClose: "最新价",
				Change:    "涨跌额",
				ChangePct: "涨跌幅%",
				AsOfDate:  "更新日期",
			},
		},
		Yahoo: Yahoo{
			BaseURL:        "https://query1.finance.yahoo.com",
			Range:          "5d",
			Interval:       "1d",
			MaxConcurrency: 4,
			UserAgent:      "Mozilla/5.0 (compatible; stocksync/1.0)",
		},
		Run: Run{
			RequestTimeoutSec: 20,
			LogLevel:          "info",
			LogFormat:         "console",
		},
	}
}

// Load reads the config file at path. JSON is the default format; files
// ending in .yaml or .yml are read as YAML. If path is empty, config.json
// then config.yaml in the working directory are tried, and defaults are used
// when neither exists. Environment variables override the file, so secrets
// can stay out of it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		cfg.Notion.Token = v
	}
	if v := os.Getenv("NOTION_DATABASE_ID"); v != "" {
		cfg.Notion.DatabaseID = v
	}
	if v := os.Getenv("NOTION_BASE_URL"); v != "" {
		cfg.Notion.BaseURL = v
	}
	if v := os.Getenv("NOTION_VERSION"); v != "" {
		cfg.Notion.Version = v
	}
	if v := os.Getenv("NOTION_TICKER_PROPERTIES"); v != "" {
		cfg.Notion.TickerProperties = splitCSV(v)
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Yahoo.BaseURL = v
	}
	if v := os.Getenv("YAHOO_RANGE"); v != "" {
		cfg.Yahoo.Range = v
	}
	if v := os.Getenv("YAHOO_INTERVAL"); v != "" {
		cfg.Yahoo.Interval = v
	}
	if v := os.Getenv("YAHOO_MAX_CONCURRENCY"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Yahoo.MaxConcurrency = x
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Run.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		cfg.Run.DryRun = parseBool(v, cfg.Run.DryRun)
	}
	if v := os.Getenv("SKIP_NO_DATA"); v != "" {
		cfg.Run.SkipNoData = parseBool(v, cfg.Run.SkipNoData)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Run.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Run.LogFormat = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Run.LogFile = v
	}
}

// Validate checks the credentials are present and rewrites the database id
// to its canonical dashed form. A database URL copied from the browser is
// accepted too.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Notion.Token) == "" {
		return ErrMissingToken
	}
	raw := strings.TrimSpace(c.Notion.DatabaseID)
	if raw == "" {
		return ErrMissingDatabaseID
	}
	id, err := uuid.Parse(databaseIDFromURL(raw))
	if err != nil {
		return fmt.Errorf("invalid notion database id %q: %w", raw, err)
	}
	c.Notion.DatabaseID = id.String()
	return nil
}

// databaseIDFromURL extracts the trailing 32 hex id from a Notion URL such
// as https://www.notion.so/team/Stocks-0123...cdef?v=...; other input is
// returned unchanged.
func databaseIDFromURL(s string) string {
	if !strings.Contains(s, "://") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	seg := u.Path[strings.LastIndex(u.Path, "/")+1:]
	if i := strings.LastIndex(seg, "-"); i >= 0 {
		seg = seg[i+1:]
	}
	return seg
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
