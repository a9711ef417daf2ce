package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PivotLevels/internal/calculator"
	"PivotLevels/internal/collector"
	"PivotLevels/internal/logger"
	"PivotLevels/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Provider    Provider           `yaml:"provider"`
	Session     Session            `yaml:"session"`
	Pivots      Pivots             `yaml:"pivots"`
	Instruments []model.Instrument `yaml:"instruments" validate:"dive"`
	Output      Output             `yaml:"output"`
	Cache       Cache              `yaml:"cache"`
	Database    Database           `yaml:"database"`
	Telegram    Telegram           `yaml:"telegram"`
	Schedule    Schedule           `yaml:"schedule"`
	Log         logger.Config      `yaml:"log"`
	Concurrency int                `yaml:"concurrency" default:"1" validate:"min=1"`
}

type Provider struct {
	Name              string        `yaml:"name" default:"insightsentry" validate:"oneof=insightsentry yahoo mock"`
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	Host              string        `yaml:"host"`
	APIKey            string        `yaml:"api_key"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"min=0"`
	Timeout           time.Duration `yaml:"timeout" default:"30s"`
	Proxy             string        `yaml:"proxy"`
	BarType           string        `yaml:"bar_type" default:"minute"`
	BarInterval       int           `yaml:"bar_interval" default:"1" validate:"min=1"`
	Extended          *bool         `yaml:"extended" default:"true"`
}

// Session sets the wall-clock time that closes the premarket window.
type Session struct {
	Open     string `yaml:"open" default:"14:30"`
	Timezone string `yaml:"timezone" default:"UTC"`
}

type Pivots struct {
	Variant string `yaml:"variant" default:"extended" validate:"oneof=extended six four"`
}

type Output struct {
	CSVDir   string   `yaml:"csv_dir" default:"data/csv"`
	Archive  bool     `yaml:"archive"`
	Families []string `yaml:"families"`
}

type Cache struct {
	Dir    string `yaml:"dir" default:"data/historical"`
	Dedupe *bool  `yaml:"dedupe" default:"true"`
}

type Database struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type Telegram struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type Schedule struct {
	Cron        string `yaml:"cron" default:"CRON_TZ=America/New_York 0 0 9 * * 1-5"`
	HistoryCron string `yaml:"history_cron"`
}

// DefaultInstruments is used when the config file lists none.
var DefaultInstruments = []model.Instrument{
	{APISymbol: "CME_MINI:ES1!", DisplaySymbols: []string{"ESM5.CME@RITHMIC", "MESM5.CME@RITHMIC", ">3ES@TM.Pro"}, Family: "es"},
	{APISymbol: "CME_MINI:NQ1!", DisplaySymbols: []string{"NQM5.CME@RITHMIC", "MNQM5.CME@RITHMIC", ">3NQ@TM.Pro"}, Family: "nq"},
}

// Load reads .env (if present) and the YAML file at path, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if len(cfg.Instruments) == 0 {
		cfg.Instruments = DefaultInstruments
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RAPIDAPI_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Provider.Proxy = v
	}
	if v := os.Getenv("PIVOT_CSV_DIR"); v != "" {
		c.Output.CSVDir = v
	}
	if v := os.Getenv("PIVOT_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		c.Schedule.Cron = v
	}
	return nil
}

// Validate checks struct tags and the fields that need parsing.
// A missing API key is fatal for the insightsentry provider.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Provider.Name == "insightsentry" && c.Provider.APIKey == "" {
		return fmt.Errorf("RAPIDAPI_KEY (provider.api_key) is required")
	}
	if _, err := c.SessionClock(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// SessionClock parses the session open time.
func (c *Config) SessionClock() (calculator.SessionClock, error) {
	return calculator.ParseSessionClock(c.Session.Open, c.Session.Timezone)
}

// Variant returns the configured pivot level set.
func (c *Config) Variant() calculator.Variant {
	v, err := calculator.ParseVariant(c.Pivots.Variant)
	if err != nil {
		return calculator.VariantExtended
	}
	return v
}

func (c *Config) Extended() bool { return c.Provider.Extended == nil || *c.Provider.Extended }

func (c *Config) Dedupe() bool { return c.Cache.Dedupe == nil || *c.Cache.Dedupe }

// InsightSentryOptions maps the provider section onto fetcher options.
func (c *Config) InsightSentryOptions() collector.InsightSentryOptions {
	return collector.InsightSentryOptions{
		BaseURL:           c.Provider.BaseURL,
		Host:              c.Provider.Host,
		APIKey:            c.Provider.APIKey,
		Proxy:             c.Provider.Proxy,
		Timeout:           c.Provider.Timeout,
		RequestsPerSecond: c.Provider.RequestsPerSecond,
	}
}
