package config

import (
	"strings"
	"time"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Random   RandomConfig   `json:"random" yaml:"random"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`

	// HideText is the global default for spoiler-marking reminder sends.
	HideText  bool             `json:"hide_text" yaml:"hide_text"`
	Reminders []ReminderConfig `json:"reminders" yaml:"reminders"`
}

type TelegramConfig struct {
	Token  string `json:"token" yaml:"token"`
	ChatID int64  `json:"chat_id" yaml:"chat_id"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty" yaml:"poll_timeout,omitempty"`
	// SkipPending drops updates queued while the bot was offline. Default true.
	SkipPending *bool   `json:"skip_pending,omitempty" yaml:"skip_pending,omitempty"`
	RatePerSec  float64 `json:"rate_per_sec,omitempty" yaml:"rate_per_sec,omitempty"`
}

func (t TelegramConfig) DropPending() bool { return t.SkipPending == nil || *t.SkipPending }

type LoggingConfig struct {
	Level   string      `json:"level" yaml:"level"`
	Console bool        `json:"console" yaml:"console"`
	File    LoggingFile `json:"file" yaml:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// RandomConfig selects the integer provider behind every reminder sequence.
//
// Defaults (when fields are omitted/zero):
//   - provider: "random.org"
//   - batch_size: 50
//   - timeout: "10s"
//   - retry_max: 0 (a failing worker stops; other workers keep running)
//   - retry_backoff: "30s"
type RandomConfig struct {
	Provider     string  `json:"provider,omitempty" yaml:"provider,omitempty"`
	BaseURL      string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	BatchSize    int     `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	Timeout      string  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RatePerSec   float64 `json:"rate_per_sec,omitempty" yaml:"rate_per_sec,omitempty"`
	RetryMax     int     `json:"retry_max,omitempty" yaml:"retry_max,omitempty"`
	RetryBackoff string  `json:"retry_backoff,omitempty" yaml:"retry_backoff,omitempty"`
}

const (
	ProviderRandomOrg = "random.org"
	ProviderLocal     = "local"
)

func (r RandomConfig) ProviderName() string {
	p := strings.ToLower(strings.TrimSpace(r.Provider))
	if p == "" {
		return ProviderRandomOrg
	}
	return p
}

func (r RandomConfig) Batch() int {
	if r.BatchSize <= 0 {
		return 50
	}
	return r.BatchSize
}

// StorageConfig selects where profile and settings changes are persisted.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./remindbot.db" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty" yaml:"driver,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty" yaml:"busy_timeout,omitempty"` // sqlite
}

const (
	DriverConfig = "config"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

func (s StorageConfig) DriverName() string {
	d := strings.ToLower(strings.TrimSpace(s.Driver))
	if d == "" {
		return DriverConfig
	}
	return d
}

type ReminderConfig struct {
	Name     string   `json:"name" yaml:"name"`
	Messages []string `json:"messages" yaml:"messages"`
	// Interval is [min, max] in minutes.
	Interval [2]int `json:"interval" yaml:"interval,flow"`
}

// Durations are the parsed duration fields with defaults applied.
type Durations struct {
	PollTimeout  time.Duration
	RandTimeout  time.Duration
	RetryBackoff time.Duration
	BusyTimeout  time.Duration
}

func (c *Config) Durations() (Durations, error) {
	var d Durations
	var err error
	if d.PollTimeout, err = ParseDurationOrDefault("telegram.poll_timeout", c.Telegram.PollTimeout, 10*time.Second); err != nil {
		return d, err
	}
	if d.RandTimeout, err = ParseDurationOrDefault("random.timeout", c.Random.Timeout, 10*time.Second); err != nil {
		return d, err
	}
	if d.RetryBackoff, err = ParseDurationOrDefault("random.retry_backoff", c.Random.RetryBackoff, 30*time.Second); err != nil {
		return d, err
	}
	if d.BusyTimeout, err = ParseDurationOrDefault("storage.busy_timeout", c.Storage.BusyTimeout, 5*time.Second); err != nil {
		return d, err
	}
	return d, nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Telegram.SkipPending != nil {
		v := *c.Telegram.SkipPending
		cp.Telegram.SkipPending = &v
	}
	if c.Reminders != nil {
		cp.Reminders = make([]ReminderConfig, len(c.Reminders))
		for i, r := range c.Reminders {
			r.Messages = append([]string(nil), r.Messages...)
			cp.Reminders[i] = r
		}
	}
	return &cp
}
