package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrInvalid = errors.New("invalid config")

// MaxIntervalMinutes is the largest interval bound whose wait still fits a
// time.Duration. It is below random.org's 1e9 limit.
const MaxIntervalMinutes = int(math.MaxInt64 / int64(time.Minute))

// Validate checks everything the bot needs before it can start.
// Zero messages in a profile is rejected here rather than at send time.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		add("telegram.token is required")
	}
	if cfg.Telegram.ChatID == 0 {
		add("telegram.chat_id is required")
	}
	if cfg.Telegram.RatePerSec < 0 {
		add("telegram.rate_per_sec must be >= 0")
	}

	switch cfg.Random.ProviderName() {
	case ProviderRandomOrg, ProviderLocal:
	default:
		add("random.provider: unknown provider %q", cfg.Random.Provider)
	}
	if cfg.Random.BatchSize < 0 || cfg.Random.BatchSize > 10000 {
		add("random.batch_size must be within 1..10000")
	}
	if cfg.Random.RetryMax < 0 {
		add("random.retry_max must be >= 0")
	}

	switch cfg.Storage.DriverName() {
	case DriverConfig:
	case DriverFile, DriverSQLite:
		if strings.TrimSpace(cfg.Storage.Path) == "" {
			add("storage.path is required for driver %q", cfg.Storage.DriverName())
		}
	default:
		add("storage.driver: unknown driver %q", cfg.Storage.Driver)
	}

	if _, err := cfg.Durations(); err != nil {
		add("%s", strings.TrimPrefix(err.Error(), ErrInvalid.Error()+": "))
	}

	if len(cfg.Reminders) == 0 {
		add("reminders: at least one profile is required")
	}
	seen := make(map[string]struct{}, len(cfg.Reminders))
	for i, r := range cfg.Reminders {
		if err := ValidateReminder(r); err != nil {
			add("reminders[%d]: %s", i, err)
		}
		if _, dup := seen[r.Name]; dup {
			add("reminders[%d]: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = struct{}{}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func ValidateReminder(r ReminderConfig) error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return errors.New("name is required")
	case len(r.Messages) == 0:
		return fmt.Errorf("%q: messages must not be empty", r.Name)
	case r.Interval[0] <= 0 || r.Interval[1] <= 0:
		return fmt.Errorf("%q: interval bounds must be > 0", r.Name)
	case r.Interval[0] > r.Interval[1]:
		return fmt.Errorf("%q: interval min must be <= max", r.Name)
	case r.Interval[1] > MaxIntervalMinutes:
		return fmt.Errorf("%q: interval bounds must be <= %d", r.Name, MaxIntervalMinutes)
	}
	return nil
}
