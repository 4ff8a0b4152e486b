package storage

import (
	"fmt"
	"strings"

	"remindbot/internal/config"
	logx "remindbot/pkg/logx"
)

// Document is the config file as seen by the "config" driver.
type Document interface {
	Get() *config.Config
	Save(cfg *config.Config) error
}

// Open initializes the configured store. doc backs the "config" driver and
// seeds the others.
func Open(cfg Config, doc Document, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	log = log.With(logx.String("comp", "storage"), logx.String("driver", driver))

	switch driver {
	case "", config.DriverConfig:
		return newConfigStore(doc, log)
	case config.DriverFile:
		return openFile(cfg, seedFrom(doc), log)
	case config.DriverSQLite, "sqlite3":
		return openSQLite(cfg, seedFrom(doc), log)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", driver)
	}
}

// StateFromConfig extracts the persisted part of a config document.
func StateFromConfig(c *config.Config) State {
	if c == nil {
		return State{}
	}
	st := State{HideText: c.HideText, Profiles: make([]ProfileRecord, 0, len(c.Reminders))}
	for _, r := range c.Reminders {
		st.Profiles = append(st.Profiles, ProfileRecord{
			Name:     r.Name,
			Messages: append([]string(nil), r.Messages...),
			Interval: r.Interval,
		})
	}
	return st
}

func seedFrom(doc Document) State {
	if doc == nil {
		return State{}
	}
	return StateFromConfig(doc.Get())
}
