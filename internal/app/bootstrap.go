package app

import (
	"fmt"

	"remindbot/internal/config"
	"remindbot/internal/randsrc"
	"remindbot/internal/reminder"
	telegram "remindbot/internal/transport/telegram/adapter"
	logx "remindbot/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapTelegramConfig(cfg *config.Config, d config.Durations) telegram.Config {
	return telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: d.PollTimeout,
		DropPending: cfg.Telegram.DropPending(),
		RatePerSec:  cfg.Telegram.RatePerSec,
		Commands:    []telegram.Command{{Text: "settings", Description: "Настройки"}},
	}
}

func mapReminderConfig(cfg *config.Config, d config.Durations) reminder.ServiceConfig {
	return reminder.ServiceConfig{
		Batch:        cfg.Random.Batch(),
		RetryMax:     cfg.Random.RetryMax,
		RetryBackoff: d.RetryBackoff,
	}
}

func newProvider(cfg *config.Config, d config.Durations, log logx.Logger) (randsrc.Provider, error) {
	switch name := cfg.Random.ProviderName(); name {
	case config.ProviderRandomOrg:
		ro, err := randsrc.NewRandomOrg(randsrc.RandomOrgConfig{
			BaseURL:    cfg.Random.BaseURL,
			Timeout:    d.RandTimeout,
			RatePerSec: cfg.Random.RatePerSec,
		}, log)
		if err != nil {
			return nil, err
		}
		return ro, nil
	case config.ProviderLocal:
		log.Warn("using local pseudo-random provider")
		return randsrc.NewLocal(), nil
	default:
		return nil, fmt.Errorf("%w: unknown random.provider %q", config.ErrInvalid, name)
	}
}
