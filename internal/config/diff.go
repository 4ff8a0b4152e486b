package config

import (
	"slices"
	"strings"

	logx "remindbot/pkg/logx"
)

// ReminderChanges lists profile names by how they differ between two configs.
type ReminderChanges struct {
	Updated []string
	Added   []string
	Removed []string
}

// SummarizeConfigChange returns the changed sections and safe log attrs
// (the bot token is never included).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field, ReminderChanges) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	var changed []string
	var attrs []logx.Field

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if strings.TrimSpace(ot.Token) != strings.TrimSpace(nt.Token) ||
		ot.ChatID != nt.ChatID ||
		strings.TrimSpace(ot.PollTimeout) != strings.TrimSpace(nt.PollTimeout) ||
		ot.DropPending() != nt.DropPending() ||
		ot.RatePerSec != nt.RatePerSec {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_changed", strings.TrimSpace(ot.Token) != strings.TrimSpace(nt.Token)),
			logx.Int64("telegram.chat_id", nt.ChatID),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Random != newCfg.Random {
		changed = append(changed, "random")
		attrs = append(attrs,
			logx.String("random.provider", newCfg.Random.ProviderName()),
			logx.Int("random.batch_size", newCfg.Random.Batch()),
		)
	}

	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs, logx.String("storage.driver", newCfg.Storage.DriverName()))
	}

	if oldCfg.HideText != newCfg.HideText {
		changed = append(changed, "hide_text")
		attrs = append(attrs, logx.Bool("hide_text", newCfg.HideText))
	}

	rc := diffReminders(oldCfg.Reminders, newCfg.Reminders)
	if len(rc.Updated)+len(rc.Added)+len(rc.Removed) > 0 {
		changed = append(changed, "reminders")
		attrs = append(attrs,
			logx.Strings("reminders.updated", rc.Updated),
			logx.Strings("reminders.added", rc.Added),
			logx.Strings("reminders.removed", rc.Removed),
		)
	}

	return changed, attrs, rc
}

func diffReminders(oldRs, newRs []ReminderConfig) ReminderChanges {
	var rc ReminderChanges
	old := make(map[string]ReminderConfig, len(oldRs))
	for _, r := range oldRs {
		old[r.Name] = r
	}
	seen := make(map[string]struct{}, len(newRs))
	for _, r := range newRs {
		seen[r.Name] = struct{}{}
		prev, ok := old[r.Name]
		switch {
		case !ok:
			rc.Added = append(rc.Added, r.Name)
		case prev.Interval != r.Interval || !slices.Equal(prev.Messages, r.Messages):
			rc.Updated = append(rc.Updated, r.Name)
		}
	}
	for _, r := range oldRs {
		if _, ok := seen[r.Name]; !ok {
			rc.Removed = append(rc.Removed, r.Name)
		}
	}
	return rc
}
