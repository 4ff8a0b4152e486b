package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// legacyConfig is the flat config.json layout of the first release.
// It is accepted on load and rewritten in the current layout on first save.
type legacyConfig struct {
	Token     string           `json:"_tg_key"`
	ChatID    int64            `json:"_tg_chat_id"`
	HideText  bool             `json:"_tg_hide_text"`
	Reminders []legacyReminder `json:"_reminders"`
}

type legacyReminder struct {
	Name      string   `json:"_name"`
	Messages  []string `json:"_messages"`
	TimeRange []int    `json:"_time_range"`
}

func isLegacy(jb []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(jb, &probe); err != nil {
		return false
	}
	_, ok := probe["_reminders"]
	return ok
}

func parseLegacy(jb []byte) (*Config, error) {
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	var lc legacyConfig
	if err := dec.Decode(&lc); err != nil {
		return nil, fmt.Errorf("legacy config: %w", err)
	}
	cfg := &Config{
		Telegram: TelegramConfig{Token: lc.Token, ChatID: lc.ChatID},
		Logging:  LoggingConfig{Level: "info", Console: true},
		HideText: lc.HideText,
	}
	for _, r := range lc.Reminders {
		if len(r.TimeRange) != 2 {
			return nil, fmt.Errorf("%w: legacy reminder %q: _time_range needs two values", ErrInvalid, r.Name)
		}
		cfg.Reminders = append(cfg.Reminders, ReminderConfig{
			Name:     r.Name,
			Messages: r.Messages,
			Interval: [2]int{r.TimeRange[0], r.TimeRange[1]},
		})
	}
	return cfg, nil
}
