package menu

import (
	"strconv"
	"strings"

	"remindbot/internal/reminder"
)

// parseMessages splits on ';' and drops empty segments. Segments are kept verbatim.
func parseMessages(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ";") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// commandName drops the "@botname" suffix Telegram appends to commands in group chats.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if cmd, _, ok := strings.Cut(text, "@"); ok {
		return cmd
	}
	return text
}

// parseInterval accepts exactly two unsigned decimal tokens. On failure it
// returns the error prompt to show.
func parseInterval(text string) (reminder.Interval, string) {
	fields := strings.Fields(text)
	if len(fields) != 2 || !isDigits(fields[0]) || !isDigits(fields[1]) {
		return reminder.Interval{}, textBadIntervalFormat
	}
	lo, err1 := strconv.Atoi(fields[0])
	hi, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return reminder.Interval{}, textBadIntervalFormat
	}
	if lo > hi {
		return reminder.Interval{}, textBadIntervalOrder
	}
	if lo <= 0 || hi <= 0 {
		return reminder.Interval{}, textBadIntervalSign
	}
	if hi > reminder.MaxMinutes {
		return reminder.Interval{}, textBadIntervalRange
	}
	return reminder.Interval{Min: lo, Max: hi}, ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
