package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/reminder"
	"remindbot/internal/transport"
)

// Page is one node of the settings navigation.
type Page int

const (
	PageClosed Page = iota
	PageMain
	PageToggleHideText
	PageProfileSelector
	PageProfileSettings
	PageEditMessages
	PageEditInterval

	pageCount
)

var pageNames = [pageCount]string{
	PageClosed:          "closed",
	PageMain:            "main",
	PageToggleHideText:  "toggle_hide_text",
	PageProfileSelector: "profile_selector",
	PageProfileSettings: "profile_settings",
	PageEditMessages:    "edit_messages",
	PageEditInterval:    "edit_interval",
}

func (p Page) String() string {
	if p < 0 || p >= pageCount {
		return fmt.Sprintf("page(%d)", int(p))
	}
	return pageNames[p]
}

// outcome is what a page handler decided: move to next, or stay and show errText.
type outcome struct {
	next    Page
	stay    bool
	errText string
}

func goTo(p Page) outcome         { return outcome{next: p} }
func stay(errText string) outcome { return outcome{stay: true, errText: errText} }

// pageDef holds the three behaviours of a page.
type pageDef struct {
	keyboard func(m *Machine) *transport.Keyboard
	prompt   func(m *Machine) string
	handle   func(ctx context.Context, m *Machine, text string) outcome
}

var pages [pageCount]pageDef

func init() {
	pages = [pageCount]pageDef{
		PageClosed: {
			keyboard: func(*Machine) *transport.Keyboard { return transport.RemoveKeyboard() },
			prompt:   func(*Machine) string { return textClosed },
			handle: func(context.Context, *Machine, string) outcome {
				return stay(textClosedHint)
			},
		},
		PageMain: {
			keyboard: func(*Machine) *transport.Keyboard {
				return transport.Rows([]string{LabelHideText}, []string{LabelProfiles}, []string{LabelExit})
			},
			prompt: func(*Machine) string { return textMain },
			handle: handleMain,
		},
		PageToggleHideText: {
			keyboard: func(*Machine) *transport.Keyboard {
				return transport.Rows([]string{LabelYes, LabelNo}, []string{LabelCancel}, []string{LabelExit})
			},
			prompt: func(m *Machine) string {
				state := LabelNo
				if m.profiles.HideText() {
					state = LabelYes
				}
				return fmt.Sprintf(textHideTextFmt, strings.ToLower(state))
			},
			handle: handleToggleHideText,
		},
		PageProfileSelector: {
			keyboard: func(m *Machine) *transport.Keyboard {
				kb := &transport.Keyboard{}
				for _, n := range m.profiles.Names() {
					kb.Rows = append(kb.Rows, []string{n})
				}
				kb.Rows = append(kb.Rows, []string{LabelBack}, []string{LabelExit})
				return kb
			},
			prompt: func(*Machine) string { return textSelector },
			handle: handleSelector,
		},
		PageProfileSettings: {
			keyboard: func(*Machine) *transport.Keyboard {
				return transport.Rows([]string{LabelEditMessages}, []string{LabelEditInterval}, []string{LabelBack}, []string{LabelExit})
			},
			prompt: func(m *Machine) string {
				s := m.selected.Snapshot()
				return fmt.Sprintf(textProfileFmt, s.Name, strings.Join(s.Messages, "; "),
					reminder.FormatDuration(time.Duration(s.Interval.Min)*time.Minute),
					reminder.FormatDuration(time.Duration(s.Interval.Max)*time.Minute))
			},
			handle: handleProfileSettings,
		},
		PageEditMessages: {
			keyboard: inputKeyboard,
			prompt: func(m *Machine) string {
				s := m.selected.Snapshot()
				return fmt.Sprintf(textEditMessagesFmt, s.Name, strings.Join(s.Messages, ";"))
			},
			handle: handleEditMessages,
		},
		PageEditInterval: {
			keyboard: inputKeyboard,
			prompt: func(m *Machine) string {
				s := m.selected.Snapshot()
				return fmt.Sprintf(textEditIntervalFmt, s.Name, s.Interval.Min, s.Interval.Max)
			},
			handle: handleEditInterval,
		},
	}
}

func inputKeyboard(*Machine) *transport.Keyboard {
	return transport.Rows([]string{LabelCancel}, []string{LabelExit})
}

// profileScoped pages read m.selected.
func (p Page) profileScoped() bool {
	return p == PageProfileSettings || p == PageEditMessages || p == PageEditInterval
}

func handleMain(_ context.Context, _ *Machine, text string) outcome {
	switch text {
	case LabelHideText:
		return goTo(PageToggleHideText)
	case LabelProfiles:
		return goTo(PageProfileSelector)
	}
	return stay(textIncorrectChoice)
}

func handleToggleHideText(ctx context.Context, m *Machine, text string) outcome {
	switch text {
	case LabelCancel:
		return goTo(PageMain)
	case LabelYes, LabelNo:
		m.persisted(m.profiles.SetHideText(ctx, text == LabelYes))
		return goTo(PageMain)
	}
	return stay(textIncorrectChoice)
}

func handleSelector(_ context.Context, m *Machine, text string) outcome {
	if text == LabelBack {
		return goTo(PageMain)
	}
	if p, ok := m.profiles.Get(text); ok {
		m.selected = p
		return goTo(PageProfileSettings)
	}
	return stay(textIncorrectChoice)
}

func handleProfileSettings(_ context.Context, _ *Machine, text string) outcome {
	switch text {
	case LabelEditMessages:
		return goTo(PageEditMessages)
	case LabelEditInterval:
		return goTo(PageEditInterval)
	case LabelBack:
		return goTo(PageProfileSelector)
	}
	return stay(textIncorrectChoice)
}

func handleEditMessages(ctx context.Context, m *Machine, text string) outcome {
	if text == LabelCancel {
		return goTo(PageProfileSettings)
	}
	msgs := parseMessages(text)
	if len(msgs) == 0 {
		return stay(textBadMessages)
	}
	m.persisted(m.selected.SetMessages(ctx, msgs))
	return goTo(PageProfileSettings)
}

func handleEditInterval(ctx context.Context, m *Machine, text string) outcome {
	if text == LabelCancel {
		return goTo(PageProfileSettings)
	}
	iv, errText := parseInterval(text)
	if errText != "" {
		return stay(errText)
	}
	m.persisted(m.selected.SetInterval(ctx, iv))
	return goTo(PageProfileSettings)
}
