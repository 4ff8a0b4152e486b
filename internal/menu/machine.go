// Package menu implements the single-chat settings conversation.
//
// Every inbound text is fed to Handle. Global tokens (/settings and the exit
// label) are checked before the current page's handler. The chat keeps at
// most one visible prompt and one visible user reply: sending a new one
// retracts the previous.
package menu

import (
	"context"
	"sync"

	"remindbot/internal/reminder"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

// Gateway is the chat the menu talks to.
type Gateway interface {
	Send(ctx context.Context, text string, opt transport.SendOptions) (transport.MessageRef, error)
	Delete(ctx context.Context, ref transport.MessageRef) error
}

// Profiles is the editable state behind the menu.
type Profiles interface {
	Names() []string
	Get(name string) (*reminder.Profile, bool)
	HideText() bool
	SetHideText(ctx context.Context, v bool) error
}

type Machine struct {
	gw       Gateway
	profiles Profiles
	log      logx.Logger

	mu       sync.Mutex
	page     Page
	selected *reminder.Profile
	lastUser transport.MessageRef
	lastBot  transport.MessageRef
}

func New(gw Gateway, profiles Profiles, log logx.Logger) *Machine {
	return &Machine{
		gw:       gw,
		profiles: profiles,
		log:      log.With(logx.String("comp", "menu")),
		page:     PageClosed,
	}
}

func (m *Machine) Page() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// Selected returns the profile chosen on the selector page, if any.
func (m *Machine) Selected() *reminder.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Handle consumes one inbound text message. It never fails: every input ends
// in a transition or a re-prompt on the same page.
func (m *Machine) Handle(ctx context.Context, msg transport.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setLastUser(ctx, transport.MessageRef{ChatID: msg.ChatID, MessageID: msg.ID})

	if commandName(msg.Text) == CmdSettings {
		m.show(ctx, PageMain)
		return
	}
	if msg.Text == LabelExit {
		m.show(ctx, PageClosed)
		return
	}

	if m.page.profileScoped() && m.selected == nil {
		m.show(ctx, PageProfileSelector)
		return
	}
	out := pages[m.page].handle(ctx, m, msg.Text)
	if out.stay {
		m.log.Debug("menu input rejected", logx.String("page", m.page.String()))
		m.send(ctx, out.errText)
		return
	}
	m.show(ctx, out.next)
}

// show retracts the user's message, switches page and renders its prompt.
func (m *Machine) show(ctx context.Context, p Page) {
	m.retract(ctx, m.lastUser)
	m.lastUser = transport.MessageRef{}

	if p.profileScoped() && m.selected == nil {
		p = PageProfileSelector
	}
	if p != m.page {
		m.log.Debug("menu transition", logx.String("from", m.page.String()), logx.String("to", p.String()))
	}
	m.page = p
	m.send(ctx, pages[p].prompt(m))
}

// send retracts the previous prompt and posts text with the page keyboard.
// Prompts are never hidden.
func (m *Machine) send(ctx context.Context, text string) {
	m.retract(ctx, m.lastBot)
	m.lastBot = transport.MessageRef{}

	ref, err := m.gw.Send(ctx, text, transport.SendOptions{Keyboard: pages[m.page].keyboard(m)})
	if err != nil {
		m.log.Warn("menu prompt send failed", logx.String("page", m.page.String()), logx.Err(err))
		return
	}
	m.lastBot = ref
}

func (m *Machine) setLastUser(ctx context.Context, ref transport.MessageRef) {
	m.retract(ctx, m.lastUser)
	m.lastUser = ref
}

func (m *Machine) retract(ctx context.Context, ref transport.MessageRef) {
	if ref.IsZero() {
		return
	}
	if err := m.gw.Delete(ctx, ref); err != nil {
		m.log.Debug("message delete failed", logx.Int("message_id", ref.MessageID), logx.Err(err))
	}
}

// persisted logs a failed save; the in-memory change still applies.
func (m *Machine) persisted(err error) {
	if err != nil {
		m.log.Warn("settings change not persisted", logx.Err(err))
	}
}
