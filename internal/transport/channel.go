package transport

import "context"

// Sender is the outbound half of an Adapter.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	DeleteMessage(ctx context.Context, ref MessageRef) error
}

// Channel binds a Sender to the single chat this bot talks to.
type Channel struct {
	sender Sender
	target ChatTarget
}

func NewChannel(s Sender, chatID int64) *Channel {
	return &Channel{sender: s, target: ChatTarget{ChatID: chatID}}
}

func (c *Channel) ChatID() int64 { return c.target.ChatID }

func (c *Channel) Send(ctx context.Context, text string, opt SendOptions) (MessageRef, error) {
	return c.sender.SendText(ctx, c.target, text, &opt)
}

// Delete is a no-op for the zero ref.
func (c *Channel) Delete(ctx context.Context, ref MessageRef) error {
	if ref.IsZero() {
		return nil
	}
	if ref.ChatID == 0 {
		ref.ChatID = c.target.ChatID
	}
	return c.sender.DeleteMessage(ctx, ref)
}
