package transport

import "context"

type UpdateKind string

const (
	UpdateMessage UpdateKind = "message"
)

type Update struct {
	Kind    UpdateKind
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
}

type ChatTarget struct {
	ChatID int64
}

// MessageRef identifies a message already on the channel. The zero value means "none".
type MessageRef struct {
	ChatID    int64
	MessageID int
}

func (r MessageRef) IsZero() bool { return r.MessageID == 0 }

// Keyboard is a gateway-neutral reply keyboard shape.
// Remove asks the gateway to take any visible keyboard away; otherwise Rows are rendered.
type Keyboard struct {
	Remove bool
	Rows   [][]string
}

func RemoveKeyboard() *Keyboard { return &Keyboard{Remove: true} }

func Rows(rows ...[]string) *Keyboard { return &Keyboard{Rows: rows} }

// Labels flattens the rows in display order.
func (k *Keyboard) Labels() []string {
	if k == nil {
		return nil
	}
	var out []string
	for _, r := range k.Rows {
		out = append(out, r...)
	}
	return out
}

type SendOptions struct {
	// Spoiler hides the whole text behind a spoiler.
	Spoiler  bool
	Keyboard *Keyboard
}

type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	DeleteMessage(ctx context.Context, ref MessageRef) error
}
