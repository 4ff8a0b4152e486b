// Package reminder holds reminder profiles and the workers that send them.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"remindbot/internal/config"
)

var (
	ErrEmptyMessages   = errors.New("reminder: message list is empty")
	ErrInvalidInterval = errors.New("reminder: interval must satisfy 0 < min <= max <= MaxMinutes")
)

// MaxMinutes is the largest accepted interval bound.
const MaxMinutes = config.MaxIntervalMinutes

// Interval is an inclusive range of minutes.
type Interval struct {
	Min, Max int
}

func (iv Interval) Validate() error {
	if iv.Min <= 0 || iv.Max <= 0 || iv.Min > iv.Max || iv.Max > MaxMinutes {
		return fmt.Errorf("%w: got %d..%d", ErrInvalidInterval, iv.Min, iv.Max)
	}
	return nil
}

// Snapshot is a consistent copy of a profile's fields.
type Snapshot struct {
	Name     string
	Messages []string
	Interval Interval
}

// Change is delivered to listeners after a mutation.
type Change struct {
	Snapshot
	MessagesChanged bool
	IntervalChanged bool
}

// Saver persists the whole state. The registry owning a profile provides it.
type Saver interface {
	Save(ctx context.Context) error
}

// Profile is a named reminder configuration shared by its worker and the menu.
// Fields are guarded by mu; mutators are serialized by setMu so listeners see
// changes in the order they were made.
type Profile struct {
	name string

	setMu sync.Mutex

	mu        sync.RWMutex
	messages  []string
	interval  Interval
	listeners []func(Change)

	saver Saver
}

func NewProfile(name string, messages []string, iv Interval) *Profile {
	return &Profile{name: name, messages: slices.Clone(messages), interval: iv}
}

func (p *Profile) Name() string { return p.name }

func (p *Profile) Messages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.messages)
}

func (p *Profile) Interval() Interval {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interval
}

func (p *Profile) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{Name: p.name, Messages: slices.Clone(p.messages), Interval: p.interval}
}

// OnChange registers fn to run synchronously inside every mutator, after the
// fields are updated and before persistence.
func (p *Profile) OnChange(fn func(Change)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// SetMessages replaces the message list and persists the whole state.
// The in-memory change stands even if persisting fails.
func (p *Profile) SetMessages(ctx context.Context, messages []string) error {
	if len(messages) == 0 {
		return ErrEmptyMessages
	}
	return p.update(ctx, messages, nil, true)
}

// SetInterval replaces the interval and persists the whole state.
func (p *Profile) SetInterval(ctx context.Context, iv Interval) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	return p.update(ctx, nil, &iv, true)
}

func (p *Profile) update(ctx context.Context, messages []string, iv *Interval, persist bool) error {
	p.setMu.Lock()
	defer p.setMu.Unlock()

	p.mu.Lock()
	ch := Change{}
	if messages != nil && !slices.Equal(messages, p.messages) {
		p.messages = slices.Clone(messages)
		ch.MessagesChanged = true
	}
	if iv != nil && *iv != p.interval {
		p.interval = *iv
		ch.IntervalChanged = true
	}
	ch.Snapshot = Snapshot{Name: p.name, Messages: slices.Clone(p.messages), Interval: p.interval}
	listeners := slices.Clone(p.listeners)
	saver := p.saver
	p.mu.Unlock()

	if ch.MessagesChanged || ch.IntervalChanged {
		for _, fn := range listeners {
			fn(ch)
		}
	}
	if !persist || saver == nil {
		return nil
	}
	return saver.Save(ctx)
}
