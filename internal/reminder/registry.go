package reminder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

// Persister writes the whole state.
type Persister interface {
	Save(ctx context.Context, st storage.State) error
}

// Registry owns every profile plus the global settings and serializes persistence.
type Registry struct {
	store Persister
	log   logx.Logger

	hideText atomic.Bool

	order    []string
	profiles map[string]*Profile

	// saveMu keeps whole-state dumps from interleaving.
	saveMu sync.Mutex
}

// NewRegistry builds profiles from persisted state. Empty message lists and
// invalid intervals are load errors.
func NewRegistry(st storage.State, store Persister, log logx.Logger) (*Registry, error) {
	r := &Registry{
		store:    store,
		log:      log.With(logx.String("comp", "reminder.registry")),
		profiles: make(map[string]*Profile, len(st.Profiles)),
	}
	r.hideText.Store(st.HideText)
	for _, rec := range st.Profiles {
		if rec.Name == "" {
			return nil, fmt.Errorf("reminder: profile without a name")
		}
		if _, dup := r.profiles[rec.Name]; dup {
			return nil, fmt.Errorf("reminder: duplicate profile %q", rec.Name)
		}
		if len(rec.Messages) == 0 {
			return nil, fmt.Errorf("profile %q: %w", rec.Name, ErrEmptyMessages)
		}
		iv := Interval{Min: rec.Interval[0], Max: rec.Interval[1]}
		if err := iv.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", rec.Name, err)
		}
		p := NewProfile(rec.Name, rec.Messages, iv)
		p.saver = r
		p.OnChange(func(c Change) {
			r.log.Info("profile updated",
				logx.String("profile", c.Name),
				logx.Bool("messages_changed", c.MessagesChanged),
				logx.Int("messages", len(c.Messages)),
				logx.Bool("interval_changed", c.IntervalChanged),
				logx.Int("min", c.Interval.Min), logx.Int("max", c.Interval.Max))
		})
		r.profiles[rec.Name] = p
		r.order = append(r.order, rec.Name)
	}
	return r, nil
}

// Names returns profile names in their stored order.
func (r *Registry) Names() []string { return append([]string(nil), r.order...) }

func (r *Registry) Get(name string) (*Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.profiles[n])
	}
	return out
}

func (r *Registry) HideText() bool { return r.hideText.Load() }

func (r *Registry) SetHideText(ctx context.Context, v bool) error {
	r.hideText.Store(v)
	r.log.Info("hide text updated", logx.Bool("hide_text", v))
	return r.Save(ctx)
}

func (r *Registry) State() storage.State {
	st := storage.State{HideText: r.HideText(), Profiles: make([]storage.ProfileRecord, 0, len(r.order))}
	for _, p := range r.Profiles() {
		s := p.Snapshot()
		st.Profiles = append(st.Profiles, storage.ProfileRecord{
			Name:     s.Name,
			Messages: s.Messages,
			Interval: [2]int{s.Interval.Min, s.Interval.Max},
		})
	}
	return st
}

// Save dumps every profile and setting. Failures are logged and returned;
// in-memory state is unaffected.
func (r *Registry) Save(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	if err := r.store.Save(ctx, r.State()); err != nil {
		r.log.Warn("state save failed", logx.Err(err))
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// Apply takes settings and profile fields changed outside the bot (config file
// edits). Profiles are never created or removed at runtime; unknown names are
// returned. persist controls whether the result is written back to the store.
func (r *Registry) Apply(ctx context.Context, st storage.State, persist bool) (unknown []string, err error) {
	r.hideText.Store(st.HideText)
	for _, rec := range st.Profiles {
		p, ok := r.profiles[rec.Name]
		if !ok {
			unknown = append(unknown, rec.Name)
			continue
		}
		iv := Interval{Min: rec.Interval[0], Max: rec.Interval[1]}
		if len(rec.Messages) == 0 {
			return unknown, fmt.Errorf("profile %q: %w", rec.Name, ErrEmptyMessages)
		}
		if err := iv.Validate(); err != nil {
			return unknown, fmt.Errorf("profile %q: %w", rec.Name, err)
		}
		if err := p.update(ctx, rec.Messages, &iv, false); err != nil {
			return unknown, fmt.Errorf("profile %q: %w", rec.Name, err)
		}
	}
	if persist {
		return unknown, r.Save(ctx)
	}
	return unknown, nil
}
