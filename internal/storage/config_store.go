package storage

import (
	"context"
	"errors"

	"remindbot/internal/config"
	logx "remindbot/pkg/logx"
)

// configStore keeps state inside the config file: every Save rewrites the
// whole document with the current hide_text and reminders.
type configStore struct {
	doc Document
	log logx.Logger
}

func newConfigStore(doc Document, log logx.Logger) (Store, error) {
	if doc == nil {
		return nil, errors.New("config storage driver needs a config document")
	}
	return &configStore{doc: doc, log: log}, nil
}

func (s *configStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	cur := s.doc.Get()
	if cur == nil || len(cur.Reminders) == 0 {
		return State{}, ErrNotFound
	}
	return StateFromConfig(cur), nil
}

func (s *configStore) Save(ctx context.Context, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := s.doc.Get().Clone()
	if next == nil {
		next = &config.Config{}
	}
	next.HideText = st.HideText
	next.Reminders = make([]config.ReminderConfig, 0, len(st.Profiles))
	for _, p := range st.Profiles {
		next.Reminders = append(next.Reminders, config.ReminderConfig{
			Name:     p.Name,
			Messages: append([]string(nil), p.Messages...),
			Interval: p.Interval,
		})
	}
	return s.doc.Save(next)
}

func (s *configStore) Close() error { return nil }
