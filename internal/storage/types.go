package storage

import (
	"context"
	"errors"
	"slices"
	"time"
)

// ErrNotFound means the backing store holds no state and nothing could seed it.
var ErrNotFound = errors.New("storage: state not found")

type ProfileRecord struct {
	Name     string   `json:"name"`
	Messages []string `json:"messages"`
	// Interval is [min, max] in minutes.
	Interval [2]int `json:"interval"`
}

// State is everything a Save writes: the global settings plus every profile, in display order.
type State struct {
	HideText bool            `json:"hide_text"`
	Profiles []ProfileRecord `json:"profiles"`
}

func (s State) Clone() State {
	out := State{HideText: s.HideText, Profiles: make([]ProfileRecord, len(s.Profiles))}
	for i, p := range s.Profiles {
		p.Messages = slices.Clone(p.Messages)
		out.Profiles[i] = p
	}
	return out
}

// Store loads state at startup and overwrites it whole on every change.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
