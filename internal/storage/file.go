package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "remindbot/pkg/logx"
)

// fileStore is a dependency-free backend: one JSON snapshot replaced on every Save.
type fileStore struct {
	path string
	log  logx.Logger

	mu   sync.Mutex
	seed State
}

func openFile(cfg Config, seed State, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{path: path, log: log, seed: seed}, nil
}

func (s *fileStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if len(s.seed.Profiles) == 0 {
			return State{}, ErrNotFound
		}
		st := s.seed.Clone()
		if err := s.writeLocked(st); err != nil {
			return State{}, fmt.Errorf("seed state file: %w", err)
		}
		s.log.Info("state file seeded from config", logx.String("path", s.path), logx.Int("profiles", len(st.Profiles)))
		return st, nil
	}
	if err != nil {
		return State{}, err
	}

	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{}, fmt.Errorf("state file %s: %w", s.path, err)
	}
	if len(st.Profiles) == 0 {
		return State{}, ErrNotFound
	}
	return st, nil
}

func (s *fileStore) Save(ctx context.Context, st State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(st)
}

func (s *fileStore) writeLocked(st State) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *fileStore) Close() error { return nil }
