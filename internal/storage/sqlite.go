package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "remindbot/pkg/logx"
)

//go:embed migrations.sql
var migrations string

const settingHideText = "hide_text"

type sqliteStore struct {
	db   *sql.DB
	log  logx.Logger
	seed State
}

func openSQLite(cfg Config, seed State, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()))
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &sqliteStore{db: db, log: log, seed: seed}, nil
}

func (s *sqliteStore) Load(ctx context.Context) (State, error) {
	st, err := s.read(ctx)
	if err != nil {
		return State{}, err
	}
	if len(st.Profiles) > 0 {
		return st, nil
	}
	if len(s.seed.Profiles) == 0 {
		return State{}, ErrNotFound
	}
	seed := s.seed.Clone()
	if err := s.Save(ctx, seed); err != nil {
		return State{}, fmt.Errorf("seed sqlite: %w", err)
	}
	s.log.Info("sqlite store seeded from config", logx.Int("profiles", len(seed.Profiles)))
	return seed, nil
}

func (s *sqliteStore) read(ctx context.Context) (State, error) {
	var st State

	var hide string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingHideText).Scan(&hide)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return State{}, err
	default:
		st.HideText, _ = strconv.ParseBool(hide)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, messages, min_minutes, max_minutes FROM profiles ORDER BY position, name`)
	if err != nil {
		return State{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p    ProfileRecord
			msgs string
		)
		if err := rows.Scan(&p.Name, &msgs, &p.Interval[0], &p.Interval[1]); err != nil {
			return State{}, err
		}
		if err := json.Unmarshal([]byte(msgs), &p.Messages); err != nil {
			return State{}, fmt.Errorf("profile %q messages: %w", p.Name, err)
		}
		st.Profiles = append(st.Profiles, p)
	}
	return st, rows.Err()
}

// Save replaces every row in one transaction.
func (s *sqliteStore) Save(ctx context.Context, st State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingHideText, strconv.FormatBool(st.HideText)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles`); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i, p := range st.Profiles {
		msgs, err := json.Marshal(p.Messages)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profiles(name, position, messages, min_minutes, max_minutes, updated_at)
			 VALUES(?, ?, ?, ?, ?, ?)`,
			p.Name, i, string(msgs), p.Interval[0], p.Interval[1], now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
