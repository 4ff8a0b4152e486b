// Package storage persists profile and global settings state.
//
// Drivers:
//   - "config": writes back into the config file itself (default)
//   - "file": a standalone JSON state file next to the config
//   - "sqlite": a SQLite database (modernc.org/sqlite, no cgo)
//
// The file and sqlite drivers are seeded from the config's reminders the first time they open empty.
package storage
