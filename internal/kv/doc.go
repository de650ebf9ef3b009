// Package kv provides the fail-safe string key-value store that backs every
// persisted piece of guardian state.
//
// # Architecture
//
// Two layers keep storage failures from escaping into the rest of the program:
//
//   - Backend: a raw storage engine that reports errors (SQLiteBackend,
//     MemoryBackend).
//   - Store: the fail-safe contract consumed by callers. Get reports
//     "no value" and Set/Delete report "not confirmed" instead of failing.
//
// Adapter turns any Backend into a Store, logging and swallowing errors.
//
// # Backend Selection
//
// Open picks the backend exactly once at process start:
//
//	store, closer := kv.Open(kv.Options{Driver: "sqlite", Path: dbPath}, logger)
//	defer closer.Close()
//
// A durable SQLite file is preferred. When no path is configured, or the
// database cannot be opened, Open degrades to a MemoryBackend that lives for
// the rest of the process. There is no hot-swapping afterwards.
//
// # SQLite Drivers
//
// Two drivers are registered:
//
//   - "sqlite": modernc.org/sqlite, pure Go (default)
//   - "sqlite3": github.com/mattn/go-sqlite3, requires cgo
//
// Both use the same single-table schema:
//
//	CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TEXT NOT NULL)
package kv
