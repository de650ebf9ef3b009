// Package settings owns the AppSettings aggregate: defaults, persistence,
// and the emergency contact registry.
//
// # Lifecycle
//
// A Store starts out holding Defaults() with Loading() true. Load reads the
// blob stored under kv.SettingsKey exactly once and decodes it over a fresh
// copy of the defaults, so fields added to the defaults survive an older
// stored record. Absent or malformed records leave the defaults untouched.
//
//	store := settings.NewStore(kvStore, settings.WithLogger(logger))
//	store.Load(ctx)
//
// # Updates
//
// Update takes a pure function of the previous settings; Merge takes a
// Partial. Both are no-ops when the result deep-equals the current value.
// A changed value is visible to Settings() immediately. Its JSON form is
// compared with the last form handed to storage and, only if different,
// submitted to a background writer:
//
//   - Update never waits for storage.
//   - Writes run in submission order; a newer snapshot replaces any that
//     have not started yet, so the last update always wins.
//   - Write failures are logged and dropped. No retries.
//
// Flush waits for submitted writes and exists for shutdown and tests.
//
// # Contacts
//
// ContactRegistry validates drafts at the edit boundary (trimmed name of at
// least 2 characters, phone normalized to an optional + and 10-15 digits)
// and applies pure reducers through Update. The list holds at most
// MaxContacts entries; adding beyond that drops the oldest.
//
// # Sensitivity
//
// GestureSettings.ShakeSensitivity is stored exactly as entered. Consumers
// clamp it with ClampSensitivity at the point of use.
package settings
