// Package alert runs the emergency trigger pipeline.
//
// # Pipeline
//
// Orchestrator.Trigger performs, in order:
//
//  1. Precondition: at least one emergency contact, otherwise OutcomeNoContacts
//     before any device capability is touched.
//  2. SMS capability check (required). Missing or unavailable SMS aborts with
//     OutcomeUnsupported.
//  3. Location permission (optional). Denial or error continues without
//     location.
//  4. Position fetch at AccuracyBalanced (optional), bounded by the location
//     timeout. Errors and timeouts continue without location.
//  5. Template expansion with [NAME], [LOCATION], and [TIME] taken at send time.
//  6. "My Location: <map link>" appended, or "Unavailable" without a fix.
//  7. One fan-out Send to every contact phone (required). Failure yields
//     OutcomeFailed.
//
// Only one trigger runs at a time. A call that arrives while another is in
// flight returns OutcomeBusy immediately; bursts of shake events therefore
// never produce duplicate alerts. The in-progress flag is released on every
// exit path, including panics in a capability.
//
// # User-visible outcomes
//
// OutcomeNoContacts, OutcomeUnsupported, and OutcomeFailed are shown through
// the Notifier. Location problems are logged only. There is no automatic
// retry; triggering again is the retry.
//
// # Journal
//
// When a Journal is configured each attempt is appended to the alert log and
// each obtained fix to the location history, both bounded and pruned by the
// privacy auto-delete policy.
package alert
