// Package platform implements the device capabilities consumed by the core
// packages so the emergency pipeline can run from a terminal.
//
//   - ConsoleSMS prints the outgoing fan-out and can append it to an outbox file.
//   - StaticLocation answers with configured coordinates after a simulated delay.
//   - ReaderMotion decodes JSON-lines accelerometer samples from a stream.
//   - FileAddressBook reads contacts from a TOML file.
//   - ConsoleNotifier prints user-visible alerts.
package platform
