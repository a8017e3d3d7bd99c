// Package diag defines the diagnostic model shared by the loader, the
// service-contract checks and the driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier with a stable string form (WS_101,
//     SYN2001, IO4001, ...). All contract violations share WS_101.
//   - Format – the fixed message template. Consumers that need to know which
//     rule failed compare Format, never Message.
//   - Message – human oriented text; equal to Format unless a producer
//     overrides it.
//   - Primary span and optional Notes with secondary spans.
//
// # Emitting diagnostics
//
// Producers talk to a Reporter. BagReporter appends to a Bag, which keeps
// emission order: the contract checks rely on that to report in declaration
// order. Each package run owns its own Bag; bags are never shared between
// goroutines.
//
// Rendering lives in internal/diagfmt.
package diag
