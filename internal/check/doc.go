// Package check validates WebSocket service declarations against the handler
// contracts in package contract. Both validators are pure: they read an
// ast.Package and append diagnostics to a diag.Reporter in declaration order.
package check
