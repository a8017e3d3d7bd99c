// Package contract holds the signature contracts of WebSocket handlers: which
// qualifier, parameter lists and return shapes each event accepts, and the
// fixed message templates reported when a handler breaks its contract.
//
// Everything here is built once at init and never mutated.
package contract
