// Package handshake is the runtime side of a validated WebSocket service:
// it binds Go handlers to a service declaration that passed validation,
// performs the client handshake and dispatches frames to the handlers by
// event kind.
package handshake
