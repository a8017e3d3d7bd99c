// Package trace records what a wscheck run spends its time on.
//
// Spans are opened around the driver, each package and each pass, and are
// written as log records through logrus (text or JSON), kept in a ring
// buffer for post-mortem dumps, or both.
//
// # Usage
//
//	wscheck diag --trace=- --trace-level=detail ./services
//
// Levels select how deep spans go:
//
//   - off:    nothing
//   - error:  only the ring buffer is dumped when a run fails
//   - phase:  driver and pass spans
//   - detail: plus one span per package
//   - debug:  plus one span per service
//
// A Tracer travels through context.Context; Start opens a child span of
// whatever span the context already carries.
package trace
