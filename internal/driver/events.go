package driver

import "time"

// Status reports where a package is in a directory run.
type Status uint8

const (
	StatusQueued Status = iota
	StatusLoading
	StatusChecking
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusLoading:
		return "loading"
	case StatusChecking:
		return "checking"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is a progress notification for one package.
type Event struct {
	Dir     string
	Status  Status
	Diags   int  // set on StatusDone
	Cached  bool // result came from the disk cache
	Elapsed time.Duration
	Err     error // set on StatusFailed
}
