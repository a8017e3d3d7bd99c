package driver

import (
	"wscheck/internal/project"
)

// Options control a diagnose run.
type Options struct {
	// MaxDiagnostics caps each package's bag; 0 means unlimited.
	MaxDiagnostics   int
	Jobs             int // <= 0: GOMAXPROCS
	WarningsAsErrors bool
	IgnoreWarnings   bool
	EnableTimings    bool

	Cache    *DiskCache
	Manifest *project.Manifest

	// OnEvent receives progress events; it is called from worker goroutines.
	OnEvent func(Event)
}

func (o Options) emit(ev Event) {
	if o.OnEvent != nil {
		o.OnEvent(ev)
	}
}
