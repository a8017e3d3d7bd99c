package trace

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// StreamTracer writes events as they happen through a logrus logger, which
// serialises concurrent writes.
type StreamTracer struct {
	log   *logrus.Logger
	w     io.Writer
	level Level
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{log: newLogger(w, format), w: w, level: level}
}

func (t *StreamTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	stamp(ev)
	logEvent(t.log, ev)
}

func (t *StreamTracer) Flush() error {
	switch w := t.w.(type) {
	case interface{ Flush() error }:
		return w.Flush()
	case *os.File:
		if w == os.Stdout || w == os.Stderr {
			return nil
		}
		return w.Sync()
	}
	return nil
}

// Close flushes and closes files it opened; stdout and stderr stay open.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if f, ok := t.w.(*os.File); ok && (f == os.Stdout || f == os.Stderr) {
		return nil
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
