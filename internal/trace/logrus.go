package trace

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Format selects the logrus formatter used for trace output.
type Format uint8

const (
	FormatAuto Format = iota // from the output file extension
	FormatText
	FormatJSON
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "json", "ndjson":
		return FormatJSON, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|json)", s)
	}
}

func newLogger(w io.Writer, format Format) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.TraceLevel)
	if format == FormatJSON {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:    true,
			FullTimestamp:    true,
			TimestampFormat:  "15:04:05.000000",
			QuoteEmptyFields: true,
		})
	}
	return l
}

// logEvent writes ev as one log record; the event name is the message.
func logEvent(l *logrus.Logger, ev *Event) {
	fields := logrus.Fields{
		"kind":  ev.Kind.String(),
		"scope": ev.Scope.String(),
		"seq":   ev.Seq,
	}
	if ev.SpanID != 0 {
		fields["span"] = ev.SpanID
	}
	if ev.ParentID != 0 {
		fields["parent"] = ev.ParentID
	}
	if ev.Package != "" {
		fields["package"] = ev.Package
	}
	if ev.Detail != "" {
		fields["detail"] = ev.Detail
	}
	if ev.Kind == KindSpanEnd {
		fields["elapsed_ms"] = strconv.FormatFloat(float64(ev.Elapsed)/float64(time.Millisecond), 'f', 3, 64)
	}
	for k, v := range ev.Extra {
		fields["x."+k] = v
	}
	l.WithFields(fields).WithTime(ev.Time).Log(levelFor(ev.Scope), ev.Name)
}

func levelFor(s Scope) logrus.Level {
	switch s {
	case ScopeDriver, ScopePass:
		return logrus.InfoLevel
	case ScopePackage:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}
