package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint // instant event
)

var kindNames = [...]string{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point"}

func (k Kind) String() string {
	if k == 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	ScopeDriver  Scope = iota + 1 // whole run
	ScopePass                     // discover, check
	ScopePackage                  // one package directory
	ScopeService                  // one service declaration
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopePass: "pass", ScopePackage: "package", ScopeService: "service"}

func (s Scope) String() string {
	if s == 0 || int(s) >= len(scopeNames) {
		return "unknown"
	}
	return scopeNames[s]
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64 // global, monotonic
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Package  string // set under WithPackage
	Name     string // e.g. "check", "package:chat"
	Detail   string
	Elapsed  time.Duration // span end only
	Extra    map[string]string
}
