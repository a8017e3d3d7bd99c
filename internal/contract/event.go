package contract

import "slices"

// EventKind is the closed set of handlers a WebSocket service may declare.
type EventKind uint8

const (
	// EventUpgrade is the resource function that upgrades an HTTP request.
	EventUpgrade EventKind = iota
	EventOpen
	EventClose
	EventError
	EventIdleTimeout
	EventText
	EventBinary
	EventPing
	EventPong

	eventCount
)

var eventNames = [...]string{
	EventUpgrade:     "upgrade",
	EventOpen:        "onOpen",
	EventClose:       "onClose",
	EventError:       "onError",
	EventIdleTimeout: "onIdleTimeout",
	EventText:        "onText",
	EventBinary:      "onBinary",
	EventPing:        "onPing",
	EventPong:        "onPong",
}

func (k EventKind) String() string {
	if k < eventCount {
		return eventNames[k]
	}
	return "unknown"
}

// IsData reports whether the event carries a payload that may be answered
// by returning a value.
func (k EventKind) IsData() bool {
	return k == EventText || k == EventBinary
}

// remote function name -> event
var eventByName = map[string]EventKind{
	"onOpen":          EventOpen,
	"onClose":         EventClose,
	"onError":         EventError,
	"onIdleTimeout":   EventIdleTimeout,
	"onText":          EventText,
	"onTextMessage":   EventText,
	"onString":        EventText,
	"onBinary":        EventBinary,
	"onBinaryMessage": EventBinary,
	"onBytes":         EventBinary,
	"onPing":          EventPing,
	"onPong":          EventPong,
}

// LookupEvent maps a remote function name to the event it handles.
// The upgrade resource is not reachable by name.
func LookupEvent(name string) (EventKind, bool) {
	k, ok := eventByName[name]
	return k, ok
}

// Events returns all kinds in table order.
func Events() []EventKind {
	out := make([]EventKind, 0, eventCount)
	for k := EventUpgrade; k < eventCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseEvent accepts either an event name or any of its remote aliases.
func ParseEvent(s string) (EventKind, bool) {
	for k := EventUpgrade; k < eventCount; k++ {
		if eventNames[k] == s {
			return k, true
		}
	}
	return LookupEvent(s)
}

// Aliases lists the remote function names bound to k, sorted.
func Aliases(k EventKind) []string {
	var out []string
	for name, ev := range eventByName {
		if ev == k {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
