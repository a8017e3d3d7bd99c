package types

import "strings"

// Category is the abstract shape a declared type falls into. Every type
// expression maps to exactly one category; anything outside the known set is
// Unknown, which callers treat as a failed check.
type Category uint8

const (
	Unknown Category = iota
	Unit
	Caller
	HTTPCaller
	Request
	Text
	Binary
	Int
	TimeoutEvent
	SpecificError
	GenericError
	Service
	WSListener
	HTTPListener

	// composite categories, produced only for unions and optionals
	ErrorOrUnit
	DomainErrorUnion
	DomainValue

	categoryCount
)

var categoryNames = [...]string{
	Unknown:          "unknown",
	Unit:             "unit",
	Caller:           "caller",
	HTTPCaller:       "http-caller",
	Request:          "request",
	Text:             "text",
	Binary:           "binary",
	Int:              "int",
	TimeoutEvent:     "timeout-event",
	SpecificError:    "specific-error",
	GenericError:     "generic-error",
	Service:          "service",
	WSListener:       "ws-listener",
	HTTPListener:     "http-listener",
	ErrorOrUnit:      "error-or-unit",
	DomainErrorUnion: "domain-error-union",
	DomainValue:      "domain-value",
}

func (c Category) String() string {
	if c < categoryCount {
		return categoryNames[c]
	}
	return "unknown"
}

// IsError reports whether c is an error category (specific or generic).
func (c Category) IsError() bool {
	return c == SpecificError || c == GenericError
}

// IsValue reports whether c is a known, non-error, non-unit leaf.
func (c Category) IsValue() bool {
	switch c {
	case Caller, HTTPCaller, Request, Text, Binary, Int, TimeoutEvent, Service, WSListener, HTTPListener:
		return true
	}
	return false
}

// Set is a small bit set of categories.
type Set uint32

func SetOf(cs ...Category) Set {
	var s Set
	for _, c := range cs {
		s |= 1 << c
	}
	return s
}

func (s Set) Has(c Category) bool { return s&(1<<c) != 0 }

func (s Set) Empty() bool { return s == 0 }

// Slice returns members in declaration order of the Category constants.
func (s Set) Slice() []Category {
	out := make([]Category, 0, 4)
	for c := Unknown; c < categoryCount; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s Set) String() string {
	parts := make([]string, 0, 4)
	for _, c := range s.Slice() {
		parts = append(parts, c.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
