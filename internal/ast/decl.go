package ast

import (
	"path"

	"wscheck/internal/source"
)

// Qualifier is the handler qualifier written before `function`.
type Qualifier uint8

const (
	QualPlain Qualifier = iota
	QualResource
	QualRemote
)

func (q Qualifier) String() string {
	switch q {
	case QualResource:
		return "resource"
	case QualRemote:
		return "remote"
	default:
		return "plain"
	}
}

// ServiceKind tells listener-attached services from service classes.
type ServiceKind uint8

const (
	ServiceUnknown ServiceKind = iota
	// ServiceUpgrade is attached to a listener and owns the upgrade resource.
	ServiceUpgrade
	// ServiceEvent is a service class handling connection events.
	ServiceEvent
)

func (k ServiceKind) String() string {
	switch k {
	case ServiceUpgrade:
		return "upgrade"
	case ServiceEvent:
		return "event"
	default:
		return "unknown"
	}
}

type Import struct {
	Module string // org/name
	Alias  string // empty when not given
	Span   source.Span
}

// Prefix returns the name the module is referred to by inside the file.
func (i Import) Prefix() string {
	if i.Alias != "" {
		return i.Alias
	}
	return path.Base(i.Module)
}

type Listener struct {
	Name string
	Type TypeExpr
	// Arg is the value bound as the underlying listener, if any.
	Arg  *TypeExpr
	Span source.Span
}

type Param struct {
	Name     string
	Type     TypeExpr
	Optional bool // has a default value
	Span     source.Span
}

type Function struct {
	Qualifier Qualifier
	Name      string
	Method    string // resource accessor: get, post, ...
	Path      string // resource path
	Params    []Param
	Returns   *TypeExpr // nil: returns nothing

	Span       source.Span
	NameSpan   source.Span
	ReturnSpan source.Span
}

// DisplayName is what diagnostics and logs call the function.
func (f *Function) DisplayName() string {
	if f.Qualifier == QualResource {
		p := f.Path
		if p == "" {
			p = "."
		}
		return f.Method + " " + p
	}
	return f.Name
}

// IsEntry reports whether the function is reachable from outside the service.
func (f *Function) IsEntry() bool {
	return f.Qualifier == QualResource || f.Qualifier == QualRemote
}

type Service struct {
	Kind     ServiceKind
	Name     string // service class name
	Path     string // base path of a listener-attached service
	Listener string // named listener
	// ListenerType is set when the listener is declared inline.
	ListenerType *TypeExpr
	Includes     []TypeExpr
	Functions    []Function
	Span         source.Span
}

func (s *Service) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Path != "" {
		return s.Path
	}
	return "/"
}

type File struct {
	ID        source.FileID
	Path      string
	Imports   []Import
	Listeners []Listener
	Services  []Service
}

// FindListener looks a listener up by name.
func (f *File) FindListener(name string) (*Listener, bool) {
	for i := range f.Listeners {
		if f.Listeners[i].Name == name {
			return &f.Listeners[i], true
		}
	}
	return nil, false
}

// Package is the unit handed to the checks: one directory of descriptions.
type Package struct {
	Name  string
	Dir   string
	Files []*File
}

// FindListener searches every file of the package, in load order.
func (p *Package) FindListener(name string) (*Listener, *File, bool) {
	for _, f := range p.Files {
		if l, ok := f.FindListener(name); ok {
			return l, f, true
		}
	}
	return nil, nil, false
}
