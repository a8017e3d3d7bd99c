package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

func nextSeq() uint64 { return seqCounter.Add(1) }

// stamp assigns a sequence number to events created outside this package.
func stamp(ev *Event) {
	if ev.Seq == 0 {
		ev.Seq = nextSeq()
	}
}

// Span tracks one logical operation from Start to End. A Span that was
// filtered out by the level is inert.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	pkg     string
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

func (s *Span) live() bool {
	return s != nil && s.id != 0
}

// Start opens a span under the tracer and span carried by ctx and returns a
// context carrying the new span.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	c := carrierOf(ctx)
	if !c.tracer.Enabled() || !c.tracer.Level().ShouldEmit(scope) {
		return ctx, &Span{}
	}
	s := &Span{
		tracer:  c.tracer,
		id:      spanCounter.Add(1),
		parent:  c.span,
		pkg:     c.pkg,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	s.tracer.Emit(&Event{
		Time:     s.started,
		Seq:      nextSeq(),
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Package:  s.pkg,
		Name:     name,
	})
	c.span = s.id
	return c.into(ctx), s
}

// Point emits an instant event under the span carried by ctx.
func Point(ctx context.Context, scope Scope, name, detail string) {
	c := carrierOf(ctx)
	if !c.tracer.Enabled() || !c.tracer.Level().ShouldEmit(scope) {
		return
	}
	c.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      nextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: c.span,
		Package:  c.pkg,
		Name:     name,
		Detail:   detail,
	})
}

// End emits the span end event and returns the duration.
func (s *Span) End(detail string) time.Duration {
	if !s.live() {
		return 0
	}
	dur := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      nextSeq(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Package:  s.pkg,
		Name:     s.name,
		Detail:   detail,
		Elapsed:  dur,
		Extra:    s.extra,
	})
	return dur
}

// WithExtra adds a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.live() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
