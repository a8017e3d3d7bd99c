package trace

import "context"

type ctxKey struct{}

// carrier is what a context holds for tracing: the tracer, the innermost open
// span and the package the work belongs to.
type carrier struct {
	tracer Tracer
	span   uint64
	pkg    string
}

func carrierOf(ctx context.Context) carrier {
	if ctx != nil {
		if c, ok := ctx.Value(ctxKey{}).(carrier); ok {
			return c
		}
	}
	return carrier{tracer: Nop}
}

func (c carrier) into(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext extracts the Tracer from context, or Nop.
func FromContext(ctx context.Context) Tracer {
	return carrierOf(ctx).tracer
}

// WithTracer attaches a Tracer to context. Open spans and the package tag of
// ctx are kept.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	c := carrierOf(ctx)
	c.tracer = t
	return c.into(ctx)
}

// WithPackage tags every event emitted under the returned context with the
// package name, so interleaved parallel runs can be told apart.
func WithPackage(ctx context.Context, name string) context.Context {
	c := carrierOf(ctx)
	if !c.tracer.Enabled() {
		return ctx
	}
	c.pkg = name
	return c.into(ctx)
}
