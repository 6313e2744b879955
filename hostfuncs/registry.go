package hostfuncs

import (
	"context"
	stdErrors "errors"
	"fmt"
	"maps"
	"slices"
)

// HandlerRegistry holds the one-way host imports a guest may call, keyed by
// import name. The boundary registers two: log_message and contract_violation.
// It is fixed at construction, so backends can read it without locking.
type HandlerRegistry struct {
	handlers map[string]ByteHandler
	names    []string
}

// registryBuilder collects handlers, middleware and option errors until
// NewRegistry seals them.
type registryBuilder struct {
	handlers   map[string]ByteHandler
	middleware []Middleware
	errs       []error
}

// NewRegistry seals the handlers given by opts into a HandlerRegistry, each
// wrapped in the middleware chain. Every invalid option is reported.
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithBundle(BoundaryBundle(logger, recorder)),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{handlers: make(map[string]ByteHandler)}
	for _, opt := range opts {
		opt(b)
	}
	if err := stdErrors.Join(b.errs...); err != nil {
		return nil, err
	}

	r := &HandlerRegistry{
		handlers: make(map[string]ByteHandler, len(b.handlers)),
		names:    slices.Sorted(maps.Keys(b.handlers)),
	}
	for name, h := range b.handlers {
		r.handlers[name] = chain(h, b.middleware)
	}
	return r, nil
}

// chain wraps h so that mw[0] runs first.
func chain(h ByteHandler, mw []Middleware) ByteHandler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// Invoke delivers a guest payload to the import registered as name. The
// handler sees the import name through FunctionName(ctx).
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) error {
	h, ok := r.handlers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return h(HostContextFrom(ctx, name), payload)
}

// Has reports whether name is a registered import.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered import names in sorted order. The wazero
// backend exports one host function per name.
func (r *HandlerRegistry) Names() []string {
	return slices.Clone(r.names)
}

func (b *registryBuilder) addHandler(name string, handler ByteHandler) error {
	switch {
	case name == "":
		return fmt.Errorf("handler name cannot be empty")
	case handler == nil:
		return fmt.Errorf("handler %q is nil", name)
	}
	if _, exists := b.handlers[name]; exists {
		return fmt.Errorf("duplicate handler name: %q", name)
	}
	b.handlers[name] = handler
	return nil
}

// WithByteHandler registers handler as the import name.
func WithByteHandler(name string, handler ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addHandler(name, handler); err != nil {
			b.errs = append(b.errs, err)
		}
	}
}

// WithMiddleware appends middleware to the chain. The first one added runs
// outermost.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
