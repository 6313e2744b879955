package hostfuncs

import (
	"context"
)

// HostContext wraps a standard context.Context with the name of the
// host function being invoked, for middleware.
type HostContext interface {
	context.Context

	// FunctionName returns the name of the host function being invoked.
	FunctionName() string
}

type hostContext struct {
	context.Context
	funcName string
}

// NewHostContext creates a new HostContext wrapping the given context.
func NewHostContext(ctx context.Context, funcName string) HostContext {
	return &hostContext{Context: ctx, funcName: funcName}
}

// FunctionName returns the name of the host function being invoked.
func (c *hostContext) FunctionName() string {
	return c.funcName
}

// HostContextFrom returns ctx if it already names funcName, or wraps it.
func HostContextFrom(ctx context.Context, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok && hc.FunctionName() == funcName {
		return hc
	}
	return NewHostContext(ctx, funcName)
}

// FunctionName returns the host function name carried by ctx, or "unknown".
func FunctionName(ctx context.Context) string {
	if hc, ok := ctx.(HostContext); ok {
		return hc.FunctionName()
	}
	return "unknown"
}
