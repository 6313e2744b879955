package hostfuncs

import (
	"context"

	"github.com/jdavidagudelo/handoff/wireformat"
)

// ByteHandler is a function that accepts a raw payload read from guest memory.
// Every handoff_host import is one-way, so handlers return only an error.
type ByteHandler func(ctx context.Context, payload []byte) error

// NotifyFunc is a typed one-way host function.
type NotifyFunc[Req any] func(context.Context, Req) error

// NewNotifyHandler wraps a typed NotifyFunc into a ByteHandler that decodes
// the JSON payload first.
//
// Usage:
//
//	logHandler := hostfuncs.NewNotifyHandler("LogMessageWire", func(ctx context.Context, msg wireformat.LogMessageWire) error {
//	    return nil
//	})
func NewNotifyHandler[Req any](typeName string, fn NotifyFunc[Req]) ByteHandler {
	return func(ctx context.Context, payload []byte) error {
		var req Req
		if err := wireformat.Unmarshal(typeName, payload, &req); err != nil {
			return err
		}
		return fn(ctx, req)
	}
}
