// Package log provides structured logging (slog) for guest code, routed to
// the host through the log_message import.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/jdavidagudelo/handoff/wireformat"
)

// Sink receives encoded LogMessageWire payloads.
type Sink func(ctx context.Context, payload []byte)

// WasmLogHandler implements slog.Handler to route logs through a host function.
type WasmLogHandler struct {
	opts   handlerConfig
	attrs  []wireformat.LogAttrWire
	prefix string
}

// HandlerOption configures the WasmLogHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	sink      Sink
	level     slog.Level
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level will be filtered on the guest side.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithSink delivers payloads to fn instead of the host import.
// The in-process guest uses it to reach the host logger directly.
func WithSink(fn Sink) HandlerOption {
	return func(c *handlerConfig) {
		c.sink = fn
	}
}

// NewHandler creates a new WasmLogHandler with the given options.
func NewHandler(opts ...HandlerOption) *WasmLogHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &WasmLogHandler{opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *WasmLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level
}

// Handle serializes a slog.Record and sends it to the host.
func (h *WasmLogHandler) Handle(ctx context.Context, record slog.Record) error {
	logMsg := wireformat.LogMessageWire{
		Level:     record.Level.String(),
		Message:   record.Message,
		Timestamp: record.Time,
		Attrs:     append([]wireformat.LogAttrWire(nil), h.attrs...),
	}

	record.Attrs(func(attr slog.Attr) bool {
		logMsg.Attrs = append(logMsg.Attrs, h.qualify(toLogAttrWire(attr)))
		return true
	})

	if h.opts.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		logMsg.Attrs = append(logMsg.Attrs, wireformat.LogAttrWire{
			Key:   slog.SourceKey,
			Type:  "string",
			Value: fmt.Sprintf("%s:%d", frame.File, frame.Line),
		})
	}

	payload, err := wireformat.Marshal("LogMessageWire", logMsg)
	if err != nil {
		return err
	}

	if h.opts.sink != nil {
		h.opts.sink(ctx, payload)
		return nil
	}
	sendToHost(payload)
	return nil
}

// WithAttrs returns a new WasmLogHandler that includes the given attributes.
func (h *WasmLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.attrs = append([]wireformat.LogAttrWire(nil), h.attrs...)
	for _, attr := range attrs {
		next.attrs = append(next.attrs, h.qualify(toLogAttrWire(attr)))
	}
	return &next
}

// WithGroup returns a new WasmLogHandler with the given group name.
// Groups are flattened into dotted keys.
func (h *WasmLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *WasmLogHandler) qualify(attr wireformat.LogAttrWire) wireformat.LogAttrWire {
	attr.Key = h.prefix + attr.Key
	return attr
}
