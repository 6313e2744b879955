package hostfuncs

import (
	"context"

	"go.uber.org/zap"
)

// Middleware is a function that wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next ByteHandler) ByteHandler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that converts a panicking
// handler into a *PanicError instead of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = NewPanicError(FunctionName(ctx), r)
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware returns a middleware that logs host function invocations
// at debug level and failures at warn level.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) error {
			name := FunctionName(ctx)
			logger.Debug("invoking host function", zap.String("function", name), zap.Int("payload_bytes", len(payload)))
			if err := next(ctx, payload); err != nil {
				logger.Warn("host function failed", zap.String("function", name), zap.Error(err))
				return err
			}
			return nil
		}
	}
}
