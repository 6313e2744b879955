package hostfuncs

import (
	"context"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/wireformat"
	"go.uber.org/zap"
)

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple handlers at once for common use cases.
type HostFuncBundle interface {
	// Handlers returns a map of handler names to ByteHandler functions.
	Handlers() map[string]ByteHandler
}

// staticBundle implements HostFuncBundle with a fixed set of handlers.
type staticBundle struct {
	handlers map[string]ByteHandler
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

// BoundaryBundle returns the handoff_host imports:
// log_message forwards guest records to logger, contract_violation stores
// the report in recorder.
func BoundaryBundle(logger *zap.Logger, recorder *ViolationRecorder) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			wireformat.ImportLogMessage: NewNotifyHandler("LogMessageWire", ForwardLog(logger)),
			wireformat.ImportContractViolation: NewNotifyHandler("ErrorDetail", func(ctx context.Context, detail entities.ErrorDetail) error {
				return recorder.Record(ctx, detail)
			}),
		},
	}
}

// NewBoundaryRegistry builds the registry every backend serves the guest imports from.
func NewBoundaryRegistry(logger *zap.Logger, recorder *ViolationRecorder) (*HandlerRegistry, error) {
	return NewRegistry(
		WithMiddleware(PanicRecoveryMiddleware(), LoggingMiddleware(logger)),
		WithBundle(BoundaryBundle(logger, recorder)),
	)
}

// WithBundle registers all handlers from a bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for name, handler := range bundle.Handlers() {
			if err := b.addHandler(name, handler); err != nil {
				b.errs = append(b.errs, err)
			}
		}
	}
}
