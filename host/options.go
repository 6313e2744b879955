package host

import (
	"github.com/jdavidagudelo/handoff/domain/entities"
	"go.uber.org/zap"
)

// Option configures Open.
type Option func(*Library)

// WithLogger sets the logger for lifecycle events and leaks.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithManifest verifies the guest against m instead of the embedded manifest.
func WithManifest(m *entities.Manifest) Option {
	return func(l *Library) {
		l.manifest = m
	}
}

// WithMaxTextBytes bounds owned text copied out of the guest.
func WithMaxTextBytes(n uint32) Option {
	return func(l *Library) {
		if n > 0 {
			l.maxText = n
		}
	}
}
