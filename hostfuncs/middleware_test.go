package hostfuncs

import (
	"context"
	"errors"
	"testing"

	domainerrors "github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	panicHandler := func(context.Context, []byte) error {
		panic("test panic")
	}

	wrapped := PanicRecoveryMiddleware()(panicHandler)

	// Should not panic, should return a structured error
	err := wrapped(NewHostContext(context.Background(), "log_message"), []byte("{}"))

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "log_message", panicErr.Function)
	assert.Contains(t, err.Error(), "test panic")

	detail := domainerrors.ToErrorDetail(err)
	assert.Equal(t, "panic", detail.Code)
}

func TestPanicRecoveryMiddleware_NoPanic(t *testing.T) {
	wrapped := PanicRecoveryMiddleware()(noop)
	assert.NoError(t, wrapped(context.Background(), []byte("{}")))
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mw := LoggingMiddleware(zap.New(core))

	ctx := NewHostContext(context.Background(), "contract_violation")
	require.NoError(t, mw(noop)(ctx, []byte("{}")))

	failing := mw(func(context.Context, []byte) error { return errors.New("bad report") })
	require.Error(t, failing(ctx, nil))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "invoking host function", entries[0].Message)
	assert.Equal(t, "contract_violation", entries[0].ContextMap()["function"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "host function failed", entries[2].Message)
}
