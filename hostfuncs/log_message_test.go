package hostfuncs

import (
	"context"
	"testing"
	"time"

	"github.com/jdavidagudelo/handoff/wireformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestForwardLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	forward := ForwardLog(zap.New(core))

	stamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	err := forward(context.Background(), wireformat.LogMessageWire{
		Timestamp: stamp,
		Level:     "WARN",
		Message:   "database populated",
		Attrs: []wireformat.LogAttrWire{
			{Key: "handle", Type: "uint64", Value: "1"},
			{Key: "entries", Type: "int64", Value: "100000"},
			{Key: "ok", Type: "bool", Value: "true"},
			{Key: "ratio", Type: "float64", Value: "0.500000"},
			{Key: "op", Type: "string", Value: "populate"},
			{Key: "bad", Type: "int64", Value: "not a number"},
		},
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, stamp, entry.Time)

	fields := entry.ContextMap()
	assert.Equal(t, uint64(1), fields["handle"])
	assert.Equal(t, int64(100000), fields["entries"])
	assert.Equal(t, true, fields["ok"])
	assert.Equal(t, 0.5, fields["ratio"])
	assert.Equal(t, "populate", fields["op"])
	assert.Equal(t, "not a number", fields["bad"], "unparseable values fall back to strings")
}

func TestForwardLog_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	forward := ForwardLog(zap.New(core))

	require.NoError(t, forward(context.Background(), wireformat.LogMessageWire{Level: "DEBUG", Message: "hidden"}))
	assert.Zero(t, logs.Len())
}

func TestZapLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"DEBUG":   zapcore.DebugLevel,
		"DEBUG+2": zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"WARN":    zapcore.WarnLevel,
		"ERROR":   zapcore.ErrorLevel,
		"ERROR+4": zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, zapLevel(in), in)
	}
}
