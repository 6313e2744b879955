package hostfuncs

import (
	"context"
	"strconv"
	"strings"

	"github.com/jdavidagudelo/handoff/wireformat"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ForwardLog returns a NotifyFunc that writes guest log records to logger.
// The guest's timestamp is kept when present.
func ForwardLog(logger *zap.Logger) NotifyFunc[wireformat.LogMessageWire] {
	return func(_ context.Context, msg wireformat.LogMessageWire) error {
		ce := logger.Check(zapLevel(msg.Level), msg.Message)
		if ce == nil {
			return nil
		}
		if !msg.Timestamp.IsZero() {
			ce.Time = msg.Timestamp
		}

		fields := make([]zap.Field, 0, len(msg.Attrs))
		for _, attr := range msg.Attrs {
			fields = append(fields, zapField(attr))
		}
		ce.Write(fields...)
		return nil
	}
}

// zapLevel maps slog level names, including offsets like "INFO+2", to zap levels.
func zapLevel(level string) zapcore.Level {
	switch {
	case strings.HasPrefix(level, "ERROR"):
		return zapcore.ErrorLevel
	case strings.HasPrefix(level, "WARN"):
		return zapcore.WarnLevel
	case strings.HasPrefix(level, "DEBUG"):
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func zapField(attr wireformat.LogAttrWire) zap.Field {
	switch attr.Type {
	case "int64":
		if v, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
			return zap.Int64(attr.Key, v)
		}
	case "uint64":
		if v, err := strconv.ParseUint(attr.Value, 10, 64); err == nil {
			return zap.Uint64(attr.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(attr.Value); err == nil {
			return zap.Bool(attr.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(attr.Value, 64); err == nil {
			return zap.Float64(attr.Key, v)
		}
	}
	return zap.String(attr.Key, attr.Value)
}
