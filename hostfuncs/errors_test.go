package hostfuncs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPanicError_Message(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "boom", "host function log_message: panic: boom"},
		{"error", errors.New("bad"), "host function log_message: panic: bad"},
		{"other", 42, "host function log_message: panic: panic recovered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPanicError("log_message", tt.value).Error())
		})
	}
}
