// Package wireformat defines the JSON wire format structures the guest sends
// to the host through its imports. These types must remain stable
// and backward compatible as they define the ABI contract.
package wireformat

import (
	"encoding/json"
	"time"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
)

// HostModule is the import module name the guest links against.
const HostModule = "handoff_host"

// Host import names.
const (
	ImportLogMessage        = "log_message"
	ImportContractViolation = "contract_violation"
)

// LogMessageWire is the JSON wire format for a log message from Guest to Host.
type LogMessageWire struct {
	Timestamp time.Time     `json:"timestamp"`
	Attrs     []LogAttrWire `json:"attrs,omitempty"`
	Level     string        `json:"level"`
	Message   string        `json:"message"`
}

// LogAttrWire represents a single slog attribute for wire transfer.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "uint64", "bool", "float64", "time", "duration", "error", "json", "group", "any"
	Value string `json:"value"` // String representation of the value
}

// ErrorDetail is the wire form of a reported contract violation.
type ErrorDetail = entities.ErrorDetail

// Marshal encodes v, wrapping failures in a WireFormatError.
func Marshal(typeName string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &errors.WireFormatError{Operation: "marshal", Type: typeName, Err: err}
	}
	return data, nil
}

// Unmarshal decodes data into v, wrapping failures in a WireFormatError.
func Unmarshal(typeName string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &errors.WireFormatError{Operation: "unmarshal", Type: typeName, Err: err}
	}
	return nil
}
