//go:build wasip1

package log

import (
	"log/slog"
	"runtime"
	"unsafe"

	"github.com/jdavidagudelo/handoff/internal/abi"
)

// Define the host function signature for logging messages.
// This matches the import registered by infrastructure/wazero.
//
//go:wasmimport handoff_host log_message
//nolint:revive // intentional snake_case to match WASM import convention
func host_log_message(messagePacked uint64)

// sendToHost passes the payload by address; the host copies it before returning.
func sendToHost(payload []byte) {
	if len(payload) == 0 {
		return
	}
	ptr := abi.AddressOf(unsafe.Pointer(&payload[0]))
	host_log_message(abi.PackPtrLen(ptr, uint32(len(payload)))) //nolint:gosec // G115: wasm32 lengths fit
	runtime.KeepAlive(payload)
}

// init configures the default slog handler to use our WasmLogHandler.
func init() {
	slog.SetDefault(slog.New(NewHandler()))
}
