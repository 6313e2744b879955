//go:build wasip1

package guest

import (
	"encoding/json"
	"log/slog"
	"os"
	"runtime"
	"unsafe"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/jdavidagudelo/handoff/internal/abi"
	guestlog "github.com/jdavidagudelo/handoff/log"
)

// Report a violation to the host right before exiting.
//
//go:wasmimport handoff_host contract_violation
//nolint:revive // intentional snake_case to match WASM import convention
func host_contract_violation(detailPacked uint64)

// Process-lifetime backing for the static views; the host sees their addresses.
var (
	staticArray        = [entities.StaticArrayLen]int32(entities.StaticArray())
	staticMutableArray = [entities.StaticMutableArrayLen]int32(entities.StaticMutableArray())
)

var instance = newInstance()

func newInstance() *Exports {
	mem := abi.NewLinearMemory()
	statics := Statics{
		Array:        abi.AddressOf(unsafe.Pointer(&staticArray[0])),
		MutableArray: abi.AddressOf(unsafe.Pointer(&staticMutableArray[0])),
	}
	// The host logger decides what to keep, so everything is sent.
	logger := slog.New(guestlog.NewHandler(guestlog.WithLevel(slog.LevelDebug)))
	return New(mem, abi.NewLedger(mem), statics, WithLogger(logger))
}

// guard turns a violation raised by the running export into a report and an
// immediate exit. Other panics keep unwinding and trap.
func guard() {
	r := recover()
	if r == nil {
		return
	}
	cv, ok := AsViolation(r)
	if !ok {
		panic(r)
	}
	reportViolation(cv)
	os.Exit(errors.ExitContractViolation)
}

func reportViolation(cv *errors.ContractViolationError) {
	data, err := json.Marshal(cv.ToErrorDetail())
	if err != nil || len(data) == 0 {
		return
	}
	ptr := abi.AddressOf(unsafe.Pointer(&data[0]))
	host_contract_violation(abi.PackPtrLen(ptr, uint32(len(data)))) //nolint:gosec // G115: wasm32 lengths fit
	runtime.KeepAlive(data)
}

//go:wasmexport allocate
func allocate(size uint32) uint32 {
	defer guard()
	return instance.Allocate(size)
}

//go:wasmexport deallocate
func deallocate(ptr, size uint32) {
	defer guard()
	instance.Deallocate(ptr, size)
}

//go:wasmexport database_create
func databaseCreate() uint32 {
	defer guard()
	return instance.DatabaseCreate()
}

//go:wasmexport database_populate
func databasePopulate(handle uint32) {
	defer guard()
	instance.DatabasePopulate(handle)
}

//go:wasmexport database_query
func databaseQuery(handle, keyPtr uint32) uint32 {
	defer guard()
	return instance.DatabaseQuery(handle, keyPtr)
}

//go:wasmexport database_destroy
func databaseDestroy(handle uint32) {
	defer guard()
	instance.DatabaseDestroy(handle)
}

//go:wasmexport flip
func flip(inPtr, outPtr uint32) {
	defer guard()
	instance.Flip(inPtr, outPtr)
}

//go:wasmexport sum_of_even
func sumOfEven(ptr, length uint32) uint32 {
	defer guard()
	return instance.SumOfEven(ptr, length)
}

//go:wasmexport add
func add(a, b uint32) uint32 {
	return instance.Add(a, b)
}

//go:wasmexport char_count
func charCount(textPtr uint32) uint32 {
	defer guard()
	return instance.CharCount(textPtr)
}

//go:wasmexport generate_song
func generateSong(n uint32) uint32 {
	defer guard()
	return instance.GenerateSong(n)
}

//go:wasmexport release_song
func releaseSong(ptr uint32) {
	defer guard()
	instance.ReleaseSong(ptr)
}

//go:wasmexport build_owned_buffer
func buildOwnedBuffer(outPtr uint32) {
	defer guard()
	instance.BuildOwnedBuffer(outPtr)
}

//go:wasmexport release_owned_buffer
func releaseOwnedBuffer(descPtr uint32) {
	defer guard()
	instance.ReleaseOwnedBuffer(descPtr)
}

//go:wasmexport static_array_view
func staticArrayView() uint32 {
	return instance.StaticArrayView()
}

//go:wasmexport static_mutable_array_view
func staticMutableArrayView() uint32 {
	return instance.StaticMutableArrayView()
}

//go:wasmexport live_allocations
func liveAllocations() uint64 {
	return instance.LiveAllocations()
}
