// Package guest implements the library side of the boundary: the opaque
// zip-code database, the borrowed-view operations and the owned text and
// buffer transfers.
//
// Exports works on raw linear-memory offsets so the same code backs the
// wasip1 exports and the in-process guest. Every broken precondition panics
// with a *errors.ContractViolationError before any memory is touched; the
// caller of an export decides how to fail fast.
package guest

import (
	stdErrors "errors"
	"log/slog"
	"math"
	"unicode/utf8"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"github.com/jdavidagudelo/handoff/internal/abi"
	"github.com/jdavidagudelo/handoff/internal/handles"
	"github.com/jdavidagudelo/handoff/internal/payload"
)

// Statics locates the process-lifetime arrays in linear memory.
type Statics struct {
	Array        uint32
	MutableArray uint32
}

// Exports is one guest instance. It is not safe for concurrent use.
type Exports struct {
	mem     ports.Memory
	ledger  *abi.Ledger
	dbs     *handles.Table[*payload.ZipCodeDatabase]
	logger  *slog.Logger
	statics Statics
	maxText uint32
	// buffers holds every owned-buffer descriptor issued and not yet released.
	buffers map[uint32]entities.Slice
}

// Option configures Exports.
type Option func(*Exports)

// WithLogger sets the guest logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exports) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxTextBytes bounds the NUL scan for text inputs.
func WithMaxTextBytes(n uint32) Option {
	return func(e *Exports) {
		if n > 0 {
			e.maxText = n
		}
	}
}

// New creates a guest instance over mem, tracking owned memory in ledger.
func New(mem ports.Memory, ledger *abi.Ledger, statics Statics, opts ...Option) *Exports {
	e := &Exports{
		mem:     mem,
		ledger:  ledger,
		dbs:     handles.NewTable[*payload.ZipCodeDatabase](),
		logger:  slog.Default(),
		statics: statics,
		maxText: abi.DefaultMaxTextBytes,
		buffers: make(map[uint32]entities.Slice),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allocate reserves scratch memory for the host to fill.
func (e *Exports) Allocate(size uint32) uint32 {
	ptr, err := e.ledger.Allocate(size, entities.TagScratch)
	if err != nil {
		panic(err)
	}
	return ptr
}

// Deallocate releases scratch memory. Unknown pointers are ignored.
// Owned text and buffers cannot be released here.
func (e *Exports) Deallocate(ptr, size uint32) {
	const op = entities.ExportDeallocate
	a, ok := e.ledger.Lookup(ptr)
	if !ok {
		return
	}
	if a.Tag != entities.TagScratch {
		fail(op, errors.ViolationForeignPointer, "0x%x is owned %s and has a dedicated release", ptr, a.Tag)
	}
	if a.Size != size {
		fail(op, errors.ViolationDescriptorMismatch, "0x%x holds %d bytes, released as %d", ptr, a.Size, size)
	}
	e.mustFree(op, e.ledger.Free(ptr, size, entities.TagScratch))
}

// DatabaseCreate returns a handle to a new empty database.
func (e *Exports) DatabaseCreate() uint32 {
	h := e.dbs.Insert(payload.NewZipCodeDatabase())
	if h.IsNull() {
		panic(stdErrors.New("database handle space exhausted"))
	}
	e.logger.Debug("database created", slog.Uint64("handle", uint64(h)))
	return uint32(h)
}

// DatabasePopulate fills the database behind handle.
func (e *Exports) DatabasePopulate(handle uint32) {
	db := e.database(entities.ExportDatabasePopulate, handle)
	db.Populate()
	e.logger.Debug("database populated", slog.Uint64("handle", uint64(handle)), slog.Int("entries", db.Len()))
}

// DatabaseQuery returns the population of the NUL-terminated zip at keyPtr.
func (e *Exports) DatabaseQuery(handle, keyPtr uint32) uint32 {
	const op = entities.ExportDatabaseQuery
	db := e.database(op, handle)
	key := e.text(op, keyPtr)
	return db.PopulationOf(string(key))
}

// DatabaseDestroy releases the database behind handle. The null handle is a no-op.
func (e *Exports) DatabaseDestroy(handle uint32) {
	if handle == 0 {
		return
	}
	if _, ok := e.dbs.Remove(entities.Handle(handle)); !ok {
		fail(entities.ExportDatabaseDestroy, errors.ViolationUnknownHandle, "handle %d is not live", handle)
	}
	e.logger.Debug("database destroyed", slog.Uint64("handle", uint64(handle)))
}

// Flip reads a Tuple at inPtr and writes the flipped Tuple at outPtr.
func (e *Exports) Flip(inPtr, outPtr uint32) {
	const op = entities.ExportFlip
	in, _ := entities.DecodeTuple(e.read(op, inPtr, entities.TupleSize))
	e.write(op, outPtr, payload.Flip(in).Encode())
}

// SumOfEven sums the even values of the borrowed u32 view.
func (e *Exports) SumOfEven(ptr, length uint32) uint32 {
	const op = entities.ExportSumOfEven
	if length == 0 {
		return 0
	}
	byteLen := uint64(length) * entities.Int32Size
	if byteLen > math.MaxUint32 {
		fail(op, errors.ViolationOutOfBounds, "%d elements overflow the address space", length)
	}
	return payload.SumOfEven(entities.DecodeUint32s(e.read(op, ptr, uint32(byteLen))))
}

// Add returns a + b, wrapping.
func (e *Exports) Add(a, b uint32) uint32 {
	return payload.Add(a, b)
}

// CharCount counts the Unicode scalar values of the NUL-terminated text.
func (e *Exports) CharCount(textPtr uint32) uint32 {
	n, _ := payload.CharCount(e.text(entities.ExportCharCount, textPtr))
	return n
}

// GenerateSong returns owned NUL-terminated text. Only the low 8 bits of n are used.
func (e *Exports) GenerateSong(n uint32) uint32 {
	song := abi.CString(payload.ThemeSong(uint8(n))) //nolint:gosec // G115: the song length is a u8
	ptr, err := e.ledger.Allocate(uint32(len(song)), entities.TagText)
	if err != nil {
		panic(err)
	}
	e.write(entities.ExportGenerateSong, ptr, song)
	e.logger.Debug("song generated", slog.Uint64("ptr", uint64(ptr)), slog.Int("bytes", len(song)))
	return ptr
}

// ReleaseSong reclaims text returned by GenerateSong. Null is a no-op.
func (e *Exports) ReleaseSong(ptr uint32) {
	if ptr == 0 {
		return
	}
	_, err := e.ledger.FreeByPointer(ptr, entities.TagText)
	e.mustFree(entities.ExportReleaseSong, err)
}

// BuildOwnedBuffer writes a Slice descriptor for a new owned buffer at outPtr.
func (e *Exports) BuildOwnedBuffer(outPtr uint32) {
	const op = entities.ExportBuildOwnedBuffer
	e.read(op, outPtr, entities.SliceSize) // reject a bad destination before allocating

	values := payload.OwnedBuffer()
	desc := entities.Slice{
		Len: uint32(len(values)), //nolint:gosec // G115: fixed six element buffer
		Cap: uint32(cap(values)), //nolint:gosec // G115: fixed six element buffer
		Tag: entities.TagBuffer,
	}
	ptr, err := e.ledger.Allocate(uint32(desc.ByteCap()), entities.TagBuffer) //nolint:gosec // G115: fixed six element buffer
	if err != nil {
		panic(err)
	}
	desc.Ptr = ptr
	e.buffers[ptr] = desc

	e.write(op, ptr, entities.EncodeInt32s(values))
	e.write(op, outPtr, desc.Encode())
}

// ReleaseOwnedBuffer reclaims a buffer through the descriptor BuildOwnedBuffer wrote.
// An empty descriptor is a no-op.
func (e *Exports) ReleaseOwnedBuffer(descPtr uint32) {
	const op = entities.ExportReleaseOwnedBuffer
	desc, _ := entities.DecodeSlice(e.read(op, descPtr, entities.SliceSize))
	if desc.IsNull() {
		if desc.Len != 0 {
			fail(op, errors.ViolationNullPointer, "null buffer with length %d", desc.Len)
		}
		return
	}

	a, ok := e.ledger.Lookup(desc.Ptr)
	if !ok {
		fail(op, errors.ViolationForeignPointer, "0x%x was not issued or is already released", desc.Ptr)
	}
	issued, ok := e.buffers[desc.Ptr]
	if !ok || desc.Tag != entities.TagBuffer {
		fail(op, errors.ViolationForeignPointer, "0x%x is %s, descriptor says %s", desc.Ptr, a.Tag, desc.Tag)
	}
	if desc != issued {
		fail(op, errors.ViolationDescriptorMismatch, "len %d cap %d, issued len %d cap %d",
			desc.Len, desc.Cap, issued.Len, issued.Cap)
	}
	e.mustFree(op, e.ledger.Free(issued.Ptr, uint32(issued.ByteCap()), entities.TagBuffer)) //nolint:gosec // G115: issued sizes fit
	delete(e.buffers, issued.Ptr)
}

// StaticArrayView returns the address of the read-only static array.
func (e *Exports) StaticArrayView() uint32 {
	return e.statics.Array
}

// StaticMutableArrayView returns the address of the mutable static array.
func (e *Exports) StaticMutableArrayView() uint32 {
	return e.statics.MutableArray
}

// LiveAllocations returns the packed count and size of tracked memory.
func (e *Exports) LiveAllocations() uint64 {
	return abi.PackStats(e.ledger.Stats())
}

// Reset drops every database and tracked allocation.
func (e *Exports) Reset() {
	e.dbs.Clear()
	e.ledger.FreeAll()
	clear(e.buffers)
}

func (e *Exports) database(op string, handle uint32) *payload.ZipCodeDatabase {
	if handle == 0 {
		fail(op, errors.ViolationNullHandle, "handle is null")
	}
	db, ok := e.dbs.Get(entities.Handle(handle))
	if !ok {
		fail(op, errors.ViolationUnknownHandle, "handle %d is not live", handle)
	}
	return db
}

func (e *Exports) read(op string, ptr, size uint32) []byte {
	if ptr == 0 {
		fail(op, errors.ViolationNullPointer, "pointer is null")
	}
	buf, ok := e.mem.Read(ptr, size)
	if !ok {
		fail(op, errors.ViolationOutOfBounds, "%d bytes at 0x%x", size, ptr)
	}
	return buf
}

func (e *Exports) write(op string, ptr uint32, data []byte) {
	if ptr == 0 {
		fail(op, errors.ViolationNullPointer, "pointer is null")
	}
	if !e.mem.Write(ptr, data) {
		fail(op, errors.ViolationOutOfBounds, "%d bytes at 0x%x", len(data), ptr)
	}
}

// text reads borrowed NUL-terminated UTF-8.
func (e *Exports) text(op string, ptr uint32) []byte {
	if ptr == 0 {
		fail(op, errors.ViolationNullPointer, "text pointer is null")
	}
	b, err := abi.ReadCString(e.mem, ptr, e.maxText)
	switch {
	case stdErrors.Is(err, abi.ErrOutOfBounds):
		fail(op, errors.ViolationOutOfBounds, "text at 0x%x runs past memory", ptr)
	case err != nil:
		fail(op, errors.ViolationInvalidText, "%v", err)
	}
	if !utf8.Valid(b) {
		fail(op, errors.ViolationInvalidText, "text at 0x%x is not valid UTF-8", ptr)
	}
	return b
}

// mustFree converts a ledger rejection into a violation.
func (e *Exports) mustFree(op string, err error) {
	switch {
	case err == nil:
	case stdErrors.Is(err, abi.ErrUntracked), stdErrors.Is(err, abi.ErrTagMismatch):
		fail(op, errors.ViolationForeignPointer, "%v", err)
	default:
		fail(op, errors.ViolationDescriptorMismatch, "%v", err)
	}
}
