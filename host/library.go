package host

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jdavidagudelo/handoff/application/manifest"
	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"github.com/jdavidagudelo/handoff/internal/abi"
	"go.uber.org/zap"
)

// ErrClosed is returned for calls on a closed Library.
var ErrClosed = stdErrors.New("library closed")

// Library is an opened guest library. It is not safe for concurrent use.
type Library struct {
	guest       ports.Guest
	manifest    *entities.Manifest
	logger      *zap.Logger
	outstanding map[uint32]string
	databases   map[uint32]*Database
	maxText     uint32
	closed      bool
}

// Open verifies that guest exports every entry point of the boundary
// manifest with the exact signature and returns a Library over it.
// The Library takes ownership of guest and closes it on Close.
func Open(ctx context.Context, guest ports.Guest, opts ...Option) (*Library, error) {
	l := &Library{
		guest:       guest,
		logger:      zap.NewNop(),
		outstanding: make(map[uint32]string),
		databases:   make(map[uint32]*Database),
		maxText:     abi.DefaultMaxTextBytes,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.manifest == nil {
		m, err := manifest.Default()
		if err != nil {
			return nil, err
		}
		l.manifest = m
	}
	if err := manifest.Verify(l.manifest, guest.Exports()); err != nil {
		return nil, fmt.Errorf("guest does not match manifest %s %s: %w", l.manifest.Name, l.manifest.Version, err)
	}

	l.logger.Debug("library opened",
		zap.String("manifest", l.manifest.Name), zap.String("version", l.manifest.Version))
	return l, nil
}

// Manifest returns the manifest the guest was verified against.
func (l *Library) Manifest() *entities.Manifest {
	return l.manifest
}

// Close logs every owned value and database still outstanding and closes
// the guest. It is safe to call more than once.
func (l *Library) Close(ctx context.Context) error {
	if l.closed {
		return nil
	}
	l.closed = true

	for _, ptr := range sortedKeys(l.outstanding) {
		l.logger.Warn("owned value leaked", zap.String("kind", l.outstanding[ptr]), zap.Uint32("ptr", ptr))
	}
	for _, h := range sortedKeys(l.databases) {
		l.logger.Warn("database leaked", zap.Uint32("handle", h))
	}
	return l.guest.Close(ctx)
}

// Outstanding returns the number of owned values and databases not yet released.
func (l *Library) Outstanding() int {
	return len(l.outstanding) + len(l.databases)
}

// LiveAllocations reports the count and bytes of owned memory the guest tracks.
func (l *Library) LiveAllocations(ctx context.Context) (count, bytes int, err error) {
	res, err := l.call(ctx, entities.ExportLiveAllocations)
	if err != nil {
		return 0, 0, err
	}
	count, bytes = abi.UnpackStats(res[0])
	return count, bytes, nil
}

// Add returns a + b, wrapping on overflow.
func (l *Library) Add(ctx context.Context, a, b uint32) (uint32, error) {
	res, err := l.call(ctx, entities.ExportAdd, uint64(a), uint64(b))
	if err != nil {
		return 0, err
	}
	return uint32(res[0]), nil //nolint:gosec // G115: i32 result
}

// Flip returns {t.Second + 1, t.First - 1}, wrapping on overflow.
func (l *Library) Flip(ctx context.Context, t entities.Tuple) (entities.Tuple, error) {
	var out entities.Tuple
	image := append(t.Encode(), make([]byte, entities.TupleSize)...)
	err := l.withScratch(ctx, image, func(ptr uint32) error {
		outPtr := ptr + entities.TupleSize
		if _, err := l.call(ctx, entities.ExportFlip, uint64(ptr), uint64(outPtr)); err != nil {
			return err
		}
		buf, err := l.read(outPtr, entities.TupleSize)
		if err != nil {
			return err
		}
		out, _ = entities.DecodeTuple(buf)
		return nil
	})
	return out, err
}

// SumOfEven sums the even values, wrapping on overflow. The values are
// lent to the guest for the duration of the call.
func (l *Library) SumOfEven(ctx context.Context, values []uint32) (uint32, error) {
	if len(values) == 0 {
		res, err := l.call(ctx, entities.ExportSumOfEven, 0, 0)
		if err != nil {
			return 0, err
		}
		return uint32(res[0]), nil //nolint:gosec // G115: i32 result
	}

	var sum uint32
	err := l.withScratch(ctx, entities.EncodeUint32s(values), func(ptr uint32) error {
		res, err := l.call(ctx, entities.ExportSumOfEven, uint64(ptr), uint64(len(values)))
		if err != nil {
			return err
		}
		sum = uint32(res[0]) //nolint:gosec // G115: i32 result
		return nil
	})
	return sum, err
}

// CharCount returns the number of Unicode scalar values in s.
func (l *Library) CharCount(ctx context.Context, s string) (uint32, error) {
	text, err := cText(entities.ExportCharCount, s)
	if err != nil {
		return 0, err
	}
	var n uint32
	err = l.withScratch(ctx, text, func(ptr uint32) error {
		res, err := l.call(ctx, entities.ExportCharCount, uint64(ptr))
		if err != nil {
			return err
		}
		n = uint32(res[0]) //nolint:gosec // G115: i32 result
		return nil
	})
	return n, err
}

// call invokes an export on the guest.
func (l *Library) call(ctx context.Context, export string, params ...uint64) ([]uint64, error) {
	if l.closed {
		return nil, ErrClosed
	}
	return l.guest.Call(ctx, export, params...)
}

// withScratch lends data to the guest in scratch memory for the duration of use.
func (l *Library) withScratch(ctx context.Context, data []byte, use func(ptr uint32) error) (err error) {
	size := uint32(len(data)) //nolint:gosec // G115: bounded by the guest allocator
	res, err := l.call(ctx, entities.ExportAllocate, uint64(size))
	if err != nil {
		return err
	}
	ptr := uint32(res[0]) //nolint:gosec // G115: i32 result
	defer func() {
		if _, derr := l.call(ctx, entities.ExportDeallocate, uint64(ptr), uint64(size)); derr != nil && err == nil {
			err = derr
		}
	}()

	if !l.guest.Memory().Write(ptr, data) {
		return fmt.Errorf("scratch write of %d bytes at 0x%x out of range", size, ptr)
	}
	return use(ptr)
}

// read copies size bytes out of guest memory.
func (l *Library) read(ptr, size uint32) ([]byte, error) {
	buf, ok := l.guest.Memory().Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("read of %d bytes at 0x%x out of range", size, ptr)
	}
	return append([]byte(nil), buf...), nil
}

// cText checks s and returns it NUL-terminated.
func cText(op, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, errors.Violation(op, errors.ViolationInvalidText, "text is not valid UTF-8")
	}
	if i := strings.IndexByte(s, 0); i >= 0 {
		return nil, errors.Violation(op, errors.ViolationInvalidText, "text has a NUL at byte %d", i)
	}
	return abi.CString(s), nil
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
