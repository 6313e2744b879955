package host

import (
	"context"
	"fmt"
	"math"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/internal/abi"
	"go.uber.org/zap"
)

// GenerateSong returns the theme song with n repetitions. The caller owns
// the guest text and must Release it, or use WithSong.
func (l *Library) GenerateSong(ctx context.Context, n uint8) (*Owned[string], error) {
	res, err := l.call(ctx, entities.ExportGenerateSong, uint64(n))
	if err != nil {
		return nil, err
	}
	ptr := uint32(res[0]) //nolint:gosec // G115: i32 result

	release := func(ctx context.Context) error {
		delete(l.outstanding, ptr)
		_, err := l.call(ctx, entities.ExportReleaseSong, uint64(ptr))
		return err
	}

	text, err := abi.ReadCString(l.guest.Memory(), ptr, l.maxText)
	if err != nil {
		_ = release(ctx)
		return nil, fmt.Errorf("reading song at 0x%x: %w", ptr, err)
	}

	l.track(ptr, entities.TagText)
	return newOwned(string(text), ptr, release), nil
}

// WithSong generates a song, passes it to use and releases it on every exit path.
func (l *Library) WithSong(ctx context.Context, n uint8, use func(song string) error) error {
	return Scoped(ctx, func(ctx context.Context) (*Owned[string], error) {
		return l.GenerateSong(ctx, n)
	}, use)
}

// BuildOwnedBuffer returns the owned buffer. The full descriptor the guest
// issued is kept and handed back on Release.
func (l *Library) BuildOwnedBuffer(ctx context.Context) (*Owned[[]int32], error) {
	var desc entities.Slice
	err := l.withScratch(ctx, make([]byte, entities.SliceSize), func(outPtr uint32) error {
		if _, err := l.call(ctx, entities.ExportBuildOwnedBuffer, uint64(outPtr)); err != nil {
			return err
		}
		buf, err := l.read(outPtr, entities.SliceSize)
		if err != nil {
			return err
		}
		desc, _ = entities.DecodeSlice(buf)
		return nil
	})
	if err != nil {
		return nil, err
	}

	release := func(ctx context.Context) error {
		delete(l.outstanding, desc.Ptr)
		return l.withScratch(ctx, desc.Encode(), func(descPtr uint32) error {
			_, err := l.call(ctx, entities.ExportReleaseOwnedBuffer, uint64(descPtr))
			return err
		})
	}

	if desc.Len > desc.Cap || desc.ByteCap() > math.MaxUint32 {
		_ = release(ctx)
		return nil, fmt.Errorf("guest issued an invalid descriptor: len %d cap %d", desc.Len, desc.Cap)
	}
	data, err := l.read(desc.Ptr, uint32(desc.ByteLen())) //nolint:gosec // G115: bounded above
	if err != nil {
		_ = release(ctx)
		return nil, fmt.Errorf("reading owned buffer: %w", err)
	}

	l.track(desc.Ptr, entities.TagBuffer)
	return newOwned(entities.DecodeInt32s(data), desc.Ptr, release), nil
}

// WithOwnedBuffer builds the owned buffer, passes it to use and releases it
// on every exit path.
func (l *Library) WithOwnedBuffer(ctx context.Context, use func(values []int32) error) error {
	return Scoped(ctx, l.BuildOwnedBuffer, use)
}

// StaticArrayView returns the read-only static array. The address is stable
// for the life of the guest.
func (l *Library) StaticArrayView(ctx context.Context) (Borrowed[[]int32], error) {
	return l.staticView(ctx, entities.ExportStaticArrayView, entities.StaticArrayLen)
}

// StaticMutableArrayView returns the mutable static array. Nothing in the
// boundary writes to it.
func (l *Library) StaticMutableArrayView(ctx context.Context) (Borrowed[[]int32], error) {
	return l.staticView(ctx, entities.ExportStaticMutableArrayView, entities.StaticMutableArrayLen)
}

func (l *Library) staticView(ctx context.Context, export string, n int) (Borrowed[[]int32], error) {
	res, err := l.call(ctx, export)
	if err != nil {
		return Borrowed[[]int32]{}, err
	}
	ptr := uint32(res[0])                                  //nolint:gosec // G115: i32 result
	data, err := l.read(ptr, uint32(n)*entities.Int32Size) //nolint:gosec // G115: fixed static arrays
	if err != nil {
		return Borrowed[[]int32]{}, err
	}
	return Borrowed[[]int32]{value: entities.DecodeInt32s(data), ptr: ptr}, nil
}

func (l *Library) track(ptr uint32, tag entities.AllocTag) {
	l.outstanding[ptr] = tag.String()
	l.logger.Debug("owned value received", zap.String("kind", tag.String()), zap.Uint32("ptr", ptr))
}
