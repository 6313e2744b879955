package inproc

import (
	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/guest"
)

func u32(v uint64) uint32 {
	return uint32(v) //nolint:gosec // G115: wasm i32 params carry 32 bits
}

func one(v uint32) []uint64 {
	return []uint64{uint64(v)}
}

// dispatchTable maps export names to calls on Exports with flat params.
func dispatchTable() map[string]entryFunc {
	return map[string]entryFunc{
		entities.ExportAllocate: func(e *guest.Exports, p []uint64) []uint64 {
			return one(e.Allocate(u32(p[0])))
		},
		entities.ExportDeallocate: func(e *guest.Exports, p []uint64) []uint64 {
			e.Deallocate(u32(p[0]), u32(p[1]))
			return nil
		},
		entities.ExportDatabaseCreate: func(e *guest.Exports, _ []uint64) []uint64 {
			return one(e.DatabaseCreate())
		},
		entities.ExportDatabasePopulate: func(e *guest.Exports, p []uint64) []uint64 {
			e.DatabasePopulate(u32(p[0]))
			return nil
		},
		entities.ExportDatabaseQuery: func(e *guest.Exports, p []uint64) []uint64 {
			return one(e.DatabaseQuery(u32(p[0]), u32(p[1])))
		},
		entities.ExportDatabaseDestroy: func(e *guest.Exports, p []uint64) []uint64 {
			e.DatabaseDestroy(u32(p[0]))
			return nil
		},
		entities.ExportFlip: func(e *guest.Exports, p []uint64) []uint64 {
			e.Flip(u32(p[0]), u32(p[1]))
			return nil
		},
		entities.ExportSumOfEven: func(e *guest.Exports, p []uint64) []uint64 {
			return one(e.SumOfEven(u32(p[0]), u32(p[1])))
		},
		entities.ExportAdd: func(e *guest.Exports, p []uint64) []uint64 {
			return one(e.Add(u32(p[0]), u32(p[1])))
		},
		entities.ExportCharCount: func(e *guest.Exports, p []uint64) []uint64 {
			return one(e.CharCount(u32(p[0])))
		},
		entities.ExportGenerateSong: func(e *guest.Exports, p []uint64) []uint64 {
			return one(e.GenerateSong(u32(p[0])))
		},
		entities.ExportReleaseSong: func(e *guest.Exports, p []uint64) []uint64 {
			e.ReleaseSong(u32(p[0]))
			return nil
		},
		entities.ExportBuildOwnedBuffer: func(e *guest.Exports, p []uint64) []uint64 {
			e.BuildOwnedBuffer(u32(p[0]))
			return nil
		},
		entities.ExportReleaseOwnedBuffer: func(e *guest.Exports, p []uint64) []uint64 {
			e.ReleaseOwnedBuffer(u32(p[0]))
			return nil
		},
		entities.ExportStaticArrayView: func(e *guest.Exports, _ []uint64) []uint64 {
			return one(e.StaticArrayView())
		},
		entities.ExportStaticMutableArrayView: func(e *guest.Exports, _ []uint64) []uint64 {
			return one(e.StaticMutableArrayView())
		},
		entities.ExportLiveAllocations: func(e *guest.Exports, _ []uint64) []uint64 {
			return []uint64{e.LiveAllocations()}
		},
	}
}
