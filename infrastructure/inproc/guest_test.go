package inproc

import (
	"context"
	"testing"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/jdavidagudelo/handoff/guest"
	"github.com/jdavidagudelo/handoff/internal/abi"
	"github.com/jdavidagudelo/handoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newGuest(t *testing.T, opts ...Option) *Guest {
	t.Helper()
	g, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close(context.Background()) })
	return g
}

func TestDispatchCoversEverySignature(t *testing.T) {
	table := dispatchTable()
	for name := range guest.Signatures() {
		assert.Contains(t, table, name)
	}
	assert.Len(t, table, len(guest.Signatures()))
}

func TestGuest_Call(t *testing.T) {
	g := newGuest(t)
	ctx := context.Background()

	res, err := g.Call(ctx, entities.ExportAdd, 40, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{42}, res)

	res, err = g.Call(ctx, entities.ExportDatabaseDestroy, 0)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestGuest_StaticsLiveInArena(t *testing.T) {
	g := newGuest(t)
	res, err := g.Call(context.Background(), entities.ExportStaticArrayView)
	require.NoError(t, err)

	data, ok := g.Memory().Read(uint32(res[0]), entities.StaticArrayLen*entities.Int32Size)
	require.True(t, ok)
	assert.Equal(t, entities.StaticArray(), entities.DecodeInt32s(data))

	stats, err := g.Call(context.Background(), entities.ExportLiveAllocations)
	require.NoError(t, err)
	count, _ := abi.UnpackStats(stats[0])
	assert.Zero(t, count, "statics are not owned allocations")
}

func TestGuest_ParamCount(t *testing.T) {
	g := newGuest(t)
	_, err := g.Call(context.Background(), entities.ExportAdd, 1)

	var ge *errors.GuestError
	require.ErrorAs(t, err, &ge)

	// A rejected call does not reach the guest.
	_, err = g.Call(context.Background(), entities.ExportAdd, 1, 1)
	require.NoError(t, err)
}

func TestGuest_UnknownExport(t *testing.T) {
	g := newGuest(t)
	_, err := g.Call(context.Background(), "_start")

	var ge *errors.GuestError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "_start", ge.Export)
}

func TestGuest_ViolationIsReportedAndTerminates(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g := newGuest(t, WithLogger(zap.New(core)))
	ctx := context.Background()

	_, err := g.Call(ctx, entities.ExportDatabasePopulate, 99)
	cv := testutil.RequireViolation(t, err, errors.ViolationUnknownHandle)
	assert.Equal(t, entities.ExportDatabasePopulate, cv.Operation)
	assert.Equal(t, 1, logs.FilterMessage("guest terminated").Len())

	_, err = g.Call(ctx, entities.ExportAdd, 1, 2)
	testutil.RequireTerminated(t, err)
	assert.ErrorIs(t, err, errors.ErrContractViolation)
}

func TestGuest_NonViolationPanicTerminates(t *testing.T) {
	g := newGuest(t, WithMaxAllocationBytes(16))
	ctx := context.Background()

	_, err := g.Call(ctx, entities.ExportAllocate, 1024)
	var ge *errors.GuestError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, entities.ExportAllocate, ge.Export)

	_, err = g.Call(ctx, entities.ExportAdd, 1, 2)
	testutil.RequireTerminated(t, err)
}

func TestGuest_ForwardsLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g := newGuest(t, WithLogger(zap.New(core)))
	ctx := context.Background()

	res, err := g.Call(ctx, entities.ExportDatabaseCreate)
	require.NoError(t, err)
	_, err = g.Call(ctx, entities.ExportDatabaseDestroy, res[0])
	require.NoError(t, err)

	created := logs.FilterMessage("database created").All()
	require.Len(t, created, 1)
	assert.Equal(t, zap.DebugLevel, created[0].Level)
	assert.EqualValues(t, res[0], created[0].ContextMap()["handle"])
}

func TestGuest_Close(t *testing.T) {
	g := newGuest(t)
	ctx := context.Background()

	_, err := g.Call(ctx, entities.ExportGenerateSong, 3)
	require.NoError(t, err)

	require.NoError(t, g.Close(ctx))
	require.NoError(t, g.Close(ctx))

	_, err = g.Call(ctx, entities.ExportAdd, 1, 2)
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	cfg := config{pages: DefaultPages}
	WithPages(0)(&cfg)
	WithLogger(nil)(&cfg)
	assert.Equal(t, uint32(DefaultPages), cfg.pages)
	assert.Nil(t, cfg.logger)

	WithPages(4)(&cfg)
	WithMaxAllocationBytes(128)(&cfg)
	WithMaxTextBytes(64)(&cfg)
	assert.Equal(t, uint32(4), cfg.pages)
	assert.Equal(t, 128, cfg.maxBytes)
	assert.Equal(t, uint32(64), cfg.maxTextSize)
}
