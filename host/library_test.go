package host

import (
	"context"
	"strings"
	"testing"

	"github.com/jdavidagudelo/handoff/domain/entities"
	"github.com/jdavidagudelo/handoff/domain/errors"
	"github.com/jdavidagudelo/handoff/domain/ports"
	"github.com/jdavidagudelo/handoff/infrastructure/inproc"
	"github.com/jdavidagudelo/handoff/infrastructure/wazero"
	"github.com/jdavidagudelo/handoff/internal/payload"
	"github.com/jdavidagudelo/handoff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// LibrarySuite runs the boundary contract against one backend.
type LibrarySuite struct {
	suite.Suite
	newGuest func(t *testing.T) ports.Guest
	// stride samples the zip-code range; 1 checks every key.
	stride uint32

	ctx  context.Context
	logs *observer.ObservedLogs
	lib  *Library
}

func TestLibrary_InProc(t *testing.T) {
	suite.Run(t, &LibrarySuite{
		newGuest: func(t *testing.T) ports.Guest {
			g, err := inproc.New()
			require.NoError(t, err)
			return g
		},
		stride: 1,
	})
}

func TestLibrary_Wazero(t *testing.T) {
	suite.Run(t, &LibrarySuite{
		newGuest: func(t *testing.T) ports.Guest {
			g, err := wazero.Load(context.Background(), testutil.GuestWasm(t))
			require.NoError(t, err)
			return g
		},
		stride: 997,
	})
}

func (s *LibrarySuite) SetupTest() {
	s.ctx = context.Background()
	core, logs := observer.New(zap.DebugLevel)
	s.logs = logs

	lib, err := Open(s.ctx, s.newGuest(s.T()), WithLogger(zap.New(core)))
	s.Require().NoError(err)
	s.lib = lib
}

func (s *LibrarySuite) TearDownTest() {
	if s.lib != nil {
		s.NoError(s.lib.Close(s.ctx))
	}
}

// requireNoLeaks checks both sides agree nothing owned is outstanding.
func (s *LibrarySuite) requireNoLeaks() {
	count, bytes, err := s.lib.LiveAllocations(s.ctx)
	s.Require().NoError(err)
	s.Zero(count, "guest allocations")
	s.Zero(bytes, "guest bytes")
	s.Zero(s.lib.Outstanding(), "host outstanding")
}

func (s *LibrarySuite) TestDatabase_QueryBeforePopulate() {
	db, err := s.lib.CreateDatabase(s.ctx)
	s.Require().NoError(err)
	defer db.Close(s.ctx) //nolint:errcheck

	s.False(db.Handle().IsNull())
	for _, zip := range []string{"00000", "12345", "99999"} {
		n, err := db.PopulationOf(s.ctx, zip)
		s.Require().NoError(err)
		s.Zero(n, zip)
	}
}

func (s *LibrarySuite) TestDatabase_Populate() {
	db, err := s.lib.CreateDatabase(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(db.Populate(s.ctx))

	for i := uint32(0); i < payload.ZipCodeCount; i += s.stride {
		n, err := db.PopulationOf(s.ctx, payload.FormatZip(i))
		s.Require().NoError(err)
		s.Require().Equal(i, n)
	}
	last, err := db.PopulationOf(s.ctx, "99999")
	s.Require().NoError(err)
	s.Equal(uint32(99999), last)

	outside, err := db.PopulationOf(s.ctx, "999999")
	s.Require().NoError(err)
	s.Zero(outside)

	// Populating again changes nothing.
	s.Require().NoError(db.Populate(s.ctx))
	n, err := db.PopulationOf(s.ctx, "00042")
	s.Require().NoError(err)
	s.Equal(uint32(42), n)

	s.Require().NoError(db.Close(s.ctx))
	s.requireNoLeaks()
}

func (s *LibrarySuite) TestDatabase_HandlesAreDistinct() {
	a, err := s.lib.CreateDatabase(s.ctx)
	s.Require().NoError(err)
	b, err := s.lib.CreateDatabase(s.ctx)
	s.Require().NoError(err)
	s.NotEqual(a.Handle(), b.Handle())

	s.Require().NoError(a.Populate(s.ctx))
	n, err := b.PopulationOf(s.ctx, "00007")
	s.Require().NoError(err)
	s.Zero(n, "populating one database leaves the other empty")

	s.NoError(a.Close(s.ctx))
	s.NoError(b.Close(s.ctx))
}

func (s *LibrarySuite) TestDatabase_CloseIsIdempotent() {
	db, err := s.lib.CreateDatabase(s.ctx)
	s.Require().NoError(err)

	s.NoError(db.Close(s.ctx))
	s.NoError(db.Close(s.ctx))

	var nilDB *Database
	s.NoError(nilDB.Close(s.ctx))
	s.requireNoLeaks()
}

func (s *LibrarySuite) TestDatabase_UseAfterClose() {
	db, err := s.lib.CreateDatabase(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(db.Close(s.ctx))

	testutil.RequireViolation(s.T(), db.Populate(s.ctx), errors.ViolationUseAfterRelease)
	_, err = db.PopulationOf(s.ctx, "00001")
	testutil.RequireViolation(s.T(), err, errors.ViolationUseAfterRelease)

	// Caught before crossing, so the guest is still usable.
	sum, err := s.lib.Add(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.Equal(uint32(2), sum)
}

func (s *LibrarySuite) TestDatabase_InvalidKey() {
	db, err := s.lib.CreateDatabase(s.ctx)
	s.Require().NoError(err)
	defer db.Close(s.ctx) //nolint:errcheck

	_, err = db.PopulationOf(s.ctx, "0\xff001")
	testutil.RequireViolation(s.T(), err, errors.ViolationInvalidText)
	_, err = db.PopulationOf(s.ctx, "00\x00001")
	testutil.RequireViolation(s.T(), err, errors.ViolationInvalidText)
}

func (s *LibrarySuite) TestFlip() {
	tests := []struct {
		in, want entities.Tuple
	}{
		{entities.Tuple{First: 5, Second: 10}, entities.Tuple{First: 11, Second: 4}},
		{entities.Tuple{First: 0, Second: 10}, entities.Tuple{First: 11, Second: 0xFFFFFFFF}},
		{entities.Tuple{First: 1, Second: 0xFFFFFFFF}, entities.Tuple{First: 0, Second: 0}},
	}
	for _, tt := range tests {
		got, err := s.lib.Flip(s.ctx, tt.in)
		s.Require().NoError(err)
		s.Equal(tt.want, got, "flip(%+v)", tt.in)
	}
	s.requireNoLeaks()
}

func (s *LibrarySuite) TestSumOfEven() {
	tests := []struct {
		values []uint32
		want   uint32
	}{
		{nil, 0},
		{[]uint32{}, 0},
		{[]uint32{1, 2, 3, 4}, 6},
		{[]uint32{2}, 2},
		{[]uint32{1, 3, 5}, 0},
		{[]uint32{0xFFFFFFFE, 4}, 2},
	}
	for _, tt := range tests {
		got, err := s.lib.SumOfEven(s.ctx, tt.values)
		s.Require().NoError(err)
		s.Equal(tt.want, got, "sumOfEven(%v)", tt.values)
	}
	s.requireNoLeaks()
}

func (s *LibrarySuite) TestAdd() {
	got, err := s.lib.Add(s.ctx, 2, 3)
	s.Require().NoError(err)
	s.Equal(uint32(5), got)

	got, err = s.lib.Add(s.ctx, 0xFFFFFFFF, 1)
	s.Require().NoError(err)
	s.Zero(got)
}

func (s *LibrarySuite) TestCharCount() {
	tests := []struct {
		text string
		want uint32
	}{
		{"", 0},
		{"hello", 5},
		{"😀", 1},
		{"e\u0301", 2},
		{"日本語", 3},
	}
	for _, tt := range tests {
		got, err := s.lib.CharCount(s.ctx, tt.text)
		s.Require().NoError(err)
		s.Equal(tt.want, got, "charCount(%q)", tt.text)
	}

	_, err := s.lib.CharCount(s.ctx, "\xc3\x28")
	testutil.RequireViolation(s.T(), err, errors.ViolationInvalidText)
	s.requireNoLeaks()
}

func (s *LibrarySuite) TestGenerateSong() {
	song, err := s.lib.GenerateSong(s.ctx, 0)
	s.Require().NoError(err)
	value, err := song.Value()
	s.Require().NoError(err)
	s.Equal(payload.SongPrefix+payload.SongSuffix, value)
	s.NotZero(song.Ptr())
	s.Require().NoError(song.Release(s.ctx))

	song, err = s.lib.GenerateSong(s.ctx, 3)
	s.Require().NoError(err)
	value, _ = song.Value()
	s.True(strings.HasPrefix(value, payload.SongPrefix))
	s.True(strings.HasSuffix(value, payload.SongSuffix))
	middle := strings.TrimSuffix(strings.TrimPrefix(value, payload.SongPrefix), payload.SongSuffix)
	s.Equal(strings.Repeat(payload.SongToken, 3), middle)

	count, _, err := s.lib.LiveAllocations(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Require().NoError(song.Release(s.ctx))
	s.requireNoLeaks()
}

func (s *LibrarySuite) TestOwned_ReleaseOnce() {
	song, err := s.lib.GenerateSong(s.ctx, 1)
	s.Require().NoError(err)

	s.NoError(song.Release(s.ctx))
	s.True(song.Released())
	s.NoError(song.Release(s.ctx), "a second release does not cross the boundary")

	_, err = song.Value()
	s.ErrorIs(err, errors.ErrReleased)
	s.requireNoLeaks()
}

func (s *LibrarySuite) TestBuildOwnedBuffer() {
	buf, err := s.lib.BuildOwnedBuffer(s.ctx)
	s.Require().NoError(err)

	values, err := buf.Value()
	s.Require().NoError(err)
	s.Equal([]int32{11, 13, 17, 19, 23, 29}, values)
	s.Len(values, 6)

	count, bytes, err := s.lib.LiveAllocations(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
	s.Equal(6*entities.Int32Size, bytes)

	s.Require().NoError(buf.Release(s.ctx))
	s.requireNoLeaks()
}

func (s *LibrarySuite) TestScoped_ReleasesOnEveryPath() {
	s.Run("success", func() {
		var got []int32
		s.Require().NoError(s.lib.WithOwnedBuffer(s.ctx, func(values []int32) error {
			got = values
			return nil
		}))
		s.Len(got, 6)
		s.requireNoLeaks()
	})

	s.Run("error", func() {
		err := s.lib.WithSong(s.ctx, 2, func(string) error { return assert.AnError })
		s.ErrorIs(err, assert.AnError)
		s.requireNoLeaks()
	})

	s.Run("panic", func() {
		s.Panics(func() {
			_ = s.lib.WithSong(s.ctx, 2, func(string) error { panic("boom") })
		})
		s.requireNoLeaks()
	})

	s.Run("acquire failure", func() {
		err := Scoped(s.ctx, func(context.Context) (*Owned[string], error) {
			return nil, assert.AnError
		}, func(string) error {
			s.Fail("use must not run")
			return nil
		})
		s.ErrorIs(err, assert.AnError)
	})
}

func (s *LibrarySuite) TestStaticViews() {
	first, err := s.lib.StaticArrayView(s.ctx)
	s.Require().NoError(err)
	second, err := s.lib.StaticArrayView(s.ctx)
	s.Require().NoError(err)

	s.NotZero(first.Ptr())
	s.Equal(first.Ptr(), second.Ptr())
	s.Equal([]int32{11, 27, 31}, first.Value())

	mutable, err := s.lib.StaticMutableArrayView(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int32{1, 2, 3, 4}, mutable.Value())
	s.NotEqual(first.Ptr(), mutable.Ptr())

	s.requireNoLeaks()
}

func (s *LibrarySuite) TestGuestViolationTerminates() {
	_, err := s.lib.call(s.ctx, entities.ExportDatabaseQuery, 0, 0)
	cv := testutil.RequireViolation(s.T(), err, errors.ViolationNullHandle)
	s.Equal(entities.ExportDatabaseQuery, cv.Operation)

	_, err = s.lib.Add(s.ctx, 1, 1)
	testutil.RequireTerminated(s.T(), err)
}

func (s *LibrarySuite) TestForeignReleaseIsViolation() {
	song, err := s.lib.GenerateSong(s.ctx, 1)
	s.Require().NoError(err)

	_, err = s.lib.call(s.ctx, entities.ExportReleaseSong, uint64(song.Ptr()+1))
	testutil.RequireViolation(s.T(), err, errors.ViolationForeignPointer)
}

func (s *LibrarySuite) TestCloseLogsLeaks() {
	_, err := s.lib.GenerateSong(s.ctx, 1)
	s.Require().NoError(err)
	_, err = s.lib.CreateDatabase(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.lib.Close(s.ctx))
	s.Equal(1, s.logs.FilterMessage("owned value leaked").Len())
	s.Equal(1, s.logs.FilterMessage("database leaked").Len())

	_, err = s.lib.Add(s.ctx, 1, 1)
	s.ErrorIs(err, ErrClosed)
}

func TestOpen_ManifestMismatch(t *testing.T) {
	g, err := inproc.New()
	require.NoError(t, err)

	m := &entities.Manifest{
		Name:    "extended",
		Version: "2.0.0",
		EntryPoints: []entities.EntryPoint{{
			Name:      "multiply",
			Signature: entities.Signature{Params: []entities.ValueType{"i32", "i32"}, Results: []entities.ValueType{"i32"}},
		}},
	}
	_, err = Open(context.Background(), g, WithManifest(m))

	var me *errors.ManifestError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "multiply", me.Export)
}

func TestOwned_Nil(t *testing.T) {
	var o *Owned[string]
	assert.True(t, o.Released())
	assert.Zero(t, o.Ptr())
	assert.NoError(t, o.Release(context.Background()))
	_, err := o.Value()
	assert.ErrorIs(t, err, errors.ErrReleased)
}
