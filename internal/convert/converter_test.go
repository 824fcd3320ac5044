package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/cadence/internal/errors"
	"github.com/zsiec/cadence/internal/logger"
	"github.com/zsiec/cadence/internal/video"
)

func defaultTestConfig() Config {
	return Config{
		TargetRate:        video.FrameRate50,
		InterpStart:       15,
		InterpEnd:         240,
		SceneThreshold:    8.2,
		SceneChangeDetect: false,
		Workers:           2,
		PoolSize:          4,
	}
}

func newTestConverter(t *testing.T, cfg Config, srcTB video.Rational) *Converter {
	t.Helper()
	c, err := New(cfg, video.PixelFormatYUV420P, 32, 32, srcTB, logger.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// recordingLogger captures warn-level entries and their attached errors
// so tests can observe what a session reports.
type recordingLogger struct {
	logger.NullLogger
	warnErrs *[]error
	pending  error
}

func newRecordingLogger() (*recordingLogger, *[]error) {
	errs := &[]error{}
	return &recordingLogger{warnErrs: errs}, errs
}

func (r *recordingLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return r
}

func (r *recordingLogger) WithField(key string, value interface{}) logger.Logger {
	return r
}

func (r *recordingLogger) WithError(err error) logger.Logger {
	return &recordingLogger{warnErrs: r.warnErrs, pending: err}
}

func (r *recordingLogger) Warn(args ...interface{}) {
	*r.warnErrs = append(*r.warnErrs, r.pending)
}

func inputFrame(pts int64, luma int) *video.Frame {
	f := video.NewFrame(video.PixelFormatYUV420P, 32, 32)
	fillFrame(f, luma, 128, 128)
	f.PTS = pts
	return f
}

func TestDeriveTimeBase(t *testing.T) {
	tb, exact := DeriveTimeBase(video.Rational{Num: 1, Den: 25}, video.FrameRate50)
	assert.True(t, exact)
	assert.Equal(t, video.Rational{Num: 1, Den: 50}, tb)

	tb, exact = DeriveTimeBase(video.Rational{Num: 1, Den: 50}, video.FrameRate25)
	assert.True(t, exact)
	assert.Equal(t, video.Rational{Num: 1, Den: 50}, tb)

	tb, exact = DeriveTimeBase(video.Rational{Num: 1, Den: 25}, video.FrameRate29_97)
	assert.True(t, exact)
	assert.Equal(t, video.Rational{Num: 1, Den: 30000}, tb)
}

func TestConverterValidation(t *testing.T) {
	log := logger.NewNullLogger()

	srcTB := video.Rational{Num: 1, Den: 25}

	_, err := New(defaultTestConfig(), video.PixelFormatUnknown, 32, 32, srcTB, log)
	assert.Error(t, err)

	_, err = New(defaultTestConfig(), video.PixelFormatYUV420P, 0, 32, srcTB, log)
	assert.Error(t, err)

	cfg := defaultTestConfig()
	cfg.TargetRate = video.Rational{}
	_, err = New(cfg, video.PixelFormatYUV420P, 32, 32, srcTB, log)
	assert.Error(t, err)

	_, err = New(defaultTestConfig(), video.PixelFormatYUV420P, 32, 32, video.Rational{}, log)
	assert.Error(t, err)
}

// Scenario: 25fps source doubled to 50fps. After priming, every input
// yields two outputs: a clone at the source instant and a half-way
// blend.
func TestConverterUpsample25To50(t *testing.T) {
	c := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})

	out, err := c.Push(inputFrame(0, 100))
	require.NoError(t, err)
	assert.Empty(t, out, "first input emits nothing until the window fills")
	assert.Equal(t, StatePrimed, c.State())

	out, err = c.Push(inputFrame(1, 200))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, StateRunning, c.State())

	// Strictly increasing, spaced 1/50 apart in the 1/50 timebase.
	assert.Equal(t, int64(0), out[0].PTS)
	assert.Equal(t, int64(1), out[1].PTS)
	assert.Equal(t, video.Rational{Num: 1, Den: 50}, out[0].TimeBase)

	// The on-instant output is a clone of the older frame.
	assert.Equal(t, 100, out[0].Sample(0, 4, 4))
	// The in-between output is the equal-weight blend: (100*128 +
	// 200*128 + 128) >> 8 = 150.
	assert.Equal(t, 150, out[1].Sample(0, 4, 4))

	for _, f := range out {
		f.Release()
	}

	out, err = c.Push(inputFrame(2, 100))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].PTS)
	assert.Equal(t, int64(3), out[1].PTS)
	for _, f := range out {
		f.Release()
	}

	stats := c.Stats()
	assert.Equal(t, uint64(3), stats.FramesIn)
	assert.Equal(t, uint64(4), stats.FramesOut)
	assert.Equal(t, uint64(2), stats.Blended)
	assert.Equal(t, uint64(2), stats.Cloned)
}

// Scenario: 50fps source halved to 25fps. Every other input is cloned,
// nothing is blended because the surviving candidates sit exactly on
// source instants inside the dead-zone.
func TestConverterDownsample50To25(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.TargetRate = video.FrameRate25
	c := newTestConverter(t, cfg, video.Rational{Num: 1, Den: 50})

	var outputs []*video.Frame
	for i := int64(0); i < 6; i++ {
		out, err := c.Push(inputFrame(i, int(10*i)))
		require.NoError(t, err)
		outputs = append(outputs, out...)
	}

	require.Len(t, outputs, 3)
	lumas := make([]int, len(outputs))
	var lastPTS int64 = -1
	for i, f := range outputs {
		lumas[i] = f.Sample(0, 4, 4)
		assert.Greater(t, f.PTS, lastPTS, "output timestamps must be strictly increasing")
		lastPTS = f.PTS
		f.Release()
	}
	assert.Equal(t, []int{0, 20, 40}, lumas, "every other source frame survives")
	assert.Zero(t, c.Stats().Blended)
}

// Scenario: the window pair spans a cut. Every candidate inside it is
// cloned from the nearer endpoint, never blended.
func TestConverterSceneGateSuppressesBlends(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.SceneChangeDetect = true
	cfg.SceneThreshold = 8.2
	c := newTestConverter(t, cfg, video.Rational{Num: 1, Den: 25})

	out, err := c.Push(inputFrame(0, 0))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = c.Push(inputFrame(1, 255))
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Both candidates resolve to clones of the older frame: the first
	// by dead-zone, the second by scene gate (ratio at the midpoint).
	assert.Equal(t, 0, out[0].Sample(0, 4, 4))
	assert.Equal(t, 0, out[1].Sample(0, 4, 4))
	for _, f := range out {
		f.Release()
	}

	stats := c.Stats()
	assert.Zero(t, stats.Blended)
	assert.Equal(t, uint64(1), stats.SceneCuts)
	assert.Greater(t, stats.SceneScore, 8.2)
}

// Scenario: a non-monotonic timestamp resets the window; the cursor
// restarts at the new frame's timestamp and no output spans the break.
func TestConverterDiscontinuityResetsWindow(t *testing.T) {
	c := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})

	var before []*video.Frame
	for i := int64(0); i < 3; i++ {
		out, err := c.Push(inputFrame(i, 100))
		require.NoError(t, err)
		before = append(before, out...)
	}
	require.NotEmpty(t, before)
	for _, f := range before {
		f.Release()
	}

	// Backwards jump: 1 rescales to 2, behind the current pts1 of 4.
	out, err := c.Push(inputFrame(1, 30))
	require.NoError(t, err)
	assert.Empty(t, out, "reset leaves the window primed, not running")
	assert.Equal(t, StatePrimed, c.State())

	// The next frame restarts output at the new start timestamp.
	out, err = c.Push(inputFrame(2, 50))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].PTS, "cursor restarts at the reset frame's timestamp")
	assert.Equal(t, int64(3), out[1].PTS)
	assert.Equal(t, 30, out[0].Sample(0, 4, 4), "first post-reset output clones the reset frame")
	for _, f := range out {
		f.Release()
	}
}

func TestConverterDropsFrameWithoutPTS(t *testing.T) {
	c := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})

	f := video.NewFrame(video.PixelFormatYUV420P, 32, 32)
	// PTS left at NoPTS.
	out, err := c.Push(f)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, StateEmpty, c.State())
	assert.Equal(t, uint64(1), c.Stats().Dropped)
	assert.Zero(t, c.Stats().FramesIn)
}

func TestConverterDropsDuplicatePTS(t *testing.T) {
	c := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})

	_, err := c.Push(inputFrame(0, 100))
	require.NoError(t, err)

	out, err := c.Push(inputFrame(0, 200))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, uint64(1), c.Stats().Dropped)
	assert.Equal(t, uint64(1), c.Stats().FramesIn)
}

// A window spanning a cut suppresses every candidate inside it but must
// count as a single scene change.
func TestConverterSceneCutCountedOncePerWindow(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.TargetRate = video.Rational{Num: 100, Den: 1}
	cfg.SceneChangeDetect = true
	c := newTestConverter(t, cfg, video.Rational{Num: 1, Den: 25})

	_, err := c.Push(inputFrame(0, 0))
	require.NoError(t, err)
	out, err := c.Push(inputFrame(1, 255))
	require.NoError(t, err)

	// Four candidates fit the window; the middle two are gated by the
	// cut, the first by the dead-zone, the last clones the newer frame.
	require.Len(t, out, 4)
	for _, f := range out {
		f.Release()
	}

	stats := c.Stats()
	assert.Zero(t, stats.Blended)
	assert.Equal(t, uint64(1), stats.SceneCuts, "one window pair, one cut")
}

func TestConverterDropsCarryTypedErrors(t *testing.T) {
	log, warnErrs := newRecordingLogger()
	c, err := New(defaultTestConfig(), video.PixelFormatYUV420P, 32, 32, video.Rational{Num: 1, Den: 25}, log)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, err = c.Push(video.NewFrame(video.PixelFormatYUV420P, 32, 32))
	require.NoError(t, err)

	_, err = c.Push(inputFrame(0, 100))
	require.NoError(t, err)
	_, err = c.Push(inputFrame(0, 200))
	require.NoError(t, err)

	require.Len(t, *warnErrs, 2)

	missing, ok := errors.GetAppError((*warnErrs)[0])
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeMissingPTS, missing.Type)

	dup, ok := errors.GetAppError((*warnErrs)[1])
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeDuplicatePTS, dup.Type)
}

func TestConverterDiscontinuityWarnsWithTypedError(t *testing.T) {
	log, warnErrs := newRecordingLogger()
	c, err := New(defaultTestConfig(), video.PixelFormatYUV420P, 32, 32, video.Rational{Num: 1, Den: 25}, log)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	for i := int64(0); i < 3; i++ {
		out, perr := c.Push(inputFrame(i, 100))
		require.NoError(t, perr)
		for _, f := range out {
			f.Release()
		}
	}

	out, err := c.Push(inputFrame(1, 100))
	require.NoError(t, err)
	assert.Empty(t, out)

	require.Len(t, *warnErrs, 1)
	appErr, ok := errors.GetAppError((*warnErrs)[0])
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeDiscontinuity, appErr.Type)
}

func TestConverterFlushEmptySession(t *testing.T) {
	c := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})

	f, err := c.Flush()
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Equal(t, StateDone, c.State())
}

func TestConverterFlushSingleFrameSession(t *testing.T) {
	c := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})

	_, err := c.Push(inputFrame(0, 77))
	require.NoError(t, err)

	f, err := c.Flush()
	require.NoError(t, err)
	require.NotNil(t, f, "a single-frame stream still produces its first frame on flush")
	assert.Equal(t, StateFlushing, c.State())
	assert.Equal(t, int64(0), f.PTS)
	assert.Equal(t, 77, f.Sample(0, 4, 4))
	f.Release()

	// Flush drains exactly one trailing candidate.
	f, err = c.Flush()
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Equal(t, StateDone, c.State())
}

func TestConverterFlushBoundedByLastDelta(t *testing.T) {
	c := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})

	_, err := c.Push(inputFrame(0, 0))
	require.NoError(t, err)
	out, err := c.Push(inputFrame(1, 255))
	require.NoError(t, err)
	for _, f := range out {
		f.Release()
	}

	// The trailing candidate lands on pts1, within pts1+delta, and
	// clones the newer frame (ratio past the dead-zone end).
	f, err := c.Flush()
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, int64(2), f.PTS)
	assert.Equal(t, 255, f.Sample(0, 4, 4))
	f.Release()
}

func TestConverterOutputSpacingExact(t *testing.T) {
	c := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})

	var pts []int64
	for i := int64(0); i < 20; i++ {
		out, err := c.Push(inputFrame(i, 100))
		require.NoError(t, err)
		for _, f := range out {
			pts = append(pts, f.PTS)
			f.Release()
		}
	}

	require.NotEmpty(t, pts)
	for i := 1; i < len(pts); i++ {
		assert.Equal(t, pts[i-1]+1, pts[i], "outputs must be evenly spaced at 1/50 in the 1/50 timebase")
	}
}

func TestConverterCloneSharesStorageWithSource(t *testing.T) {
	c := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})

	first := inputFrame(0, 100)
	_, err := c.Push(first)
	require.NoError(t, err)

	out, err := c.Push(inputFrame(1, 200))
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.True(t, out[0].SharesStorage(first), "clones must not copy pixel storage")
	assert.False(t, out[1].SharesStorage(first), "blends allocate fresh storage")
	for _, f := range out {
		f.Release()
	}
}

func TestConverterSessionID(t *testing.T) {
	a := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})
	b := newTestConverter(t, defaultTestConfig(), video.Rational{Num: 1, Den: 25})
	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}
