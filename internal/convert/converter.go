package convert

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/zsiec/cadence/internal/errors"
	"github.com/zsiec/cadence/internal/logger"
	"github.com/zsiec/cadence/internal/metrics"
	"github.com/zsiec/cadence/internal/video"
)

// State tracks the scheduler's position in the stream lifecycle.
type State uint8

const (
	StateEmpty    State = iota // no frames seen
	StatePrimed                // one frame seen, window not yet full
	StateRunning               // both window slots set
	StateFlushing              // upstream exhausted, draining last window
	StateDone                  // terminal
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePrimed:
		return "primed"
	case StateRunning:
		return "running"
	case StateFlushing:
		return "flushing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Config holds the conversion parameters for one session.
type Config struct {
	// TargetRate is the output frame rate.
	TargetRate video.Rational

	// InterpStart and InterpEnd bound the blend ratio range, expressed
	// on the 0-255 scale of 8-bit input and shifted up for deeper
	// formats. Ratios outside the range clone the nearer endpoint.
	InterpStart int
	InterpEnd   int

	// SceneThreshold is the score at or above which a window pair is
	// treated as spanning a cut. SceneChangeDetect enables the gate.
	SceneThreshold    float64
	SceneChangeDetect bool

	// Workers is the blend fan-out width; 0 means GOMAXPROCS.
	Workers int

	// PoolSize is the number of recycled output buffers to retain.
	PoolSize int
}

// Converter resamples a timestamped frame sequence to a fixed target
// rate. Push may emit zero, one, or many output frames per input;
// Flush drains at most one trailing candidate once upstream is done.
//
// Control flow is single threaded: Push and Flush must not be called
// concurrently. Stats is safe from other goroutines.
type Converter struct {
	cfg Config

	srcTimeBase video.Rational
	dstTimeBase video.Rational

	bitDepth    int
	max         int
	interpStart int
	interpEnd   int

	detector *SceneDetector
	blender  *Blender

	// Two-slot sliding window, timestamps in dstTimeBase.
	f0    *video.Frame
	f1    *video.Frame
	pts0  int64
	pts1  int64
	delta int64

	// Scene score cache, valid for the current window pair only.
	score float64

	// Whether the current window's cut has been counted; a window
	// spanning a cut suppresses every candidate inside it but is one
	// scene change.
	cutCounted bool

	// Output cursor.
	startPTS int64
	n        int64

	state    State
	flushing bool

	sessionID   string
	logger      logger.Logger
	warnLimiter *rate.Limiter

	framesIn   atomic.Uint64
	framesOut  atomic.Uint64
	cloned     atomic.Uint64
	blended    atomic.Uint64
	dropped    atomic.Uint64
	sceneCuts  atomic.Uint64
	lastScore  atomic.Uint64 // float64 bits
	stateAtom  atomic.Uint32
}

// New creates a converter for frames of the given format and geometry,
// carrying timestamps in srcTimeBase.
func New(cfg Config, format video.PixelFormat, width, height int, srcTimeBase video.Rational, log logger.Logger) (*Converter, error) {
	if !format.IsValid() {
		return nil, errInvalidFormat(format)
	}
	if width <= 0 || height <= 0 {
		return nil, errInvalidGeometry(width, height)
	}
	if !cfg.TargetRate.IsValid() {
		return nil, errInvalidRate(cfg.TargetRate)
	}
	if !srcTimeBase.IsValid() {
		return nil, errInvalidTimeBase(srcTimeBase)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 8
	}

	sessionID := uuid.New().String()
	entry := log.WithFields(logger.Fields{
		"session_id": sessionID,
		"component":  "converter",
	})

	blender, err := NewBlender(format, width, height, workers, cfg.PoolSize, entry)
	if err != nil {
		return nil, err
	}

	bitDepth := format.BitDepth()
	c := &Converter{
		cfg:         cfg,
		srcTimeBase: srcTimeBase,
		bitDepth:    bitDepth,
		max:         1 << bitDepth,
		interpStart: cfg.InterpStart << (bitDepth - 8),
		interpEnd:   cfg.InterpEnd << (bitDepth - 8),
		detector:    NewSceneDetector(bitDepth),
		blender:     blender,
		score:       -1,
		startPTS:    video.NoPTS,
		sessionID:   sessionID,
		logger:      entry,
		warnLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}

	dstTB, exact := DeriveTimeBase(srcTimeBase, cfg.TargetRate)
	c.dstTimeBase = dstTB
	entry.WithFields(logger.Fields{
		"src_time_base": srcTimeBase.String(),
		"dst_time_base": dstTB.String(),
		"fps":           cfg.TargetRate.String(),
		"exact":         exact,
	}).Info("Derived destination time base")
	if !exact {
		entry.WithError(errors.NewInexactTimebaseError(
			fmt.Sprintf("time base %s cannot carry rate %s exactly", dstTB, cfg.TargetRate),
		)).Warn("Timebase conversion is not exact")
	}

	entry.WithFields(logger.Fields{
		"interp_start": c.interpStart,
		"interp_end":   c.interpEnd,
		"scene":        cfg.SceneThreshold,
		"scd":          cfg.SceneChangeDetect,
		"workers":      workers,
	}).Info("Converter configured")

	return c, nil
}

// DeriveTimeBase chooses the coarsest rational timebase that can carry
// the target rate exactly relative to the source timebase, via GCD
// reduction. The second return value reports exactness; an inexact
// timebase is a usable best-effort approximation.
func DeriveTimeBase(srcTB, dstRate video.Rational) (video.Rational, bool) {
	num := video.GCD(int64(srcTB.Num)*int64(dstRate.Num), int64(srcTB.Den)*int64(dstRate.Den))
	den := int64(srcTB.Den) * int64(dstRate.Num)
	return video.Reduce(num, den, math.MaxInt32)
}

// SessionID returns the unique ID of this conversion session.
func (c *Converter) SessionID() string {
	return c.sessionID
}

// DstTimeBase returns the destination timebase output PTS are in.
func (c *Converter) DstTimeBase() video.Rational {
	return c.dstTimeBase
}

// State returns the scheduler state.
func (c *Converter) State() State {
	return State(c.stateAtom.Load())
}

func (c *Converter) setState(s State) {
	c.state = s
	c.stateAtom.Store(uint32(s))
}

// Push feeds one input frame and returns every output frame that is due
// before the next input is needed. Ownership of frame transfers to the
// converter; returned frames are owned by the caller. A frame with no
// or a duplicate timestamp is dropped with a warning and no state
// change. A non-fatal drop returns (nil, nil).
func (c *Converter) Push(frame *video.Frame) ([]*video.Frame, error) {
	if frame.PTS == video.NoPTS {
		c.drop(frame, "missing_pts", errors.NewMissingTimestampError(), "Ignoring frame without PTS")
		return nil, nil
	}

	pts := video.RescaleQ(frame.PTS, frame.TimeBase.OrDefault(c.srcTimeBase), c.dstTimeBase)
	if c.f1 != nil && pts == c.pts1 {
		c.drop(frame, "duplicate_pts", errors.NewDuplicateTimestampError(pts), "Ignoring frame with same PTS")
		return nil, nil
	}

	// Shift the window.
	if c.f0 != nil {
		c.f0.Release()
	}
	c.f0, c.pts0 = c.f1, c.pts1
	c.f1, c.pts1 = frame, pts
	c.delta = c.pts1 - c.pts0
	c.score = -1
	c.cutCounted = false

	if c.f0 != nil && c.delta < 0 {
		c.logger.WithError(errors.NewDiscontinuityError(c.pts0, c.pts1)).WithFields(logger.Fields{
			"pts0": c.pts0,
			"pts1": c.pts1,
		}).Warn("PTS discontinuity, resetting window")
		metrics.IncWindowResets()
		c.startPTS = c.pts1
		c.n = 0
		c.f0.Release()
		c.f0 = nil
	}

	if c.startPTS == video.NoPTS {
		c.startPTS = c.pts1
	}

	if c.f0 == nil {
		c.setState(StatePrimed)
	} else {
		c.setState(StateRunning)
	}

	c.framesIn.Add(1)
	metrics.IncFramesInput()

	var out []*video.Frame
	for {
		work, err := c.processWorkFrame()
		if err != nil {
			return out, err
		}
		if work == nil {
			return out, nil
		}
		out = append(out, work)
	}
}

// Flush signals end of stream. It emits at most one trailing output
// bounded by pts1+delta; a nil frame means the stream is fully drained.
func (c *Converter) Flush() (*video.Frame, error) {
	if c.f1 == nil || c.flushing {
		c.setState(StateDone)
		return nil, nil
	}

	c.flushing = true
	c.setState(StateFlushing)

	work, err := c.processWorkFrame()
	if err != nil {
		return nil, err
	}
	if work == nil {
		c.setState(StateDone)
	}
	return work, nil
}

// Close releases the window references. The converter must not be used
// afterwards.
func (c *Converter) Close() {
	if c.f0 != nil {
		c.f0.Release()
		c.f0 = nil
	}
	if c.f1 != nil {
		c.f1.Release()
		c.f1 = nil
	}
	c.setState(StateDone)
}

// processWorkFrame resolves the next candidate output timestamp, or
// returns nil when no more outputs are due for the current window.
func (c *Converter) processWorkFrame() (*video.Frame, error) {
	if c.f1 == nil {
		return nil, nil
	}
	if c.f0 == nil && !c.flushing {
		return nil, nil
	}

	workPTS := c.startPTS + video.RescaleQ(c.n, c.cfg.TargetRate.Invert(), c.dstTimeBase)

	if workPTS >= c.pts1 && !c.flushing {
		return nil, nil
	}

	var work *video.Frame
	if c.f0 == nil {
		// Single-frame stream being flushed: the first output is the
		// first input.
		work = c.f1.Clone()
		c.countClone()
	} else {
		if c.flushing && workPTS >= c.pts1+c.delta {
			return nil, nil
		}

		dec := decide(workPTS, c.pts0, c.delta, c.max, c.interpStart, c.interpEnd,
			c.cfg.SceneChangeDetect, c.cfg.SceneThreshold, c.sceneScore)

		switch dec.Action {
		case ActionClone1:
			work = c.f1.Clone()
			c.countClone()
		case ActionClone0:
			work = c.f0.Clone()
			c.countClone()
		case ActionBlend:
			blended, err := c.blender.Blend(c.f0, c.f1, c.max-int(dec.Ratio), int(dec.Ratio))
			if err != nil {
				if errors.IsAllocationFailure(err) {
					c.logger.WithError(err).Error("Frame buffer allocation failed")
				}
				return nil, err
			}
			work = blended
			c.blended.Add(1)
			metrics.IncFramesOutput("blend")
		}

		if dec.Action != ActionBlend && dec.Ratio >= int64(c.interpStart) && dec.Ratio <= int64(c.interpEnd) && !c.cutCounted {
			// Clone chosen inside the interpolation range: the scene
			// gate suppressed the blend. The window is one cut no
			// matter how many candidates fall inside it.
			c.cutCounted = true
			c.sceneCuts.Add(1)
			metrics.IncSceneChanges()
		}
	}

	work.PTS = workPTS
	work.TimeBase = c.dstTimeBase
	c.n++
	c.framesOut.Add(1)

	return work, nil
}

// sceneScore returns the cached scene score for the current window pair,
// computing it on first use.
func (c *Converter) sceneScore() float64 {
	if c.score < 0 {
		c.score = c.detector.Score(c.f0, c.f1)
		c.lastScore.Store(math.Float64bits(c.score))
		metrics.SetSceneScore(c.score)
		c.logger.WithField("score", c.score).Debug("Scene score computed")
	}
	return c.score
}

func (c *Converter) countClone() {
	c.cloned.Add(1)
	metrics.IncFramesOutput("clone")
}

func (c *Converter) drop(frame *video.Frame, reason string, err error, msg string) {
	if c.warnLimiter.Allow() {
		c.logger.WithError(err).WithField("reason", reason).Warn(msg)
	}
	c.dropped.Add(1)
	metrics.IncFramesDropped(reason)
	frame.Release()
}

// Stats is a point-in-time snapshot of session counters, safe to read
// while the session is running.
type Stats struct {
	SessionID  string  `json:"session_id"`
	State      string  `json:"state"`
	FramesIn   uint64  `json:"frames_in"`
	FramesOut  uint64  `json:"frames_out"`
	Cloned     uint64  `json:"cloned"`
	Blended    uint64  `json:"blended"`
	Dropped    uint64  `json:"dropped"`
	SceneCuts  uint64  `json:"scene_cuts"`
	SceneScore float64 `json:"scene_score"`
}

// Stats returns a snapshot of the session counters.
func (c *Converter) Stats() Stats {
	return Stats{
		SessionID:  c.sessionID,
		State:      c.State().String(),
		FramesIn:   c.framesIn.Load(),
		FramesOut:  c.framesOut.Load(),
		Cloned:     c.cloned.Load(),
		Blended:    c.blended.Load(),
		Dropped:    c.dropped.Load(),
		SceneCuts:  c.sceneCuts.Load(),
		SceneScore: math.Float64frombits(c.lastScore.Load()),
	}
}
