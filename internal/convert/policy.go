package convert

import "github.com/zsiec/cadence/internal/video"

// Action is the interpolation policy's resolution for one candidate
// output timestamp.
type Action uint8

const (
	ActionClone0 Action = iota // reuse the older window frame
	ActionClone1               // reuse the newer window frame
	ActionBlend                // synthesize by blending both frames
)

// String returns the action name
func (a Action) String() string {
	switch a {
	case ActionClone0:
		return "clone_f0"
	case ActionClone1:
		return "clone_f1"
	case ActionBlend:
		return "blend"
	default:
		return "unknown"
	}
}

// Decision carries the resolved action together with the fixed-point
// position of the candidate between the window endpoints, in [0, max].
type Decision struct {
	Action Action
	Ratio  int64
}

// decide resolves one candidate output timestamp against a full window.
// score is consulted lazily: it is only invoked when the candidate falls
// inside the interpolation range and scene gating is enabled, which
// keeps the detector's temporal state untouched for windows that never
// attempt a blend.
func decide(workPTS, pts0, delta int64, max, interpStart, interpEnd int,
	scdEnabled bool, sceneThreshold float64, score func() float64,
) Decision {
	ratio := video.RescaleRnd(workPTS-pts0, int64(max), delta)

	switch {
	case ratio > int64(interpEnd):
		return Decision{Action: ActionClone1, Ratio: ratio}
	case ratio < int64(interpStart):
		return Decision{Action: ActionClone0, Ratio: ratio}
	}

	if scdEnabled && score() >= sceneThreshold {
		// The pair spans a cut; blending would ghost across it.
		if ratio > int64(max>>1) {
			return Decision{Action: ActionClone1, Ratio: ratio}
		}
		return Decision{Action: ActionClone0, Ratio: ratio}
	}

	return Decision{Action: ActionBlend, Ratio: ratio}
}
