// Package animation plays a keyframe sequence back into its pose hierarchy one tick at a time.
package animation

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/keyframe/keyframe"
	"go.viam.com/keyframe/logging"
	"go.viam.com/keyframe/utils"
)

// MinFrames is the fewest frames a sequence needs before playback can start: two interior frames plus
// one boundary frame on each side for the cubic stencil.
const MinFrames = 4

// ErrInvalidDelta is returned by Tick when the progress increment is outside [0, 1).
var ErrInvalidDelta = errors.New("tick delta must be in the range [0, 1)")

// Mode selects how poses are blended between keyframes.
type Mode int

const (
	// Linear blends translations linearly and rotations by slerp.
	Linear Mode = iota
	// Cubic blends along a Catmull-Rom spline through the neighbouring keyframes.
	Cubic
)

func (m Mode) String() string {
	switch m {
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "linear" or "cubic", in any case, to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	default:
		return 0, errors.Errorf("unknown interpolation mode %q, expected linear or cubic", s)
	}
}

// State is whether a player is advancing.
type State int

const (
	// Stopped is the initial and terminal state.
	Stopped State = iota
	// Playing means ticks advance the animation.
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// TickResult reports what a tick did.
type TickResult int

const (
	// Running means the hierarchy holds a blend inside the current segment.
	Running TickResult = iota
	// SegmentComplete means the cursor advanced to the next keyframe.
	SegmentComplete
	// CannotContinue means there is no segment left to play; the player is now stopped.
	CannotContinue
)

func (r TickResult) String() string {
	switch r {
	case Running:
		return "running"
	case SegmentComplete:
		return "segment complete"
	case CannotContinue:
		return "cannot continue"
	default:
		return fmt.Sprintf("TickResult(%d)", int(r))
	}
}

// Player drives a keyframe sequence. progress is the position within the segment that starts at the
// sequence cursor.
type Player struct {
	seq      *keyframe.Sequence
	mode     Mode
	state    State
	progress float64
	logger   logging.Logger
}

// NewPlayer returns a stopped player over seq.
func NewPlayer(seq *keyframe.Sequence, mode Mode, logger logging.Logger) *Player {
	return &Player{seq: seq, mode: mode, logger: logger}
}

// Mode returns the interpolation mode.
func (p *Player) Mode() Mode {
	return p.mode
}

// State returns whether the player is playing.
func (p *Player) State() State {
	return p.state
}

// Progress returns the position within the current segment, in [0, 1).
func (p *Player) Progress() float64 {
	return p.progress
}

// Restart rewinds to the first playable segment and starts playing. It returns false, leaving the player
// untouched, when the sequence has fewer than MinFrames frames.
func (p *Player) Restart() bool {
	if p.seq.Len() < MinFrames {
		p.logger.Warnf("cannot play %d keyframes, need at least %d", p.seq.Len(), MinFrames)
		return false
	}
	if err := p.seq.Seek(1); err != nil {
		p.logger.Errorw("cannot seek to first segment", "error", err)
		return false
	}
	p.progress = 0
	p.state = Playing
	p.logger.Debugw("playback started", "mode", p.mode, "frames", p.seq.Len())
	return true
}

// Stop halts playback. The hierarchy keeps whatever pose was last written.
func (p *Player) Stop() {
	p.state = Stopped
}

// Tick adds delta to the segment progress and writes the resulting pose into the hierarchy.
func (p *Player) Tick(delta float64) (TickResult, error) {
	if !(delta >= 0 && delta < 1) {
		return CannotContinue, errors.Wrapf(ErrInvalidDelta, "got %v", delta)
	}
	if p.state != Playing {
		return CannotContinue, nil
	}

	var (
		res TickResult
		err error
	)
	switch p.mode {
	case Linear:
		res, err = p.tickLinear(delta)
	case Cubic:
		res, err = p.tickCubic(delta)
	default:
		err = errors.Errorf("unsupported interpolation mode %v", p.mode)
	}
	if err != nil {
		p.Stop()
		return CannotContinue, err
	}
	if res == CannotContinue {
		p.logger.Debugw("playback finished", "cursor", p.seq.Cursor())
		p.Stop()
	}
	return res, nil
}

func (p *Player) tickLinear(delta float64) (TickResult, error) {
	p.progress += delta
	if p.progress >= 1 {
		p.progress = 0
		if !p.seq.MoveCursorRight() {
			return CannotContinue, nil
		}
		return SegmentComplete, nil
	}

	left := p.seq.Cursor()
	if left+1 >= p.seq.Len() {
		return CannotContinue, nil
	}
	if p.progress == 0 {
		p.seq.OverwriteHierarchyFromCurrentFrame()
		return Running, nil
	}
	return Running, p.seq.WriteLinearBlend(left, left+1, p.progress)
}

// hasStencil reports whether the segment starting at left has a frame before it and one after its end.
func (p *Player) hasStencil(left int) bool {
	return left >= 1 && left+2 < p.seq.Len()
}

// tickCubic only advances the cursor when the next segment can be blended.
func (p *Player) tickCubic(delta float64) (TickResult, error) {
	progress := p.progress + delta
	res := Running
	if progress >= 1 {
		if !p.hasStencil(p.seq.Cursor() + 1) {
			return CannotContinue, nil
		}
		p.seq.MoveCursorRight()
		progress--
		res = SegmentComplete
	}

	left := p.seq.Cursor()
	if !p.hasStencil(left) {
		return CannotContinue, nil
	}
	p.progress = progress
	if progress == 0 {
		p.seq.OverwriteHierarchyFromCurrentFrame()
		return res, nil
	}
	return res, p.seq.WriteCubicBlend(left-1, left, left+1, left+2, progress)
}

// DeltaForRate returns the progress per tick that moves one keyframe every msBetweenKeyframes when
// ticking framesPerSecond times a second. The result is capped just below 1.
func DeltaForRate(msBetweenKeyframes, framesPerSecond int) (float64, error) {
	if msBetweenKeyframes <= 0 || framesPerSecond <= 0 {
		return 0, errors.Errorf("rate must be positive, got %dms between keyframes at %d fps",
			msBetweenKeyframes, framesPerSecond)
	}
	ticksPerKeyframe := float64(msBetweenKeyframes) * float64(framesPerSecond) / 1000
	return utils.Clamp(1/ticksPerKeyframe, 0, maxDelta), nil
}

const maxDelta = 1 - 1e-9
