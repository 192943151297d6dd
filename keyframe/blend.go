package keyframe

import (
	"github.com/pkg/errors"

	"go.viam.com/keyframe/spatialmath"
)

func checkAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return errors.Wrapf(ErrAlphaOutOfRange, "got %v", alpha)
	}
	return nil
}

func checkSizes(n int, frames ...Frame) error {
	for i, f := range frames {
		if len(f) != n {
			return errors.Wrapf(ErrFrameSizeMismatch, "frame %d has %d poses, want %d", i, len(f), n)
		}
	}
	return nil
}

// BlendLinear interpolates each pose of left toward right: translations linearly, rotations by slerp.
func BlendLinear(left, right Frame, alpha float64) (Frame, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}
	if err := checkSizes(len(left), right); err != nil {
		return nil, err
	}
	out := make(Frame, len(left))
	for i := range left {
		out[i] = spatialmath.LinearInterpolate(left[i], right[i], alpha)
	}
	return out, nil
}

// BlendCubic interpolates each pose between left and right along a Catmull-Rom spline through the
// neighbouring frames.
func BlendCubic(beforeLeft, left, right, afterRight Frame, alpha float64) (Frame, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}
	if err := checkSizes(len(left), beforeLeft, right, afterRight); err != nil {
		return nil, err
	}
	out := make(Frame, len(left))
	for i := range left {
		out[i] = spatialmath.CubicInterpolate(beforeLeft[i], left[i], right[i], afterRight[i], alpha)
	}
	return out, nil
}

func (s *Sequence) framesAt(indices ...int) ([]Frame, error) {
	frames := make([]Frame, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.frames) {
			return nil, errors.Wrapf(ErrFrameOutOfRange, "index %d, len %d", i, len(s.frames))
		}
		frames = append(frames, s.frames[i])
	}
	if err := checkSizes(len(s.nodes), frames...); err != nil {
		return nil, err
	}
	return frames, nil
}

// WriteLinearBlend writes the linear blend of frames left and right into the hierarchy. The sequence and
// its cursor are unchanged.
func (s *Sequence) WriteLinearBlend(left, right int, alpha float64) error {
	frames, err := s.framesAt(left, right)
	if err != nil {
		return err
	}
	blended, err := BlendLinear(frames[0], frames[1], alpha)
	if err != nil {
		return err
	}
	s.writeHierarchy(blended)
	return nil
}

// WriteCubicBlend writes the cubic blend between frames left and right into the hierarchy, using
// beforeLeft and afterRight as the outer points of the stencil.
func (s *Sequence) WriteCubicBlend(beforeLeft, left, right, afterRight int, alpha float64) error {
	frames, err := s.framesAt(beforeLeft, left, right, afterRight)
	if err != nil {
		return err
	}
	blended, err := BlendCubic(frames[0], frames[1], frames[2], frames[3], alpha)
	if err != nil {
		return err
	}
	s.writeHierarchy(blended)
	return nil
}
