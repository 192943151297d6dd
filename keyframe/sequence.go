// Package keyframe records snapshots of a pose hierarchy as keyframes, edits the resulting sequence through a
// cursor, and writes blends between keyframes back into the hierarchy.
package keyframe

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/keyframe/logging"
	"go.viam.com/keyframe/referenceframe"
	"go.viam.com/keyframe/spatialmath"
)

// PoseAccessor reads and writes the local pose of hierarchy nodes.
type PoseAccessor interface {
	Pose(id referenceframe.NodeID) (spatialmath.RigidTransform, error)
	SetPose(id referenceframe.NodeID, pose spatialmath.RigidTransform) error
}

// Frame is one pose per node, in the sequence's node order.
type Frame []spatialmath.RigidTransform

// Sequence is an ordered list of frames with a cursor on the current one.
//
// The node list is fixed when the sequence is built; frames are positional, so nodes must not be
// added to or moved within the hierarchy afterwards. When the sequence is empty the cursor is 0 and
// there is no current frame.
type Sequence struct {
	poses  PoseAccessor
	nodes  []referenceframe.NodeID
	frames []Frame
	cursor int
	logger logging.Logger
}

// NewSequence returns an empty sequence over the given nodes.
func NewSequence(poses PoseAccessor, nodes []referenceframe.NodeID, logger logging.Logger) (*Sequence, error) {
	for _, id := range nodes {
		if _, err := poses.Pose(id); err != nil {
			return nil, errors.Wrap(err, "cannot build keyframe sequence")
		}
	}
	return &Sequence{
		poses:  poses,
		nodes:  append([]referenceframe.NodeID(nil), nodes...),
		logger: logger,
	}, nil
}

// NewSequenceFromHierarchy returns an empty sequence over every non-root node of h in depth-first pre-order.
func NewSequenceFromHierarchy(h *referenceframe.PoseHierarchy, logger logging.Logger) (*Sequence, error) {
	nodes, err := h.PoseNodes(h.Root())
	if err != nil {
		return nil, err
	}
	return NewSequence(h, nodes, logger)
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	return len(s.frames)
}

// Empty reports whether the sequence holds no frames.
func (s *Sequence) Empty() bool {
	return len(s.frames) == 0
}

// Cursor returns the index of the current frame. It is 0 for an empty sequence.
func (s *Sequence) Cursor() int {
	return s.cursor
}

// NodeCount returns the number of poses in every frame.
func (s *Sequence) NodeCount() int {
	return len(s.nodes)
}

// Nodes returns the fixed node order.
func (s *Sequence) Nodes() []referenceframe.NodeID {
	return append([]referenceframe.NodeID(nil), s.nodes...)
}

// Frame returns a copy of the frame at index i.
func (s *Sequence) Frame(i int) (Frame, error) {
	if i < 0 || i >= len(s.frames) {
		return nil, errors.Wrapf(ErrFrameOutOfRange, "index %d, len %d", i, len(s.frames))
	}
	return append(Frame(nil), s.frames[i]...), nil
}

// CurrentFrame returns a copy of the frame at the cursor, or false when the sequence is empty.
func (s *Sequence) CurrentFrame() (Frame, bool) {
	if s.Empty() {
		return nil, false
	}
	return append(Frame(nil), s.frames[s.cursor]...), true
}

// MoveCursorLeft focuses the previous frame and loads it into the hierarchy. It returns false at the first frame.
func (s *Sequence) MoveCursorLeft() bool {
	if s.Empty() || s.cursor == 0 {
		s.logger.Debug("cannot move cursor left of the first frame")
		return false
	}
	s.cursor--
	s.OverwriteHierarchyFromCurrentFrame()
	return true
}

// MoveCursorRight focuses the next frame and loads it into the hierarchy. It returns false at the last frame.
func (s *Sequence) MoveCursorRight() bool {
	if s.Empty() || s.cursor == len(s.frames)-1 {
		s.logger.Debug("cannot move cursor right of the last frame")
		return false
	}
	s.cursor++
	s.OverwriteHierarchyFromCurrentFrame()
	return true
}

// Seek focuses frame i and loads it into the hierarchy.
func (s *Sequence) Seek(i int) error {
	if i < 0 || i >= len(s.frames) {
		return errors.Wrapf(ErrFrameOutOfRange, "cannot seek to %d, len %d", i, len(s.frames))
	}
	s.cursor = i
	s.OverwriteHierarchyFromCurrentFrame()
	return nil
}

// OverwriteHierarchyFromCurrentFrame writes the current frame into the hierarchy. It returns false when
// the sequence is empty.
func (s *Sequence) OverwriteHierarchyFromCurrentFrame() bool {
	if s.Empty() {
		s.logger.Debug("cannot overwrite hierarchy from an empty sequence")
		return false
	}
	s.writeHierarchy(s.frames[s.cursor])
	return true
}

// OverwriteCurrentFrameFromHierarchy replaces the current frame with the hierarchy's poses. With no current
// frame it behaves like Snapshot.
func (s *Sequence) OverwriteCurrentFrameFromHierarchy() {
	if s.Empty() {
		s.Snapshot()
		return
	}
	s.frames[s.cursor] = s.readHierarchy()
}

// Snapshot captures the hierarchy as a new frame right after the cursor and moves the cursor onto it.
func (s *Sequence) Snapshot() {
	frame := s.readHierarchy()
	if s.Empty() {
		s.frames = append(s.frames, frame)
		s.cursor = 0
		return
	}
	at := s.cursor + 1
	s.frames = append(s.frames, nil)
	copy(s.frames[at+1:], s.frames[at:])
	s.frames[at] = frame
	s.cursor = at
}

// DeleteCurrentFrame removes the frame at the cursor and focuses the one before it, or the new first frame.
// The hierarchy is loaded from whichever frame ends up current. It returns false when the sequence is empty.
func (s *Sequence) DeleteCurrentFrame() bool {
	if s.Empty() {
		s.logger.Debug("cannot delete from an empty sequence")
		return false
	}
	s.frames = append(s.frames[:s.cursor], s.frames[s.cursor+1:]...)
	if s.cursor > 0 {
		s.cursor--
	}
	if !s.Empty() {
		s.OverwriteHierarchyFromCurrentFrame()
	}
	return true
}

func (s *Sequence) readHierarchy() Frame {
	frame := make(Frame, len(s.nodes))
	for i, id := range s.nodes {
		pose, err := s.poses.Pose(id)
		if err != nil {
			// nodes were validated at construction and the hierarchy never removes nodes
			panic(errors.Wrap(err, "keyframe node vanished from hierarchy"))
		}
		frame[i] = pose
	}
	return frame
}

func (s *Sequence) writeHierarchy(frame Frame) {
	if len(frame) != len(s.nodes) {
		panic(errors.Wrapf(ErrFrameSizeMismatch, "frame has %d poses, %d nodes", len(frame), len(s.nodes)))
	}
	for i, id := range s.nodes {
		if err := s.poses.SetPose(id, frame[i]); err != nil {
			panic(errors.Wrap(err, "keyframe node vanished from hierarchy"))
		}
	}
}

// String draws the sequence with the cursor marked, e.g. "cursor: 1, len: 3\n( ) -> (#) -> ( )".
func (s *Sequence) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cursor: %d, len: %d", s.cursor, len(s.frames))
	if s.Empty() {
		return sb.String()
	}
	sb.WriteString("\n")
	for i := range s.frames {
		if i == s.cursor {
			sb.WriteString("(#)")
		} else {
			sb.WriteString("( )")
		}
		if i != len(s.frames)-1 {
			sb.WriteString(" -> ")
		}
	}
	return sb.String()
}
