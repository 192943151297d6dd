package referenceframe

import (
	"github.com/pkg/errors"

	"go.viam.com/keyframe/spatialmath"
)

// AccumulatedPose returns the pose of target in root's coordinates, the composition of every local pose on the
// path from root down to target. offsetFromTarget selects an ancestor on that path instead: 0 is target itself,
// 1 its parent, and so on. An offset one past root yields the identity the accumulation starts from.
func (h *PoseHierarchy) AccumulatedPose(root, target NodeID, offsetFromTarget int) (spatialmath.RigidTransform, error) {
	if !h.valid(root) {
		return spatialmath.RigidTransform{}, NewNodeNotFoundError(root)
	}
	if !h.valid(target) {
		return spatialmath.RigidTransform{}, NewNodeNotFoundError(target)
	}
	if offsetFromTarget < 0 {
		return spatialmath.RigidTransform{}, errors.Wrapf(ErrOffsetOutOfRange, "negative offset %d", offsetFromTarget)
	}

	stack, found := h.accumulate(root, target, []spatialmath.RigidTransform{spatialmath.NewZeroRigidTransform()})
	if !found {
		return spatialmath.RigidTransform{}, errors.Wrapf(ErrTargetUnreachable, "target %d, root %d", target, root)
	}
	idx := len(stack) - 1 - offsetFromTarget
	if idx < 0 {
		return spatialmath.RigidTransform{}, errors.Wrapf(ErrOffsetOutOfRange, "offset %d, depth %d", offsetFromTarget, len(stack)-1)
	}
	return stack[idx], nil
}

// WorldPose returns the pose of id relative to the root of the hierarchy.
func (h *PoseHierarchy) WorldPose(id NodeID) (spatialmath.RigidTransform, error) {
	return h.AccumulatedPose(h.Root(), id, 0)
}

// accumulate descends depth first from id. stack holds one accumulated pose per ancestor; it returns the stack
// ending at target and stops at the first match.
func (h *PoseHierarchy) accumulate(
	id, target NodeID,
	stack []spatialmath.RigidTransform,
) ([]spatialmath.RigidTransform, bool) {
	stack = append(stack, spatialmath.Compose(stack[len(stack)-1], h.nodes[id].pose))
	if id == target {
		return stack, true
	}
	for _, c := range h.nodes[id].children {
		if found, ok := h.accumulate(c, target, stack); ok {
			return found, true
		}
	}
	return nil, false
}
