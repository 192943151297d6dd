package referenceframe

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/keyframe/spatialmath"
)

type testArm struct {
	h                        *PoseHierarchy
	base, upper, lower, head NodeID
}

// world -> base -> upper -> lower
//               -> head
func newTestArm(t *testing.T) testArm {
	t.Helper()
	h := NewPoseHierarchy("")
	base, err := h.AddNode("base", h.Root(), spatialmath.NewRigidTransformFromTranslation(r3.Vector{Y: 1}))
	test.That(t, err, test.ShouldBeNil)
	upper, err := h.AddNode("upper", base, spatialmath.NewRigidTransform(r3.Vector{Z: 1}, spatialmath.NewZRotation(90)))
	test.That(t, err, test.ShouldBeNil)
	lower, err := h.AddNode("lower", upper, spatialmath.NewRigidTransformFromTranslation(r3.Vector{X: 1}))
	test.That(t, err, test.ShouldBeNil)
	head, err := h.AddNode("head", base, spatialmath.NewRigidTransformFromRotation(spatialmath.NewXRotation(45)))
	test.That(t, err, test.ShouldBeNil)
	return testArm{h, base, upper, lower, head}
}

func TestAddNode(t *testing.T) {
	arm := newTestArm(t)
	test.That(t, arm.h.Len(), test.ShouldEqual, 5)

	name, err := arm.h.Name(arm.h.Root())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, name, test.ShouldEqual, World)

	_, err = arm.h.AddNode("base", arm.h.Root(), spatialmath.NewZeroRigidTransform())
	test.That(t, err, test.ShouldNotBeNil)
	_, err = arm.h.AddNode("orphan", NodeID(42), spatialmath.NewZeroRigidTransform())
	test.That(t, errors.Is(err, ErrNodeNotFound), test.ShouldBeTrue)
	_, err = arm.h.AddNode("", arm.h.Root(), spatialmath.NewZeroRigidTransform())
	test.That(t, err, test.ShouldNotBeNil)

	id, err := arm.h.NodeByName("lower")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id, test.ShouldEqual, arm.lower)
	_, err = arm.h.NodeByName("tail")
	test.That(t, errors.Is(err, ErrNodeNotFound), test.ShouldBeTrue)

	parent, err := arm.h.Parent(arm.lower)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parent, test.ShouldEqual, arm.upper)
	parent, err = arm.h.Parent(arm.h.Root())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parent, test.ShouldEqual, NoParent)

	children, err := arm.h.Children(arm.base)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, children, test.ShouldResemble, []NodeID{arm.upper, arm.head})
}

func TestPoseAccessors(t *testing.T) {
	arm := newTestArm(t)
	moved := spatialmath.NewRigidTransformFromTranslation(r3.Vector{X: 2})
	test.That(t, arm.h.SetPose(arm.head, moved), test.ShouldBeNil)
	pose, err := arm.h.Pose(arm.head)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose, test.ShouldResemble, moved)

	test.That(t, errors.Is(arm.h.SetPose(NodeID(-3), moved), ErrNodeNotFound), test.ShouldBeTrue)
	_, err = arm.h.Pose(NodeID(99))
	test.That(t, errors.Is(err, ErrNodeNotFound), test.ShouldBeTrue)
}

func TestDegenerateRotationRejected(t *testing.T) {
	arm := newTestArm(t)
	before := arm.h.Len()

	_, err := arm.h.AddNode("limp", arm.base, spatialmath.RigidTransform{})
	test.That(t, errors.Is(err, spatialmath.ErrDegenerateQuaternion), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, `node "limp"`)
	test.That(t, arm.h.Len(), test.ShouldEqual, before)
	_, err = arm.h.NodeByName("limp")
	test.That(t, errors.Is(err, ErrNodeNotFound), test.ShouldBeTrue)

	kept, err := arm.h.Pose(arm.head)
	test.That(t, err, test.ShouldBeNil)
	err = arm.h.SetPose(arm.head, spatialmath.NewRigidTransformFromRotation(spatialmath.NewQuaternion(0, 0, 0, 0)))
	test.That(t, errors.Is(err, spatialmath.ErrDegenerateQuaternion), test.ShouldBeTrue)
	pose, err := arm.h.Pose(arm.head)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose, test.ShouldResemble, kept)

	_, err = arm.h.WorldPose(arm.head)
	test.That(t, err, test.ShouldBeNil)
}

func TestTraversalOrder(t *testing.T) {
	arm := newTestArm(t)
	order, err := arm.h.TraversalOrder(arm.h.Root())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, order, test.ShouldResemble, []NodeID{arm.h.Root(), arm.base, arm.upper, arm.lower, arm.head})

	nodes, err := arm.h.PoseNodes(arm.h.Root())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nodes, test.ShouldResemble, []NodeID{arm.base, arm.upper, arm.lower, arm.head})

	nodes, err = arm.h.PoseNodes(arm.upper)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nodes, test.ShouldResemble, []NodeID{arm.lower})

	_, err = arm.h.TraversalOrder(NodeID(7))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAccumulatedPose(t *testing.T) {
	arm := newTestArm(t)

	lower, err := arm.h.AccumulatedPose(arm.h.Root(), arm.lower, 0)
	test.That(t, err, test.ShouldBeNil)
	expected := spatialmath.NewRigidTransform(r3.Vector{Y: 2, Z: 1}, spatialmath.NewZRotation(90))
	test.That(t, spatialmath.RigidTransformAlmostEqual(lower, expected, 1e-9), test.ShouldBeTrue)

	world, err := arm.h.WorldPose(arm.lower)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, world, test.ShouldResemble, lower)

	// ancestors of the target
	upper, err := arm.h.AccumulatedPose(arm.h.Root(), arm.lower, 1)
	test.That(t, err, test.ShouldBeNil)
	expected = spatialmath.NewRigidTransform(r3.Vector{Y: 1, Z: 1}, spatialmath.NewZRotation(90))
	test.That(t, spatialmath.RigidTransformAlmostEqual(upper, expected, 1e-9), test.ShouldBeTrue)

	base, err := arm.h.AccumulatedPose(arm.h.Root(), arm.lower, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.RigidTransformAlmostEqual(base, spatialmath.NewRigidTransformFromTranslation(r3.Vector{Y: 1}), 1e-9),
		test.ShouldBeTrue)

	for _, offset := range []int{3, 4} {
		above, err := arm.h.AccumulatedPose(arm.h.Root(), arm.lower, offset)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.RigidTransformAlmostEqual(above, spatialmath.NewZeroRigidTransform(), 1e-12), test.ShouldBeTrue)
	}
	_, err = arm.h.AccumulatedPose(arm.h.Root(), arm.lower, 5)
	test.That(t, errors.Is(err, ErrOffsetOutOfRange), test.ShouldBeTrue)
	_, err = arm.h.AccumulatedPose(arm.h.Root(), arm.lower, -1)
	test.That(t, errors.Is(err, ErrOffsetOutOfRange), test.ShouldBeTrue)

	// relative to a subtree root
	rel, err := arm.h.AccumulatedPose(arm.upper, arm.lower, 0)
	test.That(t, err, test.ShouldBeNil)
	expected = spatialmath.NewRigidTransform(r3.Vector{Y: 1, Z: 1}, spatialmath.NewZRotation(90))
	test.That(t, spatialmath.RigidTransformAlmostEqual(rel, expected, 1e-9), test.ShouldBeTrue)

	// head is a sibling branch of upper
	_, err = arm.h.AccumulatedPose(arm.upper, arm.head, 0)
	test.That(t, errors.Is(err, ErrTargetUnreachable), test.ShouldBeTrue)
	_, err = arm.h.AccumulatedPose(arm.h.Root(), NodeID(100), 0)
	test.That(t, errors.Is(err, ErrNodeNotFound), test.ShouldBeTrue)
	_, err = arm.h.AccumulatedPose(NodeID(100), arm.lower, 0)
	test.That(t, errors.Is(err, ErrNodeNotFound), test.ShouldBeTrue)

	// the tip of the lower link in world coordinates
	tip := lower.TransformPoint(r3.Vector{X: 1})
	test.That(t, tip.X, test.ShouldAlmostEqual, 0.)
	test.That(t, tip.Y, test.ShouldAlmostEqual, 3.)
	test.That(t, tip.Z, test.ShouldAlmostEqual, 1.)
}

func TestHierarchyString(t *testing.T) {
	arm := newTestArm(t)
	out := arm.h.String()
	for _, name := range []string{"world", "base", "upper", "lower", "head"} {
		test.That(t, out, test.ShouldContainSubstring, name)
	}
	test.That(t, out, test.ShouldContainSubstring, "X:0.000, Y:1.000, Z:0.000")
}
