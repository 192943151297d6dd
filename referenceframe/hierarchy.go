// Package referenceframe holds the tree of posed parts that is animated, and does the math of
// accumulating local poses into world poses.
package referenceframe

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"go.viam.com/keyframe/spatialmath"
)

// World is the default name of the root node.
const World = "world"

// NodeID is the stable index of a node in a PoseHierarchy.
type NodeID int

// NoParent is the parent of the root node.
const NoParent NodeID = -1

type poseNode struct {
	name     string
	parent   NodeID
	children []NodeID
	pose     spatialmath.RigidTransform
}

// PoseHierarchy is a tree of named nodes, each carrying a pose relative to its parent.
// Nodes live in an arena and are addressed by NodeID; a node's id never changes and nodes are never removed,
// so ids handed out earlier stay valid as the tree grows.
type PoseHierarchy struct {
	nodes  []poseNode
	byName map[string]NodeID
}

// NewPoseHierarchy returns a hierarchy holding only a root node with the identity pose.
func NewPoseHierarchy(rootName string) *PoseHierarchy {
	if rootName == "" {
		rootName = World
	}
	return &PoseHierarchy{
		nodes:  []poseNode{{name: rootName, parent: NoParent, pose: spatialmath.NewZeroRigidTransform()}},
		byName: map[string]NodeID{rootName: 0},
	}
}

// Root returns the id of the root node.
func (h *PoseHierarchy) Root() NodeID {
	return 0
}

// Len returns the number of nodes, including the root.
func (h *PoseHierarchy) Len() int {
	return len(h.nodes)
}

func (h *PoseHierarchy) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(h.nodes)
}

// AddNode adds a node named name under parent with the given local pose. A pose whose rotation has no
// inverse is rejected with spatialmath.ErrDegenerateQuaternion.
func (h *PoseHierarchy) AddNode(name string, parent NodeID, pose spatialmath.RigidTransform) (NodeID, error) {
	if name == "" {
		return NoParent, errors.New("node name cannot be empty")
	}
	if !h.valid(parent) {
		return NoParent, NewNodeNotFoundError(parent)
	}
	if _, ok := h.byName[name]; ok {
		return NoParent, errors.Errorf("node with name %q already in pose hierarchy", name)
	}
	if err := checkPose(pose); err != nil {
		return NoParent, errors.Wrapf(err, "node %q", name)
	}
	id := NodeID(len(h.nodes))
	h.nodes = append(h.nodes, poseNode{name: name, parent: parent, pose: pose})
	h.nodes[parent].children = append(h.nodes[parent].children, id)
	h.byName[name] = id
	return id, nil
}

// NodeByName looks up a node id.
func (h *PoseHierarchy) NodeByName(name string) (NodeID, error) {
	id, ok := h.byName[name]
	if !ok {
		return NoParent, errors.Wrapf(ErrNodeNotFound, "name %q", name)
	}
	return id, nil
}

// Name returns the name of the node.
func (h *PoseHierarchy) Name(id NodeID) (string, error) {
	if !h.valid(id) {
		return "", NewNodeNotFoundError(id)
	}
	return h.nodes[id].name, nil
}

// Parent returns the parent of the node, NoParent for the root.
func (h *PoseHierarchy) Parent(id NodeID) (NodeID, error) {
	if !h.valid(id) {
		return NoParent, NewNodeNotFoundError(id)
	}
	return h.nodes[id].parent, nil
}

// Children returns the children of the node in insertion order.
func (h *PoseHierarchy) Children(id NodeID) ([]NodeID, error) {
	if !h.valid(id) {
		return nil, NewNodeNotFoundError(id)
	}
	return append([]NodeID(nil), h.nodes[id].children...), nil
}

// Pose returns the local pose of the node relative to its parent.
func (h *PoseHierarchy) Pose(id NodeID) (spatialmath.RigidTransform, error) {
	if !h.valid(id) {
		return spatialmath.RigidTransform{}, NewNodeNotFoundError(id)
	}
	return h.nodes[id].pose, nil
}

// SetPose replaces the local pose of the node. Like AddNode, it rejects a rotation that has no inverse.
func (h *PoseHierarchy) SetPose(id NodeID, pose spatialmath.RigidTransform) error {
	if !h.valid(id) {
		return NewNodeNotFoundError(id)
	}
	if err := checkPose(pose); err != nil {
		return errors.Wrapf(err, "node %q", h.nodes[id].name)
	}
	h.nodes[id].pose = pose
	return nil
}

// checkPose rejects rotations that cannot be inverted, which includes the zero RigidTransform.
func checkPose(pose spatialmath.RigidTransform) error {
	_, err := spatialmath.QuatInverse(pose.Rotation())
	return err
}

// TraversalOrder returns root and all of its descendants in depth-first pre-order.
func (h *PoseHierarchy) TraversalOrder(root NodeID) ([]NodeID, error) {
	if !h.valid(root) {
		return nil, NewNodeNotFoundError(root)
	}
	var order []NodeID
	var visit func(NodeID)
	visit = func(id NodeID) {
		order = append(order, id)
		for _, c := range h.nodes[id].children {
			visit(c)
		}
	}
	visit(root)
	return order, nil
}

// PoseNodes returns the descendants of root in depth-first pre-order, without root itself.
// This is the ordering keyframes are stored in.
func (h *PoseHierarchy) PoseNodes(root NodeID) ([]NodeID, error) {
	order, err := h.TraversalOrder(root)
	if err != nil {
		return nil, err
	}
	return order[1:], nil
}

// String prints out a table of each node in the hierarchy, with its parent and local pose.
func (h *PoseHierarchy) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Name", "Parent", "Translation", "Rotation"})
	order, _ := h.TraversalOrder(h.Root())
	for _, id := range order {
		n := h.nodes[id]
		parent := ""
		if n.parent != NoParent {
			parent = h.nodes[n.parent].name
		}
		tr := n.pose.Translation()
		t.AppendRow(table.Row{
			fmt.Sprintf("%d", id),
			n.name,
			parent,
			fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", tr.X, tr.Y, tr.Z),
			spatialmath.QuatToR4AA(n.pose.Rotation()).String(),
		})
	}
	return t.Render()
}
