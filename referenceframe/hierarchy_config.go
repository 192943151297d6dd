package referenceframe

import (
	"encoding/json"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/keyframe/spatialmath"
)

// OrientationConfig describes a rotation of AngleDegs degrees about Axis.
type OrientationConfig struct {
	Axis      r3.Vector `json:"axis"`
	AngleDegs float64   `json:"angle_degs"`
}

// LinkConfig is the json description of one node. An empty parent, or the root's name, attaches the node to
// the root.
type LinkConfig struct {
	ID          string             `json:"id"`
	Parent      string             `json:"parent,omitempty"`
	Translation r3.Vector          `json:"translation"`
	Orientation *OrientationConfig `json:"orientation,omitempty"`
}

// HierarchyConfig lists the links of a pose hierarchy.
type HierarchyConfig struct {
	Name  string       `json:"name,omitempty"`
	Links []LinkConfig `json:"links"`
}

// Pose converts the link's translation and orientation into its local pose.
func (cfg *LinkConfig) Pose() (spatialmath.RigidTransform, error) {
	var rot quat.Number
	if cfg.Orientation == nil {
		rot = spatialmath.NewZeroQuaternion()
	} else {
		var err error
		rot, err = spatialmath.NewQuaternionFromAxisAngle(cfg.Orientation.Axis, cfg.Orientation.AngleDegs)
		if err != nil {
			return spatialmath.RigidTransform{}, errors.Wrapf(err, "link %q", cfg.ID)
		}
	}
	return spatialmath.NewRigidTransform(cfg.Translation, rot), nil
}

// UnmarshalHierarchyJSON parses a json HierarchyConfig and builds the hierarchy it describes.
func UnmarshalHierarchyJSON(data []byte) (*PoseHierarchy, error) {
	cfg := &HierarchyConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal hierarchy json")
	}
	return NewPoseHierarchyFromConfig(cfg)
}

// NewPoseHierarchyFromConfig builds a hierarchy from a config. Links may be listed in any order; each is added
// once its parent exists.
func NewPoseHierarchyFromConfig(cfg *HierarchyConfig) (*PoseHierarchy, error) {
	h := NewPoseHierarchy(cfg.Name)
	rootName, _ := h.Name(h.Root())

	pending := make([]LinkConfig, len(cfg.Links))
	copy(pending, cfg.Links)
	for len(pending) > 0 {
		var next []LinkConfig
		for i := range pending {
			link := &pending[i]
			parentName := link.Parent
			if parentName == "" {
				parentName = rootName
			}
			parent, err := h.NodeByName(parentName)
			if err != nil {
				next = append(next, *link)
				continue
			}
			pose, err := link.Pose()
			if err != nil {
				return nil, err
			}
			if _, err := h.AddNode(link.ID, parent, pose); err != nil {
				return nil, err
			}
		}
		if len(next) == len(pending) {
			var errAll error
			for _, link := range next {
				multierr.AppendInto(&errAll, NewParentNodeMissingError(link.ID, link.Parent))
			}
			return nil, errors.Wrap(errAll, "unresolvable parents (missing or cyclic)")
		}
		pending = next
	}
	return h, nil
}
