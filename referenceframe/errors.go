package referenceframe

import "github.com/pkg/errors"

var (
	// ErrNodeNotFound is returned when a NodeID or name does not belong to the hierarchy.
	ErrNodeNotFound = errors.New("node not in pose hierarchy")
	// ErrTargetUnreachable is returned when the target of an accumulation is not below the given root.
	ErrTargetUnreachable = errors.New("target node is not reachable from root")
	// ErrOffsetOutOfRange is returned when an ancestor offset reaches above the traversal root.
	ErrOffsetOutOfRange = errors.New("offset from target is deeper than the path from root")
)

// NewNodeNotFoundError returns an error indicating that the node id is not part of the hierarchy.
func NewNodeNotFoundError(id NodeID) error {
	return errors.Wrapf(ErrNodeNotFound, "id %d", id)
}

// NewParentNodeMissingError returns an error indicating that a node's parent could not be found.
func NewParentNodeMissingError(name, parent string) error {
	return errors.Wrapf(ErrNodeNotFound, "parent %q of node %q", parent, name)
}
