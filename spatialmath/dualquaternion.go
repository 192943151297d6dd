package spatialmath

import (
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// DualQuaternion returns rt as a unit dual quaternion. The real part is the rotation and the dual part is
// half the translation quaternion multiplied by the rotation, so dualquat.Mul composes transforms the
// same way Compose does.
func (rt RigidTransform) DualQuaternion() dualquat.Number {
	t := quat.Number{Imag: rt.translation.X / 2, Jmag: rt.translation.Y / 2, Kmag: rt.translation.Z / 2}
	return dualquat.Number{
		Real: rt.rotation,
		Dual: quat.Mul(t, rt.rotation),
	}
}

// NewRigidTransformFromDualQuaternion recovers a RigidTransform from a unit dual quaternion.
func NewRigidTransformFromDualQuaternion(dq dualquat.Number) RigidTransform {
	// 2 * dual * conj(real) is the pure translation quaternion.
	t := quat.Scale(2, quat.Mul(dq.Dual, quat.Conj(dq.Real)))
	return NewRigidTransform(VectorPart(t), dq.Real)
}
