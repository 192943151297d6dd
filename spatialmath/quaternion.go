// Package spatialmath defines the rotation and rigid body transform algebra used to pose and animate
// hierarchies of parts.
//
// Rotations are unit quaternions stored as gonum quat.Numbers, where Real is w and Imag, Jmag and Kmag are
// x, y and z.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/keyframe/utils"
)

// quaternions whose squared norm falls below this cannot be inverted.
const quatNormSquaredEpsilon = 1e-12

// ErrDegenerateQuaternion is returned when inverting a quaternion whose norm is effectively zero.
var ErrDegenerateQuaternion = errors.New("cannot invert a quaternion with zero norm")

// NewQuaternion returns the quaternion w + xi + yj + zk. It is not normalized.
func NewQuaternion(w, x, y, z float64) quat.Number {
	return quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// NewZeroQuaternion returns the identity rotation.
func NewZeroQuaternion() quat.Number {
	return quat.Number{Real: 1}
}

// NewXRotation returns a rotation of degs degrees about the x axis.
func NewXRotation(degs float64) quat.Number {
	h := utils.DegToRad(degs) / 2
	return quat.Number{Real: math.Cos(h), Imag: math.Sin(h)}
}

// NewYRotation returns a rotation of degs degrees about the y axis.
func NewYRotation(degs float64) quat.Number {
	h := utils.DegToRad(degs) / 2
	return quat.Number{Real: math.Cos(h), Jmag: math.Sin(h)}
}

// NewZRotation returns a rotation of degs degrees about the z axis.
func NewZRotation(degs float64) quat.Number {
	h := utils.DegToRad(degs) / 2
	return quat.Number{Real: math.Cos(h), Kmag: math.Sin(h)}
}

// NewQuaternionFromAxisAngle returns a rotation of degs degrees about an arbitrary axis.
func NewQuaternionFromAxisAngle(axis r3.Vector, degs float64) (quat.Number, error) {
	aa := &R4AA{Theta: utils.DegToRad(degs), RX: axis.X, RY: axis.Y, RZ: axis.Z}
	if err := aa.Normalize(); err != nil {
		return quat.Number{}, err
	}
	return aa.ToQuat(), nil
}

// QuatMul composes two rotations with the Hamilton product. The result applies q first, then p.
func QuatMul(p, q quat.Number) quat.Number {
	return quat.Mul(p, q)
}

// QuatNormSquared returns the squared 4-norm of q.
func QuatNormSquared(q quat.Number) float64 {
	return q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag
}

// QuatInverse returns conj(q)/|q|^2.
func QuatInverse(q quat.Number) (quat.Number, error) {
	n := QuatNormSquared(q)
	if !(n >= quatNormSquaredEpsilon) {
		return quat.Number{}, ErrDegenerateQuaternion
	}
	return quat.Scale(1/n, quat.Conj(q)), nil
}

// mustInverse inverts a rotation produced by this package, which is always unit norm.
func mustInverse(q quat.Number) quat.Number {
	inv, err := QuatInverse(q)
	if err != nil {
		panic(err)
	}
	return inv
}

// Normalize scales q onto the unit sphere.
func Normalize(q quat.Number) quat.Number {
	return quat.Scale(1/quat.Abs(q), q)
}

// VectorPart returns the imaginary components of q.
func VectorPart(q quat.Number) r3.Vector {
	return r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

// RotateVector returns the vector part of q v q^-1.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), mustInverse(q))
	return VectorPart(rotated)
}

// QuatPow raises a unit quaternion to the power p by scaling its rotation angle about its axis.
// A quaternion with a zero vector part has no axis and is returned unchanged.
func QuatPow(q quat.Number, p float64) quat.Number {
	v := VectorPart(q)
	beta := v.Norm()
	if beta == 0 {
		return q
	}
	axis := v.Mul(1 / beta)
	phi := math.Atan2(beta, q.Real)
	s := math.Sin(p * phi)
	return quat.Number{Real: math.Cos(p * phi), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// ConditionalNegate flips q into the hemisphere with a non-negative scalar part. The rotation is unchanged
// but powers of the result take the short way around.
func ConditionalNegate(q quat.Number) quat.Number {
	if q.Real < 0 {
		return Flip(q)
	}
	return q
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// Slerp spherically interpolates from start to end along the shorter arc.
func Slerp(start, end quat.Number, alpha float64) quat.Number {
	between := ConditionalNegate(quat.Mul(end, mustInverse(start)))
	return quat.Mul(QuatPow(between, alpha), start)
}

// QuaternionAlmostEqual reports whether a and b represent the same rotation within tol per component.
// q and -q are considered equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := func(b quat.Number) bool {
		return utils.Float64AlmostEqual(a.Real, b.Real, tol) &&
			utils.Float64AlmostEqual(a.Imag, b.Imag, tol) &&
			utils.Float64AlmostEqual(a.Jmag, b.Jmag, tol) &&
			utils.Float64AlmostEqual(a.Kmag, b.Kmag, tol)
	}
	return same(b) || same(Flip(b))
}

// QuatToMatrix returns the 3x3 rotation matrix of q.
func QuatToMatrix(q quat.Number) mgl64.Mat3 {
	mq := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}
	return mq.Normalize().Mat4().Mat3()
}
