package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/keyframe/utils"
)

// A homogeneous vector whose last component is within this of 1 is a point, within this of 0 a direction.
const homogeneousEpsilon = 1e-8

// ErrNotHomogeneous is returned when a 4-vector is neither a point nor a direction.
var ErrNotHomogeneous = errors.New("homogeneous coordinate must be 0 (direction) or 1 (point)")

// RigidTransform is an orthonormal pose: a rotation followed by a translation.
// It maps points x to r x + t and directions x to r x.
type RigidTransform struct {
	translation r3.Vector
	rotation    quat.Number
}

// NewZeroRigidTransform returns the identity transform.
func NewZeroRigidTransform() RigidTransform {
	return RigidTransform{rotation: NewZeroQuaternion()}
}

// NewRigidTransformFromTranslation returns a pure translation.
func NewRigidTransformFromTranslation(t r3.Vector) RigidTransform {
	return RigidTransform{translation: t, rotation: NewZeroQuaternion()}
}

// NewRigidTransformFromRotation returns a pure rotation.
func NewRigidTransformFromRotation(r quat.Number) RigidTransform {
	return RigidTransform{rotation: r}
}

// NewRigidTransform returns the transform that rotates by r and then translates by t.
func NewRigidTransform(t r3.Vector, r quat.Number) RigidTransform {
	return RigidTransform{translation: t, rotation: r}
}

// Translation returns the translation component.
func (rt RigidTransform) Translation() r3.Vector {
	return rt.translation
}

// Rotation returns the rotation component.
func (rt RigidTransform) Rotation() quat.Number {
	return rt.rotation
}

// Compose returns a*b, the transform that applies b first and then a.
func Compose(a, b RigidTransform) RigidTransform {
	return RigidTransform{
		translation: a.translation.Add(RotateVector(a.rotation, b.translation)),
		rotation:    quat.Mul(a.rotation, b.rotation),
	}
}

// Invert returns the inverse transform (r^-1 (-t), r^-1).
func Invert(rt RigidTransform) RigidTransform {
	inv := mustInverse(rt.rotation)
	return RigidTransform{
		translation: RotateVector(inv, rt.translation.Mul(-1)),
		rotation:    inv,
	}
}

// TranslationPart returns the transform carrying only the translation of rt.
func TranslationPart(rt RigidTransform) RigidTransform {
	return NewRigidTransformFromTranslation(rt.translation)
}

// RotationPart returns the transform carrying only the rotation of rt.
func RotationPart(rt RigidTransform) RigidTransform {
	return NewRigidTransformFromRotation(rt.rotation)
}

// MixedFrame returns the frame positioned at the origin of origin but oriented like orientation.
func MixedFrame(origin, orientation RigidTransform) RigidTransform {
	return Compose(TranslationPart(origin), RotationPart(orientation))
}

// DoMWithRespectToA applies the motion m to the object frame o as expressed in the auxiliary frame a,
// returning a m a^-1 o.
func DoMWithRespectToA(m, o, a RigidTransform) RigidTransform {
	return Compose(Compose(Compose(a, m), Invert(a)), o)
}

// TransformHomogeneous applies rt to a homogeneous 4-vector. Points (w near 1) are rotated and translated,
// directions (w near 0) are only rotated.
func (rt RigidTransform) TransformHomogeneous(v mgl64.Vec4) (mgl64.Vec4, error) {
	w := v.W()
	rotated := RotateVector(rt.rotation, r3.Vector{X: v.X(), Y: v.Y(), Z: v.Z()})
	switch {
	case math.Abs(w-1) < homogeneousEpsilon:
		rotated = rotated.Add(rt.translation)
	case math.Abs(w) < homogeneousEpsilon:
	default:
		return mgl64.Vec4{}, errors.Wrapf(ErrNotHomogeneous, "got w=%g", w)
	}
	return mgl64.Vec4{rotated.X, rotated.Y, rotated.Z, w}, nil
}

// TransformPoint applies rt to a point.
func (rt RigidTransform) TransformPoint(p r3.Vector) r3.Vector {
	return RotateVector(rt.rotation, p).Add(rt.translation)
}

// TransformDirection applies only the rotation of rt to a direction.
func (rt RigidTransform) TransformDirection(d r3.Vector) r3.Vector {
	return RotateVector(rt.rotation, d)
}

// Matrix returns the 4x4 homogeneous matrix of rt.
func (rt RigidTransform) Matrix() mgl64.Mat4 {
	m := QuatToMatrix(rt.rotation).Mat4()
	m.Set(0, 3, rt.translation.X)
	m.Set(1, 3, rt.translation.Y)
	m.Set(2, 3, rt.translation.Z)
	return m
}

// String prints the translation and the (w, x, y, z) rotation.
func (rt RigidTransform) String() string {
	return fmt.Sprintf("{t: (%g, %g, %g), r: (%g, %g, %g, %g)}",
		rt.translation.X, rt.translation.Y, rt.translation.Z,
		rt.rotation.Real, rt.rotation.Imag, rt.rotation.Jmag, rt.rotation.Kmag)
}

// RigidTransformAlmostEqual reports whether a and b have the same translation and rotation within tol.
func RigidTransformAlmostEqual(a, b RigidTransform, tol float64) bool {
	return utils.Float64AlmostEqual(a.translation.X, b.translation.X, tol) &&
		utils.Float64AlmostEqual(a.translation.Y, b.translation.Y, tol) &&
		utils.Float64AlmostEqual(a.translation.Z, b.translation.Z, tol) &&
		QuaternionAlmostEqual(a.rotation, b.rotation, tol)
}
