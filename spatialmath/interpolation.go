package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// LinearInterpolate blends two transforms: translations are lerped and rotations slerped.
func LinearInterpolate(start, end RigidTransform, alpha float64) RigidTransform {
	t := start.translation.Mul(1 - alpha).Add(end.translation.Mul(alpha))
	return NewRigidTransform(t, Slerp(start.rotation, end.rotation, alpha))
}

// BezierControls are the four control values of a one dimensional cubic Bezier segment.
type BezierControls struct {
	C0, D0, E0, C1 float64
}

// Apply evaluates the segment at alpha in [0, 1].
func (b BezierControls) Apply(alpha float64) float64 {
	beta := 1 - alpha
	return b.C0*math.Pow(beta, 3) +
		3*b.D0*alpha*math.Pow(beta, 2) +
		3*b.E0*math.Pow(alpha, 2)*beta +
		b.C1*math.Pow(alpha, 3)
}

// catmullRomControls returns the inner Bezier controls for the segment between left and right.
func catmullRomControls(beforeLeft, left, right, afterRight float64) BezierControls {
	return BezierControls{
		C0: left,
		D0: (right-beforeLeft)/6 + left,
		E0: -(afterRight-left)/6 + right,
		C1: right,
	}
}

// CubicInterpolateVector interpolates between left and right on a Catmull-Rom spline through all four
// points, independently per axis.
func CubicInterpolateVector(beforeLeft, left, right, afterRight r3.Vector, alpha float64) r3.Vector {
	return r3.Vector{
		X: catmullRomControls(beforeLeft.X, left.X, right.X, afterRight.X).Apply(alpha),
		Y: catmullRomControls(beforeLeft.Y, left.Y, right.Y, afterRight.Y).Apply(alpha),
		Z: catmullRomControls(beforeLeft.Z, left.Z, right.Z, afterRight.Z).Apply(alpha),
	}
}

// CubicInterpolateQuaternion is the rotational analogue of CubicInterpolateVector. Differences become
// relative rotations and scaling becomes exponentiation, and the Bezier curve is evaluated with
// repeated slerps so the result stays on the unit sphere.
func CubicInterpolateQuaternion(beforeLeft, left, right, afterRight quat.Number, alpha float64) quat.Number {
	d := quat.Mul(QuatPow(ConditionalNegate(quat.Mul(right, mustInverse(beforeLeft))), 1./6), left)
	e := quat.Mul(QuatPow(ConditionalNegate(quat.Mul(afterRight, mustInverse(left))), -1./6), right)

	f := Slerp(left, d, alpha)
	g := Slerp(d, e, alpha)
	h := Slerp(e, right, alpha)
	m := Slerp(f, g, alpha)
	n := Slerp(g, h, alpha)
	return Slerp(m, n, alpha)
}

// CubicInterpolate interpolates between left and right using beforeLeft and afterRight to shape the curve.
func CubicInterpolate(beforeLeft, left, right, afterRight RigidTransform, alpha float64) RigidTransform {
	return NewRigidTransform(
		CubicInterpolateVector(beforeLeft.translation, left.translation, right.translation, afterRight.translation, alpha),
		CubicInterpolateQuaternion(beforeLeft.rotation, left.rotation, right.rotation, afterRight.rotation, alpha),
	)
}
