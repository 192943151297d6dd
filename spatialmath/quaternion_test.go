package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func randomQuaternion(rng *rand.Rand) quat.Number {
	return Normalize(quat.Number{
		Real: rng.Float64()*2 - 1,
		Imag: rng.Float64()*2 - 1,
		Jmag: rng.Float64()*2 - 1,
		Kmag: rng.Float64()*2 - 1,
	})
}

func vectorAlmostEqual(t *testing.T, actual, expected r3.Vector) {
	t.Helper()
	test.That(t, actual.X, test.ShouldAlmostEqual, expected.X, 1e-9)
	test.That(t, actual.Y, test.ShouldAlmostEqual, expected.Y, 1e-9)
	test.That(t, actual.Z, test.ShouldAlmostEqual, expected.Z, 1e-9)
}

func TestQuaternionInverse(t *testing.T) {
	//nolint:gosec
	rng := rand.New(rand.NewSource(1))
	identity := NewZeroQuaternion()
	for i := 0; i < 100; i++ {
		q := randomQuaternion(rng)
		inv, err := QuatInverse(q)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, QuatNormSquared(quat.Sub(quat.Mul(q, inv), identity)), test.ShouldBeLessThan, 1e-12)
		test.That(t, QuatNormSquared(quat.Sub(quat.Mul(inv, q), identity)), test.ShouldBeLessThan, 1e-12)
	}

	// non-unit quaternions invert too
	q := NewQuaternion(2, 0, 0, 0)
	inv, err := QuatInverse(q)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, inv.Real, test.ShouldAlmostEqual, 0.5)

	_, err = QuatInverse(NewQuaternion(0, 0, 0, 0))
	test.That(t, err, test.ShouldBeError, ErrDegenerateQuaternion)
	_, err = QuatInverse(NewQuaternion(math.NaN(), 0, 0, 0))
	test.That(t, err, test.ShouldBeError, ErrDegenerateQuaternion)
}

func TestAxisRotations(t *testing.T) {
	vectorAlmostEqual(t, RotateVector(NewZRotation(90), r3.Vector{X: 1}), r3.Vector{Y: 1})
	vectorAlmostEqual(t, RotateVector(NewXRotation(90), r3.Vector{Y: 1}), r3.Vector{Z: 1})
	vectorAlmostEqual(t, RotateVector(NewYRotation(90), r3.Vector{Z: 1}), r3.Vector{X: 1})
	vectorAlmostEqual(t, RotateVector(NewZeroQuaternion(), r3.Vector{X: 1, Y: 2, Z: 3}), r3.Vector{X: 1, Y: 2, Z: 3})

	z90 := NewZRotation(90)
	test.That(t, quat.Abs(z90), test.ShouldAlmostEqual, 1.)
	test.That(t, z90.Real, test.ShouldAlmostEqual, math.Cos(math.Pi/4))
	test.That(t, z90.Kmag, test.ShouldAlmostEqual, math.Sin(math.Pi/4))

	// composition applies the right hand rotation first
	xThenZ := QuatMul(NewZRotation(90), NewXRotation(90))
	vectorAlmostEqual(t, RotateVector(xThenZ, r3.Vector{Y: 1}), r3.Vector{Z: 1})
	vectorAlmostEqual(t, RotateVector(xThenZ, r3.Vector{X: 1}), r3.Vector{Y: 1})
}

func TestAxisAngle(t *testing.T) {
	q, err := NewQuaternionFromAxisAngle(r3.Vector{Z: 2}, 90)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, QuaternionAlmostEqual(q, NewZRotation(90), 1e-9), test.ShouldBeTrue)

	_, err = NewQuaternionFromAxisAngle(r3.Vector{}, 90)
	test.That(t, err, test.ShouldNotBeNil)

	aa := QuatToR4AA(NewXRotation(45))
	test.That(t, aa.Theta, test.ShouldAlmostEqual, math.Pi/4)
	test.That(t, aa.RX, test.ShouldAlmostEqual, 1.)
	test.That(t, QuaternionAlmostEqual(aa.ToQuat(), NewXRotation(45), 1e-9), test.ShouldBeTrue)
	test.That(t, QuatToR4AA(NewZeroQuaternion()).Theta, test.ShouldAlmostEqual, 0.)
	test.That(t, aa.String(), test.ShouldContainSubstring, "45.00°")
}

func TestQuatPow(t *testing.T) {
	z90 := NewZRotation(90)
	test.That(t, QuaternionAlmostEqual(QuatPow(z90, 1), z90, 1e-9), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(QuatPow(z90, 0.5), NewZRotation(45), 1e-9), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(QuatPow(z90, -1), NewZRotation(-90), 1e-9), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(QuatPow(z90, 0), NewZeroQuaternion(), 1e-9), test.ShouldBeTrue)

	// without an axis the input comes back untouched
	scalar := NewQuaternion(2, 0, 0, 0)
	test.That(t, QuatPow(scalar, 0.3), test.ShouldResemble, scalar)
	test.That(t, QuatPow(Flip(NewZeroQuaternion()), 0.5), test.ShouldResemble, Flip(NewZeroQuaternion()))
}

func TestConditionalNegate(t *testing.T) {
	q := NewQuaternion(-0.5, 0.5, 0.5, 0.5)
	test.That(t, ConditionalNegate(q), test.ShouldResemble, NewQuaternion(0.5, -0.5, -0.5, -0.5))
	test.That(t, ConditionalNegate(NewZRotation(30)), test.ShouldResemble, NewZRotation(30))
	test.That(t, QuaternionAlmostEqual(q, ConditionalNegate(q), 1e-12), test.ShouldBeTrue)
}

func TestSlerp(t *testing.T) {
	//nolint:gosec
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		a := randomQuaternion(rng)
		b := randomQuaternion(rng)
		test.That(t, QuaternionAlmostEqual(Slerp(a, b, 0), a, 1e-9), test.ShouldBeTrue)
		test.That(t, QuaternionAlmostEqual(Slerp(a, b, 1), b, 1e-9), test.ShouldBeTrue)
		test.That(t, quat.Abs(Slerp(a, b, 0.37)), test.ShouldAlmostEqual, 1., 1e-9)
	}

	mid := Slerp(NewZeroQuaternion(), NewZRotation(90), 0.5)
	test.That(t, QuaternionAlmostEqual(mid, NewZRotation(45), 1e-9), test.ShouldBeTrue)

	// the negated end is the same rotation and must not send the blend the long way around
	mid = Slerp(NewZeroQuaternion(), Flip(NewZRotation(90)), 0.5)
	test.That(t, QuaternionAlmostEqual(mid, NewZRotation(45), 1e-9), test.ShouldBeTrue)
}

func TestQuatToMatrix(t *testing.T) {
	m := QuatToMatrix(NewZRotation(90))
	test.That(t, m.At(0, 0), test.ShouldAlmostEqual, 0.)
	test.That(t, m.At(1, 0), test.ShouldAlmostEqual, 1.)
	test.That(t, m.At(0, 1), test.ShouldAlmostEqual, -1.)
	test.That(t, m.At(2, 2), test.ShouldAlmostEqual, 1.)
}
