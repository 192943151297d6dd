package keyframe

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/keyframe/spatialmath"
)

const testHeader = "frame_num,rbt_ind,tx,ty,tz,rw,rx,ry,rz\n"

func TestExportFormat(t *testing.T) {
	s := newTestScene(t)
	s.setPose(t, s.a, spatialmath.NewRigidTransform(r3.Vector{X: 0.5, Y: -2, Z: 1.0 / 3}, spatialmath.NewQuaternion(0, 0, 0, 1)))
	s.seq.Snapshot()

	var buf bytes.Buffer
	test.That(t, s.seq.Export(&buf), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual, testHeader+
		"0,0,0.500000,-2.000000,0.333333,0.000000,0.000000,0.000000,1.000000\n"+
		"0,1,1.000000,0.000000,0.000000,1.000000,0.000000,0.000000,0.000000\n")
}

func TestExportEmpty(t *testing.T) {
	s := newTestScene(t)
	path := filepath.Join(t.TempDir(), "frames.csv")
	err := s.seq.ExportTo(path)
	test.That(t, errors.Is(err, ErrEmptySequence), test.ShouldBeTrue)
	_, err = os.Stat(path)
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}

func TestExportUnwritablePath(t *testing.T) {
	s := newTestScene(t)
	s.seq.Snapshot()
	err := s.seq.ExportTo(filepath.Join(t.TempDir(), "missing", "frames.csv"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newTestScene(t)
	for i := 0; i < 5; i++ {
		x := float64(i)
		s.setPose(t, s.a, spatialmath.NewRigidTransform(r3.Vector{X: x, Y: x * x, Z: -x}, spatialmath.NewZRotation(17*x)))
		s.setPose(t, s.b, spatialmath.NewRigidTransform(r3.Vector{Y: 0.25 * x}, spatialmath.NewXRotation(-33*x)))
		s.seq.Snapshot()
	}
	path := filepath.Join(t.TempDir(), "frames.csv")
	test.That(t, s.seq.ExportTo(path), test.ShouldBeNil)

	other := newTestScene(t)
	other.seq.Snapshot()
	other.seq.Snapshot()
	test.That(t, other.seq.ImportFrom(path), test.ShouldBeNil)
	test.That(t, other.seq.Len(), test.ShouldEqual, 5)
	test.That(t, other.seq.Cursor(), test.ShouldEqual, 0)

	for i := 0; i < 5; i++ {
		want, err := s.seq.Frame(i)
		test.That(t, err, test.ShouldBeNil)
		got, err := other.seq.Frame(i)
		test.That(t, err, test.ShouldBeNil)
		framesEqual(t, got, want)
	}

	first, err := s.seq.Frame(0)
	test.That(t, err, test.ShouldBeNil)
	framesEqual(t, Frame{other.pose(t, other.a), other.pose(t, other.b)}, first)
}

func TestImportHeaderOnly(t *testing.T) {
	s := newTestScene(t)
	s.seq.Snapshot()
	s.seq.Snapshot()
	test.That(t, s.seq.Import(strings.NewReader(testHeader)), test.ShouldBeNil)
	test.That(t, s.seq.Empty(), test.ShouldBeTrue)
	test.That(t, s.seq.Cursor(), test.ShouldEqual, 0)
}

func TestImportMissingFile(t *testing.T) {
	s := newTestScene(t)
	err := s.seq.ImportFrom(filepath.Join(t.TempDir(), "nope.csv"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrMalformedCSV), test.ShouldBeFalse)
}

func TestImportErrors(t *testing.T) {
	const (
		a0 = "0,0,0,0,0,1,0,0,0\n"
		b0 = "0,1,1,0,0,1,0,0,0\n"
		a1 = "1,0,2,0,0,1,0,0,0\n"
		b1 = "1,1,1,0,0,1,0,0,0\n"
	)
	for _, tc := range []struct {
		name  string
		input string
		row   int
	}{
		{"empty input", "", 1},
		{"wrong header", "frame,rbt_ind,tx,ty,tz,rw,rx,ry,rz\n", 1},
		{"short header", "frame_num,rbt_ind\n", 1},
		{"first frame not zero", testHeader + "1,0,0,0,0,1,0,0,0\n", 2},
		{"skipped frame", testHeader + a0 + b0 + "2,0,0,0,0,1,0,0,0\n", 4},
		{"missing node", testHeader + a0 + a1 + b1, 3},
		{"node out of order", testHeader + b0 + a0, 2},
		{"extra node", testHeader + a0 + b0 + "0,2,0,0,0,1,0,0,0\n", 4},
		{"frame goes backwards", testHeader + a0 + b0 + a1 + "0,1,0,0,0,1,0,0,0\n", 5},
		{"truncated final frame", testHeader + a0 + b0 + a1, 4},
		{"negative frame", testHeader + "-1,0,0,0,0,1,0,0,0\n", 2},
		{"bad index", testHeader + "0,x,0,0,0,1,0,0,0\n", 2},
		{"bad number", testHeader + a0 + "0,1,1,abc,0,1,0,0,0\n", 3},
		{"too few fields", testHeader + a0 + "0,1,1,0,0,1,0,0\n", 3},
		{"zero rotation", testHeader + "0,0,0,0,0,0,0,0,0\n", 2},
		{"nan rotation", testHeader + "0,0,0,0,0,NaN,0,0,0\n", 2},
		{"nan translation", testHeader + "0,0,NaN,0,0,1,0,0,0\n", 2},
		{"infinite translation", testHeader + a0 + "0,1,Inf,0,0,1,0,0,0\n", 3},
		{"hex float", testHeader + "0,0,0x1p-2,0,0,1,0,0,0\n", 2},
		{"overflowing number", testHeader + "0,0,1e400,0,0,1,0,0,0\n", 2},
		{"quoted field", testHeader + "0,0,\"0\",0,0,1,0,0,0\n", 2},
		{"blank line between records", testHeader + a0 + "\n" + b0, 3},
		{"blank line before header", "\n" + testHeader + a0 + b0, 1},
		{"trailing blank line", testHeader + a0 + b0 + "\n", 4},
		{"only blank lines", "\n\n", 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestScene(t)
			s.setPose(t, s.a, translation(3))
			s.seq.Snapshot()
			s.setPose(t, s.a, translation(4))
			s.seq.Snapshot()
			test.That(t, s.seq.MoveCursorLeft(), test.ShouldBeTrue)
			s.setPose(t, s.b, translation(8))

			err := s.seq.Import(strings.NewReader(tc.input))
			test.That(t, errors.Is(err, ErrMalformedCSV), test.ShouldBeTrue)
			var perr *ParseError
			test.That(t, errors.As(err, &perr), test.ShouldBeTrue)
			test.That(t, perr.Row, test.ShouldEqual, tc.row)

			test.That(t, s.seq.Len(), test.ShouldEqual, 2)
			test.That(t, s.seq.Cursor(), test.ShouldEqual, 0)
			frame, err := s.seq.Frame(1)
			test.That(t, err, test.ShouldBeNil)
			framesEqual(t, frame, Frame{translation(4), translation(1)})
			framesEqual(t, Frame{s.pose(t, s.b)}, Frame{translation(8)})
		})
	}
}

func TestImportFromWrapsParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	test.That(t, os.WriteFile(path, []byte(testHeader+"3,0,0,0,0,1,0,0,0\n"), 0o600), test.ShouldBeNil)

	s := newTestScene(t)
	err := s.seq.ImportFrom(path)
	var perr *ParseError
	test.That(t, errors.As(err, &perr), test.ShouldBeTrue)
	test.That(t, perr.Row, test.ShouldEqual, 2)
	test.That(t, err.Error(), test.ShouldContainSubstring, "row 2")
}
