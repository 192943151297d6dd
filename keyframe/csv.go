package keyframe

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/keyframe/spatialmath"
)

// csvHeader is the exact first record of every keyframe file.
var csvHeader = []string{"frame_num", "rbt_ind", "tx", "ty", "tz", "rw", "rx", "ry", "rz"}

const csvPrecision = 6

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', csvPrecision, 64)
}

// Export writes every frame as one row per node.
func (s *Sequence) Export(w io.Writer) error {
	if s.Empty() {
		return ErrEmptySequence
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	record := make([]string, len(csvHeader))
	for frameNum, frame := range s.frames {
		for nodeIdx, pose := range frame {
			t := pose.Translation()
			r := pose.Rotation()
			record[0] = strconv.Itoa(frameNum)
			record[1] = strconv.Itoa(nodeIdx)
			record[2] = formatFloat(t.X)
			record[3] = formatFloat(t.Y)
			record[4] = formatFloat(t.Z)
			record[5] = formatFloat(r.Real)
			record[6] = formatFloat(r.Imag)
			record[7] = formatFloat(r.Jmag)
			record[8] = formatFloat(r.Kmag)
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportTo writes the sequence to the file at path. Nothing is written when the sequence is empty.
func (s *Sequence) ExportTo(path string) error {
	var buf bytes.Buffer
	if err := s.Export(&buf); err != nil {
		return errors.Wrapf(err, "cannot export keyframes to %q", path)
	}
	//nolint:gosec
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "cannot export keyframes to %q", path)
	}
	s.logger.Infow("exported keyframes", "path", path, "frames", len(s.frames), "nodes", len(s.nodes))
	return nil
}

// Import replaces every frame with those read from r, then seeks to the first frame. On error the
// sequence and the hierarchy are left untouched.
func (s *Sequence) Import(r io.Reader) error {
	frames, err := parseFrames(r, len(s.nodes))
	if err != nil {
		return err
	}
	s.frames = frames
	s.cursor = 0
	s.OverwriteHierarchyFromCurrentFrame()
	return nil
}

// ImportFrom replaces every frame with those read from the file at path.
func (s *Sequence) ImportFrom(path string) error {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot import keyframes from %q", path)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warnw("error closing keyframe file", "path", path, "error", err)
		}
	}()
	if err := s.Import(f); err != nil {
		return errors.Wrapf(err, "cannot import keyframes from %q", path)
	}
	s.logger.Infow("imported keyframes", "path", path, "frames", len(s.frames), "nodes", len(s.nodes))
	return nil
}

// parseFrames reads a keyframe file. Fields are plain, unquoted decimal numbers and every line holds
// exactly one record.
func parseFrames(r io.Reader, nodeCount int) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read keyframes")
	}
	lines := strings.Split(string(data), "\n")

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = len(csvHeader)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		if len(data) > 0 {
			return nil, newParseError(1, "blank line")
		}
		return nil, newParseError(1, "missing header")
	}
	if err != nil {
		return nil, csvReadError(1, err)
	}
	row, _ := cr.FieldPos(0)
	if err := checkLine(lines, 0, row); err != nil {
		return nil, err
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, newParseError(1, "header field %d is %q, want %q", i+1, header[i], name)
		}
	}

	var frames []Frame
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvReadError(row+1, err)
		}
		prev := row
		row, _ = cr.FieldPos(0)
		if err := checkLine(lines, prev, row); err != nil {
			return nil, err
		}

		frameNum, err := parseIndex(record[0])
		if err != nil {
			return nil, newParseError(row, "frame_num: %v", err)
		}
		nodeIdx, err := parseIndex(record[1])
		if err != nil {
			return nil, newParseError(row, "rbt_ind: %v", err)
		}

		switch {
		case frameNum == len(frames)-1:
		case frameNum == len(frames):
			if len(frames) > 0 && len(frames[len(frames)-1]) != nodeCount {
				return nil, newParseError(row, "frame %d has %d poses, want %d",
					len(frames)-1, len(frames[len(frames)-1]), nodeCount)
			}
			frames = append(frames, make(Frame, 0, nodeCount))
		default:
			return nil, newParseError(row, "frame_num %d out of sequence, expected %d or %d",
				frameNum, len(frames)-1, len(frames))
		}
		frame := &frames[len(frames)-1]
		if nodeIdx != len(*frame) || nodeIdx >= nodeCount {
			return nil, newParseError(row, "rbt_ind %d out of sequence, expected %d of %d nodes",
				nodeIdx, len(*frame), nodeCount)
		}

		var vals [7]float64
		for i := range vals {
			vals[i], err = parseNumber(record[i+2])
			if err != nil {
				return nil, newParseError(row, "%s: %v", csvHeader[i+2], err)
			}
		}
		rot := spatialmath.NewQuaternion(vals[3], vals[4], vals[5], vals[6])
		if _, err := spatialmath.QuatInverse(rot); err != nil {
			return nil, newParseError(row, "rotation: %v", err)
		}
		t := spatialmath.NewRigidTransform(r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, rot)
		*frame = append(*frame, t)
	}
	// the reader skips blank lines, including those after the last record
	if trailing := lines[row:]; len(trailing) > 1 || (len(trailing) == 1 && trailing[0] != "") {
		return nil, newParseError(row+1, "blank line")
	}

	if len(frames) > 0 && len(frames[len(frames)-1]) != nodeCount {
		last := frames[len(frames)-1]
		return nil, newParseError(row, "final frame %d has %d poses, want %d", len(frames)-1, len(last), nodeCount)
	}
	return frames, nil
}

// checkLine rejects what the csv reader would otherwise accept silently: blank lines between the record
// on line prev and the one on line row, or a quoted field in the record on line row.
func checkLine(lines []string, prev, row int) error {
	if row != prev+1 {
		return newParseError(prev+1, "blank line")
	}
	if strings.Contains(lines[row-1], `"`) {
		return newParseError(row, "quoted fields are not allowed")
	}
	return nil
}

// parseNumber accepts a finite decimal number.
func parseNumber(field string) (float64, error) {
	if strings.ContainsAny(field, "xX_") {
		return 0, errors.Errorf("%q is not a decimal number", field)
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, errors.Errorf("%q is not a number", field)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Errorf("%q is not finite", field)
	}
	return v, nil
}

func parseIndex(field string) (int, error) {
	v, err := strconv.Atoi(field)
	if err != nil {
		return 0, errors.Errorf("%q is not an integer", field)
	}
	if v < 0 {
		return 0, errors.Errorf("%d is negative", v)
	}
	return v, nil
}

func csvReadError(row int, err error) *ParseError {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return newParseError(perr.Line, "%v", perr.Err)
	}
	return newParseError(row, "%v", err)
}
