package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/TrevorS/nearest"
)

// ErrTruncated is returned when a dataset ends in the middle of a point.
var ErrTruncated = errors.New("dataset: trailing partial point")

// CompressedSuffix marks dataset files that are zstd-compressed.
const CompressedSuffix = ".zst"

// Write encodes points to w as consecutive little-endian int64 coordinates.
// Every point must have the length of the first one.
func Write(w io.Writer, points []nearest.Point) error {
	if len(points) == 0 {
		return nil
	}
	dims := len(points[0])
	bw := bufio.NewWriter(w)
	buf := make([]byte, 8*dims)
	for i, p := range points {
		if len(p) != dims {
			return &nearest.DimensionMismatchError{Expected: dims, Actual: len(p), Position: i}
		}
		for j, c := range p {
			binary.LittleEndian.PutUint64(buf[8*j:], uint64(c))
		}
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("dataset: write point %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("dataset: flush: %w", err)
	}
	return nil
}

// Read decodes points of dimension dims from r until EOF. A stream whose
// length is not a multiple of 8*dims fails with ErrTruncated.
func Read(r io.Reader, dims int) ([]nearest.Point, error) {
	if dims <= 0 {
		return nil, &nearest.InvalidDimensionError{Dimension: dims}
	}
	br := bufio.NewReader(r)
	buf := make([]byte, 8*dims)
	var points []nearest.Point
	for {
		_, err := io.ReadFull(br, buf)
		if errors.Is(err, io.EOF) {
			return points, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w after %d points", ErrTruncated, len(points))
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read point %d: %w", len(points), err)
		}
		p := make(nearest.Point, dims)
		for j := range p {
			p[j] = int64(binary.LittleEndian.Uint64(buf[8*j:]))
		}
		points = append(points, p)
	}
}

// WriteFile writes points to path, compressing with zstd when path ends in
// CompressedSuffix.
func WriteFile(path string, points []nearest.Point) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("dataset: close: %w", cerr)
		}
	}()

	if !strings.HasSuffix(path, CompressedSuffix) {
		return Write(f, points)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("dataset: zstd writer: %w", err)
	}
	if err := Write(enc, points); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("dataset: zstd close: %w", err)
	}
	return nil
}

// ReadFile reads a dataset written by WriteFile.
func ReadFile(path string, dims int) ([]nearest.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, CompressedSuffix) {
		return Read(f, dims)
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: zstd reader: %w", err)
	}
	defer dec.Close()
	return Read(dec, dims)
}
