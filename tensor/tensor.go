// Package tensor materializes a frame sequence as a dense cubic RGBA
// volume and persists volumes in a compressed, checksummed container.
//
// The volume layout is frame-major: frame index z is the slowest axis,
// then row y, column x, and finally the four channel bytes. A sequence
// shorter than the cube's side is zero padded; a longer one is
// truncated, so Build never fails on frame count alone.
package tensor

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/voxelkit/voxelgif/frame"
)

// ErrBadSide indicates a non-positive cube side.
var ErrBadSide = errors.New("tensor: side must be positive")

// ErrFrameSizeMismatch indicates an input frame whose side disagrees
// with the cube side.
var ErrFrameSizeMismatch = errors.New("tensor: frame side does not match cube side")

// Tensor is a Side x Side x Side x 4 RGBA volume backed by one
// contiguous buffer.
type Tensor struct {
	Side int
	// Data holds Side*Side*Side*4 bytes in (z, y, x, channel) order.
	Data []byte
}

// New returns a zero-filled cube of the given side.
func New(side int) (*Tensor, error) {
	if side <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadSide, side)
	}
	return &Tensor{
		Side: side,
		Data: make([]byte, side*side*side*frame.Channels),
	}, nil
}

// Build fills a cube of the given side from frames. Every frame must
// already measure side x side. Missing depth slices stay zero; frames
// beyond side are ignored.
func Build(frames []frame.Frame, side int) (*Tensor, error) {
	t, err := New(side)
	if err != nil {
		return nil, err
	}
	n := len(frames)
	if n > side {
		n = side
	}
	for z := 0; z < n; z++ {
		if frames[z].Side != side {
			return nil, fmt.Errorf("%w: frame %d has side %d, want %d",
				ErrFrameSizeMismatch, z, frames[z].Side, side)
		}
		copy(t.frameSlice(z), frames[z].Pix)
	}

	logrus.WithFields(logrus.Fields{
		"side":      side,
		"frames_in": len(frames),
		"used":      n,
		"padded":    side - n,
		"bytes":     len(t.Data),
	}).Debug("Built voxel tensor")
	return t, nil
}

// sliceLen is the byte length of one depth slice.
func (t *Tensor) sliceLen() int {
	return t.Side * t.Side * frame.Channels
}

func (t *Tensor) frameSlice(z int) []byte {
	off := z * t.sliceLen()
	return t.Data[off : off+t.sliceLen()]
}

// Index returns the byte offset of voxel (z, y, x).
func (t *Tensor) Index(z, y, x int) int {
	return ((z*t.Side+y)*t.Side + x) * frame.Channels
}

// At returns the RGBA bytes of voxel (z, y, x).
func (t *Tensor) At(z, y, x int) (r, g, b, a byte) {
	i := t.Index(z, y, x)
	return t.Data[i], t.Data[i+1], t.Data[i+2], t.Data[i+3]
}

// Frame copies depth slice z out as a standalone frame.
func (t *Tensor) Frame(z int) frame.Frame {
	pix := make([]byte, t.sliceLen())
	copy(pix, t.frameSlice(z))
	return frame.Frame{Side: t.Side, Pix: pix}
}
