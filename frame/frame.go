// Package frame defines the raw pixel frame type shared by all pipeline
// stages and implements high-quality square downsampling.
//
// A Frame is an owned, immutable byte buffer of exactly side*side*4 bytes
// in RGBA channel order (8 bits per channel). All frames in one pipeline
// run share the same side. Frames produced by a camera in BGRA order must
// be converted with FromBGRA before entering the pipeline.
package frame

import (
	"errors"
	"fmt"
	"image"
)

// ErrSizeMismatch indicates that a pixel buffer length disagrees with the
// declared frame side.
var ErrSizeMismatch = errors.New("frame: buffer size does not match side")

// ErrBadSide indicates a non-positive frame side.
var ErrBadSide = errors.New("frame: side must be positive")

// Channels is the number of bytes per pixel (R, G, B, A).
const Channels = 4

// Frame is a square RGBA pixel buffer. The zero value is not usable;
// construct frames with New, FromBGRA, or Downsample.
type Frame struct {
	// Side is the edge length in pixels.
	Side int
	// Pix holds side*side*4 bytes in R, G, B, A order, row-major.
	Pix []byte
}

// New validates pix against side and wraps it as a Frame. The buffer is
// not copied; the caller transfers ownership and must not mutate it.
func New(side int, pix []byte) (Frame, error) {
	if side <= 0 {
		return Frame{}, fmt.Errorf("%w: %d", ErrBadSide, side)
	}
	if len(pix) != side*side*Channels {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d for side %d",
			ErrSizeMismatch, len(pix), side*side*Channels, side)
	}
	return Frame{Side: side, Pix: pix}, nil
}

// FromBGRA converts a BGRA buffer (the layout produced by most camera
// capture APIs) into an RGBA Frame. The input is copied, not aliased.
func FromBGRA(side int, pix []byte) (Frame, error) {
	if side <= 0 {
		return Frame{}, fmt.Errorf("%w: %d", ErrBadSide, side)
	}
	if len(pix) != side*side*Channels {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d for side %d",
			ErrSizeMismatch, len(pix), side*side*Channels, side)
	}
	out := make([]byte, len(pix))
	for i := 0; i < len(pix); i += Channels {
		out[i] = pix[i+2]
		out[i+1] = pix[i+1]
		out[i+2] = pix[i]
		out[i+3] = pix[i+3]
	}
	return Frame{Side: side, Pix: out}, nil
}

// Solid returns a frame filled with a single RGBA color. Used by tests
// and by callers that need padding frames.
func Solid(side int, r, g, b, a byte) Frame {
	pix := make([]byte, side*side*Channels)
	for i := 0; i < len(pix); i += Channels {
		pix[i] = r
		pix[i+1] = g
		pix[i+2] = b
		pix[i+3] = a
	}
	return Frame{Side: side, Pix: pix}
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return Frame{Side: f.Side, Pix: pix}
}

// Validate checks the frame invariant (len(Pix) == Side*Side*4).
func (f Frame) Validate() error {
	if f.Side <= 0 {
		return fmt.Errorf("%w: %d", ErrBadSide, f.Side)
	}
	if len(f.Pix) != f.Side*f.Side*Channels {
		return fmt.Errorf("%w: got %d bytes, want %d for side %d",
			ErrSizeMismatch, len(f.Pix), f.Side*f.Side*Channels, f.Side)
	}
	return nil
}

// At returns the RGBA bytes of the pixel at (x, y).
func (f Frame) At(x, y int) (r, g, b, a byte) {
	i := (y*f.Side + x) * Channels
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]
}

// RGBA wraps the frame buffer as an *image.RGBA without copying. The
// returned image aliases Pix and must be treated as read-only.
func (f Frame) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Side * Channels,
		Rect:   image.Rect(0, 0, f.Side, f.Side),
	}
}

// ValidateAll checks that every frame has the given side. It returns the
// index of the first offending frame alongside the error.
func ValidateAll(frames []Frame, side int) (int, error) {
	for i, f := range frames {
		if f.Side != side || len(f.Pix) != side*side*Channels {
			return i, fmt.Errorf("%w: frame %d has side %d (%d bytes), want side %d",
				ErrSizeMismatch, i, f.Side, len(f.Pix), side)
		}
	}
	return -1, nil
}
