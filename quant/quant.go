// Package quant reduces RGBA frame streams to palette-indexed frames.
//
// Quantization runs in two phases. An Accumulator first collects a color
// histogram (across all frames in shared mode, or per frame otherwise)
// and is then consumed into an immutable Palette; only after that are
// pixels mapped to palette indices. The accumulator cannot be written to
// once consumed, which keeps the shared histogram safe to read from all
// mapping workers.
//
// Two palette builders are available: median cut in CIE Lab space
// (MethodMedianCut) and k-means clustering (MethodKMeans). Pixel mapping
// always uses perceptual Lab distance rather than raw RGB distance, and
// can apply Sierra error diffusion with temporal carry-over or a
// temporally rotated blue-noise threshold to decorrelate quantization
// error across frames.
package quant

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// MaxPaletteSize is the largest palette the GIF89a format can index.
const MaxPaletteSize = 256

// ErrNoFrames indicates quantization was requested with zero input frames.
var ErrNoFrames = errors.New("quant: no frames supplied")

// ErrBadPaletteSize indicates a palette size outside [1, 256].
var ErrBadPaletteSize = errors.New("quant: palette size must be in [1, 256]")

// ErrAccumulatorConsumed indicates a write to an accumulator that has
// already been consumed into a palette.
var ErrAccumulatorConsumed = errors.New("quant: accumulator already consumed")

// Mode selects whether one palette serves all frames or each frame gets
// its own.
type Mode uint8

const (
	// ModeShared builds a single palette from the histogram of all frames.
	ModeShared Mode = iota
	// ModePerFrame builds an independent palette for every frame.
	ModePerFrame
)

func (m Mode) String() string {
	if m == ModePerFrame {
		return "per-frame"
	}
	return "shared"
}

// Method selects the palette construction algorithm.
type Method uint8

const (
	// MethodMedianCut splits a weighted Lab histogram box-wise at the
	// weighted median of the highest-variance axis.
	MethodMedianCut Method = iota
	// MethodKMeans clusters subsampled pixels with k-means and uses the
	// cluster centers as palette entries.
	MethodKMeans
)

func (m Method) String() string {
	if m == MethodKMeans {
		return "kmeans"
	}
	return "median-cut"
}

// Dither selects the error decorrelation strategy applied during mapping.
type Dither uint8

const (
	// DitherNone maps each pixel to its nearest palette entry directly.
	DitherNone Dither = iota
	// DitherErrorDiffusion distributes residual error with a Sierra
	// kernel and carries 70% of the frame's residual into the next frame.
	DitherErrorDiffusion
	// DitherBlueNoise perturbs pixels with a 64x64 blue-noise threshold
	// matrix rotated by prime offsets per frame.
	DitherBlueNoise
)

func (d Dither) String() string {
	switch d {
	case DitherErrorDiffusion:
		return "error-diffusion"
	case DitherBlueNoise:
		return "blue-noise"
	default:
		return "none"
	}
}

// Color is one 24-bit palette entry.
type Color struct {
	R, G, B uint8
}

// Palette is an ordered list of at most 256 colors. Insertion order
// defines the index written into quantized frames. Entries are distinct
// except that a reserved background at index 0 may duplicate a content
// color; the reserved entry is transparent-only, so its color never
// renders.
type Palette []Color

// Lab returns the CIE Lab coordinates of the palette entry, via the sRGB
// conversion in go-colorful.
func (c Color) Lab() (l, a, b float64) {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Lab()
}

func packRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func unpackRGB(p uint32) Color {
	return Color{R: uint8(p >> 16), G: uint8(p >> 8), B: uint8(p)}
}

// Bytes flattens the palette to 3 bytes per entry in index order, the
// layout used by GIF color tables and the tensor container header.
func (p Palette) Bytes() []byte {
	out := make([]byte, 0, len(p)*3)
	for _, c := range p {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}

// labTable precomputes the Lab coordinates of every palette entry.
func (p Palette) labTable() [][3]float64 {
	out := make([][3]float64, len(p))
	for i, c := range p {
		l, a, b := c.Lab()
		out[i] = [3]float64{l, a, b}
	}
	return out
}

// Options configures a quantization run.
type Options struct {
	// PaletteSize is the maximum number of palette entries (1-256).
	PaletteSize int
	// Mode selects shared or per-frame palettes.
	Mode Mode
	// Method selects the palette builder.
	Method Method
	// Dither selects the error decorrelation strategy.
	Dither Dither
	// DitherStrength scales blue-noise perturbation (0-1). Ignored by
	// the other dither modes.
	DitherStrength float64
	// ReserveBackground reserves palette index 0 for the dominant color
	// of the first frame; fully transparent pixels map to it.
	ReserveBackground bool
	// Workers bounds the mapping worker pool. Zero means NumCPU.
	Workers int
}

// IndexedFrame is one quantized frame: side*side palette indices plus,
// in per-frame mode, its private palette.
type IndexedFrame struct {
	Side  int
	Index []byte
	// Palette is nil in shared mode; the Result-level palette applies.
	Palette Palette
}

// PaletteFor returns the palette that the frame's indices refer to.
func (f IndexedFrame) PaletteFor(shared Palette) Palette {
	if f.Palette != nil {
		return f.Palette
	}
	return shared
}

// Result is the output of Quantize.
type Result struct {
	Mode   Mode
	Method Method
	// Palette is the shared palette. In per-frame mode it is the first
	// frame's palette, retained as the GIF global color table.
	Palette Palette
	Frames  []IndexedFrame
	// TransparentIndex is the reserved background index, or -1.
	TransparentIndex int
}

// Validate checks the palette-index invariant on every frame.
func (r *Result) Validate() error {
	for i, f := range r.Frames {
		pal := f.PaletteFor(r.Palette)
		if len(pal) == 0 || len(pal) > MaxPaletteSize {
			return fmt.Errorf("quant: frame %d palette has %d entries", i, len(pal))
		}
		for _, idx := range f.Index {
			if int(idx) >= len(pal) {
				return fmt.Errorf("quant: frame %d index %d outside palette of %d", i, idx, len(pal))
			}
		}
	}
	return nil
}
