// Package gif89a assembles palette-indexed frames into a byte-exact
// GIF89a stream, including the variable-width LZW compression of each
// frame's index data. Output is fully deterministic: identical documents
// serialize to identical bytes.
package gif89a

import (
	"errors"

	"github.com/voxelkit/voxelgif/quant"
)

// ErrNoFrames indicates an empty document.
var ErrNoFrames = errors.New("gif89a: document has no frames")

// ErrFrameSizeMismatch indicates a frame whose pixel count disagrees with
// the document's logical screen size.
var ErrFrameSizeMismatch = errors.New("gif89a: frame size does not match logical screen")

// ErrIndexOutOfRange indicates a pixel index outside its color table.
var ErrIndexOutOfRange = errors.New("gif89a: palette index out of range")

// ErrNoPalette indicates a frame with neither a local palette nor a
// document-level global palette.
var ErrNoPalette = errors.New("gif89a: frame has no palette")

// Disposal is the GIF frame disposal method.
type Disposal uint8

const (
	// DisposalNone leaves disposal unspecified.
	DisposalNone Disposal = 0
	// DisposalKeep leaves the frame in place for the next one to draw over.
	DisposalKeep Disposal = 1
	// DisposalBackground restores the background color after the frame.
	DisposalBackground Disposal = 2
	// DisposalPrevious restores the previous frame's pixels.
	DisposalPrevious Disposal = 3
)

// Frame is one animation frame: an index stream plus its timing and,
// optionally, a private color table.
type Frame struct {
	// Index holds Width*Height palette indices, row-major.
	Index []byte
	// DelayCS is the presentation delay in centiseconds.
	DelayCS int
	// Disposal is the frame disposal method.
	Disposal Disposal
	// Palette, when non-nil, is written as a Local Color Table.
	Palette quant.Palette
	// TransparentIndex marks the transparent entry, or -1 for none.
	TransparentIndex int
}

// Document is an ordered sequence of frames plus animation parameters.
// It is built once per pipeline run, serialized with Encode, and
// discarded.
type Document struct {
	Width  int
	Height int
	// GlobalPalette serves every frame without a local palette.
	GlobalPalette quant.Palette
	// LoopCount is the Netscape loop count; 0 means loop forever. The
	// loop extension is only emitted for multi-frame documents.
	LoopCount int
	// BackgroundIndex is written into the logical screen descriptor.
	BackgroundIndex int
	Frames          []Frame
}

// paletteFor resolves the color table a frame's indices refer to.
func (d *Document) paletteFor(f *Frame) quant.Palette {
	if f.Palette != nil {
		return f.Palette
	}
	return d.GlobalPalette
}
