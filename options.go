package voxelgif

import (
	"runtime"

	"github.com/voxelkit/voxelgif/frame"
	"github.com/voxelkit/voxelgif/quant"
)

// Backend selects which quantization backend runs first.
type Backend uint8

const (
	// BackendMedianCut runs the deterministic median-cut builder first.
	BackendMedianCut Backend = iota
	// BackendKMeans runs the k-means builder first.
	BackendKMeans
)

// String returns a human-readable backend name.
func (b Backend) String() string {
	if b == BackendKMeans {
		return "kmeans"
	}
	return "median-cut"
}

// TensorSource selects which pixels populate the voxel volume.
type TensorSource uint8

const (
	// TensorFromRaw fills the volume from the downsampled frames before
	// quantization.
	TensorFromRaw TensorSource = iota
	// TensorFromQuantized fills the volume from the palette-mapped
	// frames, so the volume matches the GIF exactly.
	TensorFromQuantized
)

// String returns a human-readable source name.
func (t TensorSource) String() string {
	switch t {
	case TensorFromRaw:
		return "raw"
	case TensorFromQuantized:
		return "quantized"
	default:
		return "unknown"
	}
}

// Options contains configuration for a Pipeline.
type Options struct {
	// TargetSide is the square output side in pixels. Input frames are
	// downsampled to this side, the GIF logical screen is this side,
	// and the voxel cube is TargetSide^3.
	TargetSide int
	// Filter selects the downsampling filter.
	Filter frame.Filter
	// PaletteSize is the maximum palette size, 1 to 256.
	PaletteSize int
	// Mode selects a shared palette or one palette per frame.
	Mode quant.Mode
	// Dither selects the dithering applied during index mapping.
	Dither quant.Dither
	// DitherStrength scales blue-noise perturbation, 0 to 1.
	DitherStrength float64
	// ReserveBackground reserves palette index 0 for the dominant
	// background color and marks it transparent in the GIF.
	ReserveBackground bool
	// FrameDelayCS is the per-frame GIF delay in centiseconds.
	FrameDelayCS int
	// LoopCount is the GIF loop count; 0 loops forever.
	LoopCount int
	// Backend selects the primary quantization backend; the other one
	// becomes the fallback.
	Backend Backend
	// AutoFallback retries a failed quantize-and-encode with the
	// fallback backend before giving up.
	AutoFallback bool
	// TensorSource selects raw or quantized voxel pixels.
	TensorSource TensorSource
	// Workers bounds parallel frame processing; <= 0 means NumCPU.
	Workers int
}

// NewOptions creates a new default Options.
func NewOptions() *Options {
	return &Options{
		TargetSide:        128,
		Filter:            frame.FilterAuto,
		PaletteSize:       quant.MaxPaletteSize,
		Mode:              quant.ModeShared,
		Dither:            quant.DitherErrorDiffusion,
		DitherStrength:    0.5,
		ReserveBackground: false,
		FrameDelayCS:      4, // ~25 fps
		LoopCount:         0,
		Backend:           BackendMedianCut,
		AutoFallback:      true,
		TensorSource:      TensorFromRaw,
		Workers:           runtime.NumCPU(),
	}
}

// quantOptions projects the pipeline options onto the quantizer for the
// given backend method.
func (o *Options) quantOptions(method quant.Method) quant.Options {
	return quant.Options{
		PaletteSize:       o.PaletteSize,
		Mode:              o.Mode,
		Method:            method,
		Dither:            o.Dither,
		DitherStrength:    o.DitherStrength,
		ReserveBackground: o.ReserveBackground,
		Workers:           o.Workers,
	}
}
