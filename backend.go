package voxelgif

import (
	"context"

	"github.com/voxelkit/voxelgif/frame"
	"github.com/voxelkit/voxelgif/gif89a"
	"github.com/voxelkit/voxelgif/quant"
)

// backend drives one palette builder. The pipeline tries its backends
// in order: the primary first, then the fallback when AutoFallback is
// set and the primary's quantize or encode stage failed.
type backend interface {
	Name() string
	quantize(ctx context.Context, frames []frame.Frame, opts *Options) (*quant.Result, error)
}

type medianCutBackend struct{}

func (medianCutBackend) Name() string { return "median-cut" }

func (medianCutBackend) quantize(ctx context.Context, frames []frame.Frame, opts *Options) (*quant.Result, error) {
	return quant.Quantize(ctx, frames, opts.quantOptions(quant.MethodMedianCut))
}

type kmeansBackend struct{}

func (kmeansBackend) Name() string { return "kmeans" }

func (kmeansBackend) quantize(ctx context.Context, frames []frame.Frame, opts *Options) (*quant.Result, error) {
	return quant.Quantize(ctx, frames, opts.quantOptions(quant.MethodKMeans))
}

// encodeResult serializes a quantized result as an animated GIF with the
// pipeline's timing and loop settings.
func encodeResult(res *quant.Result, opts *Options) ([]byte, error) {
	doc := &gif89a.Document{
		Width:         opts.TargetSide,
		Height:        opts.TargetSide,
		GlobalPalette: res.Palette,
		LoopCount:     opts.LoopCount,
		Frames:        make([]gif89a.Frame, len(res.Frames)),
	}
	if res.TransparentIndex >= 0 {
		doc.BackgroundIndex = res.TransparentIndex
	}
	for i, qf := range res.Frames {
		gf := gif89a.Frame{
			Index:            qf.Index,
			DelayCS:          opts.FrameDelayCS,
			Disposal:         gif89a.DisposalKeep,
			TransparentIndex: res.TransparentIndex,
		}
		if res.Mode == quant.ModePerFrame {
			gf.Palette = qf.Palette
		}
		doc.Frames[i] = gf
	}
	return gif89a.Encode(doc)
}
