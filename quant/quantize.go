package quant

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/voxelkit/voxelgif/frame"
)

// Quantize reduces frames to palette-indexed frames per opts.
//
// In shared mode the histogram of every frame is accumulated before any
// pixel is mapped (fan-out/fan-in barrier); in per-frame mode each frame
// is quantized independently and in parallel. Error-diffusion mapping is
// sequential even in shared mode because its residual carries across
// frames; the other dither modes map frames in parallel.
func Quantize(ctx context.Context, frames []frame.Frame, opts Options) (*Result, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if opts.PaletteSize < 1 || opts.PaletteSize > MaxPaletteSize {
		return nil, fmt.Errorf("%w: %d", ErrBadPaletteSize, opts.PaletteSize)
	}
	side := frames[0].Side
	if i, err := frame.ValidateAll(frames, side); err != nil {
		return nil, fmt.Errorf("frame %d: %w", i, err)
	}

	logrus.WithFields(logrus.Fields{
		"frames":       len(frames),
		"side":         side,
		"palette_size": opts.PaletteSize,
		"mode":         opts.Mode.String(),
		"method":       opts.Method.String(),
		"dither":       opts.Dither.String(),
	}).Info("Quantizing frames")

	if opts.Mode == ModePerFrame {
		return quantizePerFrame(ctx, frames, opts)
	}
	return quantizeShared(ctx, frames, opts)
}

func buildPalette(acc *Accumulator, ref frame.Frame, opts Options) (Palette, int, error) {
	budget := opts.PaletteSize
	transparent := -1
	if opts.ReserveBackground && budget > 1 {
		budget--
	}
	pal, err := acc.BuildPalette(budget, opts.Method)
	if err != nil {
		return nil, -1, err
	}
	if opts.ReserveBackground && opts.PaletteSize > 1 {
		pal = withReservedBackground(pal, dominantBackground(ref), opts.PaletteSize)
		transparent = 0
	}
	return pal, transparent, nil
}

func quantizeShared(ctx context.Context, frames []frame.Frame, opts Options) (*Result, error) {
	acc := NewAccumulator()
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := acc.Add(f); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	logrus.WithField("unique_colors", acc.UniqueColors()).Debug("Histogram accumulated")

	pal, transparent, err := buildPalette(acc, frames[0], opts)
	if err != nil {
		return nil, err
	}
	lab := pal.labTable()

	res := &Result{
		Mode:             ModeShared,
		Method:           opts.Method,
		Palette:          pal,
		Frames:           make([]IndexedFrame, len(frames)),
		TransparentIndex: transparent,
	}

	if opts.Dither == DitherErrorDiffusion {
		m := newMapper(pal, lab, transparent == 0)
		var carry []float64
		for i, f := range frames {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			var idx []byte
			idx, carry = mapDiffusion(f, m, carry)
			res.Frames[i] = IndexedFrame{Side: f.Side, Index: idx}
		}
		return res, nil
	}

	err = frame.ForEach(ctx, len(frames), opts.Workers, func(i int) error {
		m := newMapper(pal, lab, transparent == 0)
		var idx []byte
		if opts.Dither == DitherBlueNoise {
			idx = mapBlueNoise(frames[i], m, i, opts.DitherStrength)
		} else {
			idx = mapPlain(frames[i], m)
		}
		res.Frames[i] = IndexedFrame{Side: frames[i].Side, Index: idx}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func quantizePerFrame(ctx context.Context, frames []frame.Frame, opts Options) (*Result, error) {
	res := &Result{
		Mode:             ModePerFrame,
		Method:           opts.Method,
		Frames:           make([]IndexedFrame, len(frames)),
		TransparentIndex: -1,
	}

	err := frame.ForEach(ctx, len(frames), opts.Workers, func(i int) error {
		acc := NewAccumulator()
		if err := acc.Add(frames[i]); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		pal, transparent, err := buildPalette(acc, frames[i], opts)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		m := newMapper(pal, pal.labTable(), transparent == 0)
		var idx []byte
		switch opts.Dither {
		case DitherBlueNoise:
			idx = mapBlueNoise(frames[i], m, i, opts.DitherStrength)
		case DitherErrorDiffusion:
			// No temporal carry across private palettes.
			idx, _ = mapDiffusion(frames[i], m, nil)
		default:
			idx = mapPlain(frames[i], m)
		}
		res.Frames[i] = IndexedFrame{Side: frames[i].Side, Index: idx, Palette: pal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The first frame's palette doubles as the GIF global color table.
	res.Palette = res.Frames[0].Palette
	if opts.ReserveBackground && opts.PaletteSize > 1 {
		res.TransparentIndex = 0
	}
	return res, nil
}

// Materialize expands a quantized frame back to an RGBA Frame through its
// palette. The reserved background index, when present, becomes fully
// transparent; every other pixel is opaque.
func (r *Result) Materialize(i int) frame.Frame {
	qf := r.Frames[i]
	pal := qf.PaletteFor(r.Palette)
	pix := make([]byte, qf.Side*qf.Side*frame.Channels)
	for o, idx := range qf.Index {
		c := pal[idx]
		p := o * frame.Channels
		pix[p] = c.R
		pix[p+1] = c.G
		pix[p+2] = c.B
		if r.TransparentIndex >= 0 && int(idx) == r.TransparentIndex {
			pix[p+3] = 0
		} else {
			pix[p+3] = 255
		}
	}
	return frame.Frame{Side: qf.Side, Pix: pix}
}
