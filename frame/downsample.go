package frame

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
)

// Filter selects the resampling kernel used by Downsample.
type Filter uint8

const (
	// FilterAuto picks box averaging when the source side is an integer
	// multiple of the target side, and Catmull-Rom otherwise.
	FilterAuto Filter = iota
	// FilterBox averages the exact source area covered by each target
	// pixel. Only valid for integer downscale ratios.
	FilterBox
	// FilterCatmullRom uses the Catmull-Rom cubic kernel, the highest
	// quality scaler in golang.org/x/image/draw.
	FilterCatmullRom
	// FilterBiLinear trades a little quality for speed.
	FilterBiLinear
)

func (fl Filter) String() string {
	switch fl {
	case FilterBox:
		return "box"
	case FilterCatmullRom:
		return "catmull-rom"
	case FilterBiLinear:
		return "bilinear"
	default:
		return "auto"
	}
}

// Downsample resizes a square frame to toSide using area or cubic
// resampling. It is a pure function: the input frame is never mutated and
// a fresh buffer is always returned, so it is safe to call concurrently
// across frames. All four channels are treated identically, so the result
// is correct for any fixed channel order.
func Downsample(f Frame, toSide int, filter Filter) (Frame, error) {
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	if toSide <= 0 {
		return Frame{}, fmt.Errorf("%w: target side %d", ErrBadSide, toSide)
	}
	if toSide == f.Side {
		return f.Clone(), nil
	}

	if filter == FilterAuto {
		if f.Side > toSide && f.Side%toSide == 0 {
			filter = FilterBox
		} else {
			filter = FilterCatmullRom
		}
	}

	switch filter {
	case FilterBox:
		if f.Side%toSide != 0 {
			return Frame{}, fmt.Errorf("frame: box filter requires integer ratio, got %d -> %d", f.Side, toSide)
		}
		return boxDownsample(f, toSide), nil
	case FilterBiLinear:
		return scaleWith(xdraw.BiLinear, f, toSide), nil
	default:
		return scaleWith(xdraw.CatmullRom, f, toSide), nil
	}
}

func scaleWith(scaler xdraw.Scaler, f Frame, toSide int) Frame {
	dst := image.NewRGBA(image.Rect(0, 0, toSide, toSide))
	scaler.Scale(dst, dst.Rect, f.RGBA(), f.RGBA().Rect, xdraw.Src, nil)
	return Frame{Side: toSide, Pix: dst.Pix}
}

// boxDownsample averages ratio*ratio source pixels per target pixel.
// Integer accumulation keeps the result deterministic across platforms.
func boxDownsample(f Frame, toSide int) Frame {
	ratio := f.Side / toSide
	area := uint32(ratio * ratio)
	half := area / 2
	out := make([]byte, toSide*toSide*Channels)

	for ty := 0; ty < toSide; ty++ {
		for tx := 0; tx < toSide; tx++ {
			var sum [Channels]uint32
			for sy := ty * ratio; sy < (ty+1)*ratio; sy++ {
				rowOff := (sy*f.Side + tx*ratio) * Channels
				for sx := 0; sx < ratio; sx++ {
					off := rowOff + sx*Channels
					sum[0] += uint32(f.Pix[off])
					sum[1] += uint32(f.Pix[off+1])
					sum[2] += uint32(f.Pix[off+2])
					sum[3] += uint32(f.Pix[off+3])
				}
			}
			dst := (ty*toSide + tx) * Channels
			for c := 0; c < Channels; c++ {
				out[dst+c] = byte((sum[c] + half) / area)
			}
		}
	}
	return Frame{Side: toSide, Pix: out}
}

// DownsampleAll resizes every frame to toSide using a parallel worker
// pool. Frames keep their original order. Cancellation is cooperative at
// frame granularity: a cancelled context stops the pool between frames.
func DownsampleAll(ctx context.Context, frames []Frame, toSide int, filter Filter, workers int) ([]Frame, error) {
	logrus.WithFields(logrus.Fields{
		"frames":  len(frames),
		"to_side": toSide,
		"filter":  filter.String(),
		"workers": workers,
	}).Debug("Downsampling frame batch")

	out := make([]Frame, len(frames))
	err := ForEach(ctx, len(frames), workers, func(i int) error {
		df, err := Downsample(frames[i], toSide, filter)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		out[i] = df
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
