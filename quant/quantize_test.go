package quant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelkit/voxelgif/frame"
)

func solidSeq(side int, colors ...[3]byte) []frame.Frame {
	out := make([]frame.Frame, len(colors))
	for i, c := range colors {
		out[i] = frame.Solid(side, c[0], c[1], c[2], 255)
	}
	return out
}

func TestQuantizeValidatesInput(t *testing.T) {
	ctx := context.Background()

	_, err := Quantize(ctx, nil, Options{PaletteSize: 8})
	assert.ErrorIs(t, err, ErrNoFrames)

	frames := solidSeq(2, [3]byte{1, 2, 3})
	_, err = Quantize(ctx, frames, Options{PaletteSize: 0})
	assert.ErrorIs(t, err, ErrBadPaletteSize)
	_, err = Quantize(ctx, frames, Options{PaletteSize: 300})
	assert.ErrorIs(t, err, ErrBadPaletteSize)

	mixed := []frame.Frame{frame.Solid(2, 0, 0, 0, 255), frame.Solid(4, 0, 0, 0, 255)}
	_, err = Quantize(ctx, mixed, Options{PaletteSize: 8})
	assert.ErrorIs(t, err, frame.ErrSizeMismatch)
}

func TestQuantizeSharedExactColors(t *testing.T) {
	frames := solidSeq(2,
		[3]byte{255, 0, 0},
		[3]byte{0, 255, 0},
		[3]byte{0, 0, 255},
		[3]byte{255, 255, 255},
	)

	res, err := Quantize(context.Background(), frames, Options{PaletteSize: 4})
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	assert.Equal(t, ModeShared, res.Mode)
	assert.Len(t, res.Palette, 4)
	assert.Equal(t, -1, res.TransparentIndex)
	require.Len(t, res.Frames, 4)

	// Every solid frame maps all pixels to one entry matching its color.
	for i, f := range res.Frames {
		require.Len(t, f.Index, 4)
		first := f.Index[0]
		for _, idx := range f.Index {
			assert.Equal(t, first, idx)
		}
		r, g, b, _ := frames[i].At(0, 0)
		assert.Equal(t, Color{R: r, G: g, B: b}, res.Palette[first])
		assert.Nil(t, f.Palette, "shared mode carries no per-frame palette")
	}
}

func TestQuantizePerFrame(t *testing.T) {
	frames := solidSeq(2, [3]byte{250, 10, 10}, [3]byte{10, 250, 10})

	res, err := Quantize(context.Background(), frames, Options{
		PaletteSize: 8,
		Mode:        ModePerFrame,
	})
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	assert.Equal(t, ModePerFrame, res.Mode)
	require.Len(t, res.Frames, 2)
	assert.Equal(t, Palette{{R: 250, G: 10, B: 10}}, res.Frames[0].Palette)
	assert.Equal(t, Palette{{R: 10, G: 250, B: 10}}, res.Frames[1].Palette)
	assert.Equal(t, res.Frames[0].Palette, res.Palette)
}

func TestQuantizeDitherModesStayInRange(t *testing.T) {
	frames := []frame.Frame{gradientFrame(16), gradientFrame(16)}

	for _, d := range []Dither{DitherNone, DitherErrorDiffusion, DitherBlueNoise} {
		res, err := Quantize(context.Background(), frames, Options{
			PaletteSize:    16,
			Dither:         d,
			DitherStrength: 0.5,
		})
		require.NoError(t, err, d.String())
		assert.NoError(t, res.Validate(), d.String())
	}
}

func TestQuantizeReserveBackground(t *testing.T) {
	// Mostly dark frame with a few bright pixels.
	f := frame.Solid(8, 10, 10, 10, 255)
	for i := 0; i < 3*frame.Channels; i += frame.Channels {
		f.Pix[i] = 240
		f.Pix[i+1] = 240
		f.Pix[i+2] = 240
	}

	res, err := Quantize(context.Background(), []frame.Frame{f}, Options{
		PaletteSize:       8,
		ReserveBackground: true,
	})
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	assert.Equal(t, 0, res.TransparentIndex)
	require.NotEmpty(t, res.Palette)

	// Opaque pixels never land on the reserved index.
	for _, idx := range res.Frames[0].Index {
		assert.NotEqual(t, uint8(0), idx)
	}
}

func TestQuantizeReserveBackgroundSingleColor(t *testing.T) {
	// A single-color opaque input whose dominant color equals its only
	// content color must keep the reserved entry separate: the palette
	// needs a second entry for opaque pixels, or everything would render
	// transparent.
	f := frame.Solid(4, 100, 100, 100, 255)

	res, err := Quantize(context.Background(), []frame.Frame{f}, Options{
		PaletteSize:       8,
		ReserveBackground: true,
	})
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	assert.Equal(t, 0, res.TransparentIndex)
	require.GreaterOrEqual(t, len(res.Palette), 2)
	for _, idx := range res.Frames[0].Index {
		assert.NotEqual(t, uint8(0), idx, "opaque pixels must not use the reserved index")
	}
	assert.Equal(t, Color{R: 100, G: 100, B: 100}, res.Palette[res.Frames[0].Index[0]])
}

func TestQuantizeTransparentPixelsUseReservedIndex(t *testing.T) {
	f := frame.Solid(4, 100, 100, 100, 255)
	// Make one pixel transparent.
	f.Pix[3] = 0

	res, err := Quantize(context.Background(), []frame.Frame{f}, Options{
		PaletteSize:       8,
		ReserveBackground: true,
	})
	require.NoError(t, err)

	assert.Equal(t, uint8(0), res.Frames[0].Index[0])
	for _, idx := range res.Frames[0].Index[1:] {
		assert.NotEqual(t, uint8(0), idx)
	}
}

func TestQuantizeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames := solidSeq(8, [3]byte{1, 1, 1}, [3]byte{2, 2, 2})
	_, err := Quantize(ctx, frames, Options{PaletteSize: 8})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuantizeSharedIsDeterministic(t *testing.T) {
	frames := []frame.Frame{gradientFrame(16), gradientFrame(16)}
	opts := Options{PaletteSize: 16, Dither: DitherErrorDiffusion}

	a, err := Quantize(context.Background(), frames, opts)
	require.NoError(t, err)
	b, err := Quantize(context.Background(), frames, opts)
	require.NoError(t, err)

	assert.Equal(t, a.Palette, b.Palette)
	for i := range a.Frames {
		assert.Equal(t, a.Frames[i].Index, b.Frames[i].Index)
	}
}

func TestMaterializeRoundTripsExactPalette(t *testing.T) {
	frames := solidSeq(2, [3]byte{255, 0, 0}, [3]byte{0, 0, 255})
	res, err := Quantize(context.Background(), frames, Options{PaletteSize: 4})
	require.NoError(t, err)

	for i := range frames {
		got := res.Materialize(i)
		assert.Equal(t, frames[i].Pix, got.Pix, "frame %d", i)
	}
}

func TestMapperSkipsReservedIndex(t *testing.T) {
	pal := Palette{{R: 0, G: 0, B: 0}, {R: 10, G: 10, B: 10}, {R: 200, G: 200, B: 200}}
	m := newMapper(pal, pal.labTable(), true)

	// Pure black is closest to the reserved entry, but the search must
	// start at index 1.
	assert.Equal(t, uint8(1), m.nearest(0, 0, 0))
}

func TestBlueNoiseMatrixProperties(t *testing.T) {
	// Threshold values stay in [0, 1) and the per-frame rotation changes
	// the pattern.
	same := 0
	for y := 0; y < blueNoiseSize; y++ {
		for x := 0; x < blueNoiseSize; x++ {
			v := blueNoiseAt(x, y, 0)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			if v == blueNoiseAt(x, y, 1) {
				same++
			}
		}
	}
	assert.Less(t, same, blueNoiseSize*blueNoiseSize/2, "frame rotation should move most thresholds")
}
