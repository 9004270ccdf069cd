package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelkit/voxelgif/frame"
)

func TestAccumulatorCountsUniqueColors(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Add(frame.Solid(2, 255, 0, 0, 255)))
	require.NoError(t, acc.Add(frame.Solid(2, 0, 255, 0, 255)))
	require.NoError(t, acc.Add(frame.Solid(2, 255, 0, 0, 255)))

	assert.Equal(t, 2, acc.UniqueColors())
}

func TestAccumulatorIgnoresAlpha(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Add(frame.Solid(1, 10, 20, 30, 255)))
	require.NoError(t, acc.Add(frame.Solid(1, 10, 20, 30, 0)))

	assert.Equal(t, 1, acc.UniqueColors())
}

func TestBuildPaletteExactWhenFewColors(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Add(frame.Solid(2, 255, 0, 0, 255)))
	require.NoError(t, acc.Add(frame.Solid(2, 0, 0, 255, 255)))

	pal, err := acc.BuildPalette(16, MethodMedianCut)
	require.NoError(t, err)
	assert.Len(t, pal, 2)
	assert.Contains(t, pal, Color{R: 255})
	assert.Contains(t, pal, Color{B: 255})
}

func TestBuildPaletteSingleColor(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Add(frame.Solid(4, 7, 7, 7, 255)))

	pal, err := acc.BuildPalette(256, MethodMedianCut)
	require.NoError(t, err)
	assert.Equal(t, Palette{{R: 7, G: 7, B: 7}}, pal)
}

func TestBuildPaletteConsumesAccumulator(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Add(frame.Solid(1, 1, 2, 3, 255)))

	_, err := acc.BuildPalette(8, MethodMedianCut)
	require.NoError(t, err)

	assert.ErrorIs(t, acc.Add(frame.Solid(1, 0, 0, 0, 255)), ErrAccumulatorConsumed)
	_, err = acc.BuildPalette(8, MethodMedianCut)
	assert.ErrorIs(t, err, ErrAccumulatorConsumed)
}

func TestBuildPaletteValidatesSize(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Add(frame.Solid(1, 1, 2, 3, 255)))

	_, err := acc.BuildPalette(0, MethodMedianCut)
	assert.ErrorIs(t, err, ErrBadPaletteSize)
	_, err = acc.BuildPalette(257, MethodMedianCut)
	assert.ErrorIs(t, err, ErrBadPaletteSize)
}

func TestBuildPaletteEmptyHistogram(t *testing.T) {
	_, err := NewAccumulator().BuildPalette(8, MethodMedianCut)
	assert.ErrorIs(t, err, ErrNoFrames)
}

// gradientFrame spans many distinct colors so the builder actually has
// to reduce.
func gradientFrame(side int) frame.Frame {
	f := frame.Solid(side, 0, 0, 0, 255)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			i := (y*side + x) * frame.Channels
			f.Pix[i] = byte(x * 255 / (side - 1))
			f.Pix[i+1] = byte(y * 255 / (side - 1))
			f.Pix[i+2] = byte((x + y) * 255 / (2 * (side - 1)))
		}
	}
	return f
}

func TestMedianCutRespectsBudget(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Add(gradientFrame(32)))
	require.Greater(t, acc.UniqueColors(), 16)

	pal, err := acc.BuildPalette(16, MethodMedianCut)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(pal), 16)
	assert.NotEmpty(t, pal)

	// Entries are distinct.
	seen := make(map[Color]bool)
	for _, c := range pal {
		assert.False(t, seen[c], "duplicate palette entry %v", c)
		seen[c] = true
	}
}

func TestMedianCutIsDeterministic(t *testing.T) {
	build := func() Palette {
		acc := NewAccumulator()
		require.NoError(t, acc.Add(gradientFrame(32)))
		pal, err := acc.BuildPalette(16, MethodMedianCut)
		require.NoError(t, err)
		return pal
	}
	assert.Equal(t, build(), build())
}

func TestKMeansRespectsBudget(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Add(gradientFrame(32)))

	pal, err := acc.BuildPalette(8, MethodKMeans)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(pal), 8)
	assert.NotEmpty(t, pal)
}
