package quant

import (
	"sort"

	"github.com/voxelkit/voxelgif/frame"
)

// Accumulator collects a color histogram during the accumulation phase.
// It is single-writer: Add calls must not be concurrent. Consuming it
// with BuildPalette freezes it permanently, after which the derived
// palette is immutable and safe for concurrent mapping workers.
type Accumulator struct {
	counts   map[uint32]uint32
	pixels   uint64
	consumed bool
}

// NewAccumulator returns an empty histogram accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{counts: make(map[uint32]uint32)}
}

// Add folds one frame into the histogram. Alpha is ignored; GIF palettes
// carry 24-bit color only.
func (a *Accumulator) Add(f frame.Frame) error {
	if a.consumed {
		return ErrAccumulatorConsumed
	}
	pix := f.Pix
	for i := 0; i < len(pix); i += frame.Channels {
		a.counts[packRGB(pix[i], pix[i+1], pix[i+2])]++
	}
	a.pixels += uint64(len(pix) / frame.Channels)
	return nil
}

// UniqueColors reports the number of distinct colors seen so far.
func (a *Accumulator) UniqueColors() int {
	return len(a.counts)
}

// entry is one weighted histogram bucket in Lab space.
type entry struct {
	lab   [3]float64
	color Color
	count uint32
}

// entries returns the histogram sorted by packed RGB key so palette
// construction is deterministic regardless of map iteration order.
func (a *Accumulator) entries() []entry {
	keys := make([]uint32, 0, len(a.counts))
	for k := range a.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]entry, len(keys))
	for i, k := range keys {
		c := unpackRGB(k)
		l, la, lb := c.Lab()
		out[i] = entry{lab: [3]float64{l, la, lb}, color: c, count: a.counts[k]}
	}
	return out
}

// BuildPalette consumes the accumulator and produces a palette of at most
// size entries using the given method. When the histogram holds fewer
// unique colors than size, the palette is exactly those colors, not
// padded. Further Add calls fail with ErrAccumulatorConsumed.
func (a *Accumulator) BuildPalette(size int, method Method) (Palette, error) {
	if size < 1 || size > MaxPaletteSize {
		return nil, ErrBadPaletteSize
	}
	if a.consumed {
		return nil, ErrAccumulatorConsumed
	}
	a.consumed = true

	if len(a.counts) == 0 {
		return nil, ErrNoFrames
	}

	ents := a.entries()
	if len(ents) <= size {
		pal := make(Palette, len(ents))
		for i, e := range ents {
			pal[i] = e.color
		}
		return pal, nil
	}

	if method == MethodKMeans {
		return kmeansPalette(ents, size)
	}
	return medianCutPalette(ents, size), nil
}
