package quant

import (
	"github.com/cenkalti/dominantcolor"

	"github.com/voxelkit/voxelgif/frame"
)

// dominantBackground picks the reserved index-0 color as the dominant
// color of the reference frame.
func dominantBackground(f frame.Frame) Color {
	c := dominantcolor.Find(f.RGBA())
	return Color{R: c.R, G: c.G, B: c.B}
}

// withReservedBackground prepends bg as the reserved index-0 entry and
// trims to the budget. The reserved entry is transparent-only and never
// selected for opaque pixels, so it is kept even when bg duplicates a
// content color; merging the two would collapse a single-color input to
// a one-entry palette with nowhere for opaque pixels to go.
func withReservedBackground(pal Palette, bg Color, size int) Palette {
	out := make(Palette, 0, len(pal)+1)
	out = append(out, bg)
	out = append(out, pal...)
	if len(out) > size {
		out = out[:size]
	}
	return out
}
