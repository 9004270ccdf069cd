package quant

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// colorBox is one region of Lab space holding a weighted slice of
// histogram entries. Boxes are split at the weighted median of their
// highest-variance axis until the palette budget is reached.
type colorBox struct {
	entries []entry
	weight  float64
	// score caches the split priority: weighted axis variances with
	// lightness double-weighted, since the eye is most sensitive to it.
	score float64
}

func newColorBox(ents []entry) colorBox {
	b := colorBox{entries: ents}
	n := len(ents)
	if n == 0 {
		return b
	}
	axes := make([][]float64, 3)
	weights := make([]float64, n)
	for ax := 0; ax < 3; ax++ {
		axes[ax] = make([]float64, n)
	}
	for i, e := range ents {
		w := float64(e.count)
		weights[i] = w
		b.weight += w
		axes[0][i] = e.lab[0]
		axes[1][i] = e.lab[1]
		axes[2][i] = e.lab[2]
	}
	if n > 1 {
		b.score = 2.0*stat.Variance(axes[0], weights) +
			stat.Variance(axes[1], weights) +
			stat.Variance(axes[2], weights)
	}
	return b
}

func (b colorBox) canSplit() bool {
	return len(b.entries) > 1
}

// splitAxis picks the Lab axis with the largest weighted variance, with
// lightness double-weighted to match the split priority.
func (b colorBox) splitAxis() int {
	n := len(b.entries)
	weights := make([]float64, n)
	vals := make([]float64, n)
	best, bestVar := 0, -1.0
	for ax := 0; ax < 3; ax++ {
		for i, e := range b.entries {
			weights[i] = float64(e.count)
			vals[i] = e.lab[ax]
		}
		v := stat.Variance(vals, weights)
		if ax == 0 {
			v *= 2.0
		}
		if v > bestVar {
			bestVar = v
			best = ax
		}
	}
	return best
}

// split divides the box at the weighted median of its split axis.
func (b colorBox) split() (colorBox, colorBox) {
	ax := b.splitAxis()
	ents := b.entries
	sort.SliceStable(ents, func(i, j int) bool { return ents[i].lab[ax] < ents[j].lab[ax] })

	half := b.weight / 2
	var acc float64
	cut := 1
	for i, e := range ents {
		acc += float64(e.count)
		if acc >= half {
			cut = i + 1
			break
		}
	}
	if cut >= len(ents) {
		cut = len(ents) - 1
	}
	return newColorBox(ents[:cut]), newColorBox(ents[cut:])
}

// average returns the weighted mean color of the box, converted back from
// Lab to sRGB.
func (b colorBox) average() Color {
	var sl, sa, sb float64
	for _, e := range b.entries {
		w := float64(e.count)
		sl += e.lab[0] * w
		sa += e.lab[1] * w
		sb += e.lab[2] * w
	}
	c := colorful.Lab(sl/b.weight, sa/b.weight, sb/b.weight).Clamped()
	r, g, bl := c.RGB255()
	return Color{R: r, G: g, B: bl}
}

// medianCutPalette reduces the histogram to at most size representative
// colors. Callers guarantee len(ents) > size.
func medianCutPalette(ents []entry, size int) Palette {
	boxes := []colorBox{newColorBox(ents)}
	for len(boxes) < size {
		best, bestScore := -1, 0.0
		for i, b := range boxes {
			if b.canSplit() && b.score > bestScore {
				best, bestScore = i, b.score
			}
		}
		if best < 0 {
			break
		}
		b := boxes[best]
		boxes = append(boxes[:best], boxes[best+1:]...)
		b1, b2 := b.split()
		boxes = append(boxes, b1, b2)
	}

	pal := make(Palette, 0, len(boxes))
	seen := make(map[uint32]bool, len(boxes))
	for _, b := range boxes {
		c := b.average()
		key := packRGB(c.R, c.G, c.B)
		if seen[key] {
			continue
		}
		seen[key] = true
		pal = append(pal, c)
	}
	return pal
}
