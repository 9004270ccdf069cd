package quant

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/voxelkit/voxelgif/frame"
)

// transparentAlphaThreshold decides which pixels fall through to the
// reserved background index when one is configured.
const transparentAlphaThreshold = 128

// temporalDecay is the fraction of a frame's residual dither error
// carried into the next frame. Full carry-over accumulates into visible
// smearing; no carry-over makes the pattern pulse per frame.
const temporalDecay = 0.7

// mapper resolves pixels to palette indices by squared Lab distance.
// start skips the reserved background entry during nearest search. The
// cache is not synchronized: use one mapper per goroutine.
type mapper struct {
	pal   Palette
	lab   [][3]float64
	start int
	cache map[uint32]uint8
}

func newMapper(pal Palette, lab [][3]float64, reservedBackground bool) *mapper {
	start := 0
	if reservedBackground && len(pal) > 1 {
		start = 1
	}
	return &mapper{pal: pal, lab: lab, start: start, cache: make(map[uint32]uint8)}
}

func pixelLab(r, g, b uint8) [3]float64 {
	l, a, bb := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}.Lab()
	return [3]float64{l, a, bb}
}

// nearestLab returns the closest searchable palette index to the given
// Lab point and that entry's Lab coordinates.
func (m *mapper) nearestLab(p [3]float64) (uint8, [3]float64) {
	best := m.start
	bestD := 0.0
	for i := m.start; i < len(m.lab); i++ {
		dl := p[0] - m.lab[i][0]
		da := p[1] - m.lab[i][1]
		db := p[2] - m.lab[i][2]
		d := dl*dl + da*da + db*db
		if i == m.start || d < bestD {
			bestD = d
			best = i
		}
	}
	return uint8(best), m.lab[best]
}

// nearest resolves an RGB triple through the per-mapper cache.
func (m *mapper) nearest(r, g, b uint8) uint8 {
	key := packRGB(r, g, b)
	if idx, ok := m.cache[key]; ok {
		return idx
	}
	idx, _ := m.nearestLab(pixelLab(r, g, b))
	m.cache[key] = idx
	return idx
}

// mapPlain maps a frame without dithering.
func mapPlain(f frame.Frame, m *mapper) []byte {
	out := make([]byte, f.Side*f.Side)
	pix := f.Pix
	for i, o := 0, 0; i < len(pix); i, o = i+frame.Channels, o+1 {
		if m.start > 0 && pix[i+3] < transparentAlphaThreshold {
			out[o] = 0
			continue
		}
		out[o] = m.nearest(pix[i], pix[i+1], pix[i+2])
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// mapBlueNoise perturbs each pixel with the rotated threshold matrix
// before the nearest-entry lookup. strength 0 degenerates to mapPlain.
func mapBlueNoise(f frame.Frame, m *mapper, frameIndex int, strength float64) []byte {
	out := make([]byte, f.Side*f.Side)
	pix := f.Pix
	for y := 0; y < f.Side; y++ {
		for x := 0; x < f.Side; x++ {
			i := (y*f.Side + x) * frame.Channels
			o := y*f.Side + x
			if m.start > 0 && pix[i+3] < transparentAlphaThreshold {
				out[o] = 0
				continue
			}
			n := (blueNoiseAt(x, y, frameIndex) - 0.5) * strength * 255.0
			out[o] = m.nearest(
				clampByte(float64(pix[i])+n),
				clampByte(float64(pix[i+1])+n),
				clampByte(float64(pix[i+2])+n),
			)
		}
	}
	return out
}

// mapDiffusion maps a frame with Sierra error diffusion in Lab space.
// carry is the decayed residual of the previous frame (nil for the
// first); the returned residual feeds the next frame. Half of the
// accumulated error is applied per pixel, which keeps hard edges from
// ringing while still smoothing gradients.
func mapDiffusion(f frame.Frame, m *mapper, carry []float64) (indices []byte, residual []float64) {
	side := f.Side
	out := make([]byte, side*side)
	errs := make([]float64, side*side*3)
	if carry != nil && len(carry) == len(errs) {
		for i, e := range carry {
			errs[i] = e * temporalDecay
		}
	}

	pix := f.Pix
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			o := y*side + x
			i := o * frame.Channels
			if m.start > 0 && pix[i+3] < transparentAlphaThreshold {
				out[o] = 0
				continue
			}
			p := pixelLab(pix[i], pix[i+1], pix[i+2])
			e := o * 3
			corrected := [3]float64{
				p[0] + errs[e]*0.5,
				p[1] + errs[e+1]*0.5,
				p[2] + errs[e+2]*0.5,
			}
			idx, nearest := m.nearestLab(corrected)
			out[o] = idx

			// Sierra two-row kernel (/32). Fewer target pixels than
			// Floyd-Steinberg, which reduces crawling in animations.
			dl := p[0] - nearest[0]
			da := p[1] - nearest[1]
			db := p[2] - nearest[2]
			spread := func(tx, ty int, w float64) {
				if tx < 0 || tx >= side || ty >= side {
					return
				}
				t := (ty*side + tx) * 3
				errs[t] += dl * w
				errs[t+1] += da * w
				errs[t+2] += db * w
			}
			spread(x+1, y, 5.0/32.0)
			spread(x+2, y, 3.0/32.0)
			spread(x-2, y+1, 2.0/32.0)
			spread(x-1, y+1, 4.0/32.0)
			spread(x, y+1, 5.0/32.0)
		}
	}
	return out, errs
}
