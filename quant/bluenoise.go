package quant

// blueNoiseSize is the edge length of the threshold matrix.
const blueNoiseSize = 64

// blueNoise is a deterministic 64x64 threshold matrix in [0, 1]. The
// generator mixes two coprime linear ramps with an xor term, which
// spreads thresholds evenly without the diagonal banding a plain Bayer
// matrix shows at this size.
var blueNoise = generateBlueNoise()

func generateBlueNoise() [blueNoiseSize][blueNoiseSize]float64 {
	var m [blueNoiseSize][blueNoiseSize]float64
	for i := 0; i < blueNoiseSize; i++ {
		for j := 0; j < blueNoiseSize; j++ {
			v := ((i*67 + j*71) ^ ((i * 13) ^ (j * 17))) % 256
			m[i][j] = float64(v) / 255.0
		}
	}
	return m
}

// blueNoiseAt returns the threshold for pixel (x, y) of the given frame.
// The matrix is rotated by per-frame prime offsets so the pattern never
// sits still across the animation, which is what causes visible "pulsing"
// with a static threshold.
func blueNoiseAt(x, y, frameIndex int) float64 {
	ox := (frameIndex * 7) % blueNoiseSize
	oy := (frameIndex * 11) % blueNoiseSize
	return blueNoise[(y+oy)%blueNoiseSize][(x+ox)%blueNoiseSize]
}
