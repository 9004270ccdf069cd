package quant

import (
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// kmeansMaxSamples bounds the observation count fed to the clusterer so
// the fallback stays tractable on 256-frame runs.
const kmeansMaxSamples = 12000

// kmeansPalette clusters the weighted histogram with k-means and uses the
// cluster centers as palette entries. Entries are replicated in
// proportion to their pixel weight, capped at kmeansMaxSamples, so
// dominant colors pull centers toward themselves the same way repeated
// pixels would. Callers guarantee len(ents) > size.
func kmeansPalette(ents []entry, size int) (Palette, error) {
	var total float64
	for _, e := range ents {
		total += float64(e.count)
	}

	dataset := make(clusters.Observations, 0, kmeansMaxSamples+len(ents))
	for _, e := range ents {
		reps := int(float64(e.count) / total * kmeansMaxSamples)
		if reps < 1 {
			reps = 1
		}
		for r := 0; r < reps; r++ {
			dataset = append(dataset, clusters.Coordinates{e.lab[0], e.lab[1], e.lab[2]})
		}
	}

	k := size
	if k > len(dataset) {
		k = len(dataset)
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil {
		return nil, fmt.Errorf("quant: kmeans partition failed: %w", err)
	}
	if len(cc) == 0 {
		return nil, fmt.Errorf("quant: kmeans produced no clusters")
	}

	// Largest cluster first keeps dominant tones at low indices.
	sort.SliceStable(cc, func(i, j int) bool {
		return len(cc[i].Observations) > len(cc[j].Observations)
	})

	pal := make(Palette, 0, len(cc))
	seen := make(map[uint32]bool, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		col := colorful.Lab(c.Center[0], c.Center[1], c.Center[2]).Clamped()
		r, g, b := col.RGB255()
		key := packRGB(r, g, b)
		if seen[key] {
			continue
		}
		seen[key] = true
		pal = append(pal, Color{R: r, G: g, B: b})
	}
	if len(pal) == 0 {
		return nil, fmt.Errorf("quant: kmeans produced an empty palette")
	}
	return pal, nil
}
