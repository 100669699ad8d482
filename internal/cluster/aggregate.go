package cluster

import "github.com/quakemap/internal/domain"

// quakeStats is the per-cluster running average kept by the index.
// samples counts merges, not members: a merged sub-cluster adds one sample.
type quakeStats struct {
	samples  int
	avgMag   float64
	avgDepth float64
}

func newQuakeStats(q domain.Earthquake) quakeStats {
	return quakeStats{samples: 1, avgMag: q.Magnitude, avgDepth: q.Depth}
}

// add folds one sample in with avg' = (avg*c + v) / (c + 1).
func (s *quakeStats) add(mag, depth float64) {
	c := float64(s.samples)
	s.avgMag = (s.avgMag*c + mag) / (c + 1)
	s.avgDepth = (s.avgDepth*c + depth) / (c + 1)
	s.samples++
}

func reduceStats(acc *quakeStats, child quakeStats) {
	if child.samples == 0 {
		return
	}
	acc.add(child.avgMag, child.avgDepth)
}

// sampleMean averages the leaves of a cluster whose index carries no Reduce, where
// cluster props stay zero. buildIndex always sets one, so the engine path is the
// running mean.
func sampleMean(points []domain.Earthquake) (mag, depth float64) {
	if len(points) == 0 {
		return 0, 0
	}
	for _, p := range points {
		mag += p.Magnitude
		depth += p.Depth
	}
	n := float64(len(points))
	return mag / n, depth / n
}
