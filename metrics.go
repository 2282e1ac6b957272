package rpctriangulate

import (
	"math"
)

// ReprojectionStats summarizes how well initialized points reproject onto
// their observations.
type ReprojectionStats struct {
	Mean float64
	Max  float64
	N    int
}

// ReprojectionError projects every resolved track back into every camera
// that observes it and measures the pixel distance to the recorded
// observation. A large mean here means the initialization is a poor seed for
// the bundle adjustment.
func ReprojectionError(c *TrackMatrix, cameras []Camera, estimates []TrackEstimate) ReprojectionStats {
	var stats ReprojectionStats
	for t, est := range estimates {
		if !est.Resolved() {
			continue
		}
		for ci, cam := range cameras {
			obs, ok := c.Observation(ci, t)
			if !ok {
				continue
			}
			proj := cam.Project(est.Point)
			err := math.Hypot(proj.X-obs.X, proj.Y-obs.Y)
			stats.Mean += err
			stats.Max = math.Max(stats.Max, err)
			stats.N++
		}
	}
	if stats.N > 0 {
		stats.Mean /= float64(stats.N)
	}
	return stats
}
