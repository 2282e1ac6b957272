package rpctriangulate

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/logging"
	"gonum.org/v1/gonum/mat"
)

// TriangulateTrackMultiview triangulates one track from all of its
// observations at once. obs is the interleaved (col, row) pixel sequence of
// length 2M for the M observing cameras, ps the matching projection matrices.
// Each camera contributes two rows to a 2Mx4 system solved the same way as
// the pairwise case.
func TriangulateTrackMultiview(obs []float64, ps []*mat.Dense) (r3.Vector, error) {
	m := len(ps)
	if m < 2 {
		return r3.Vector{}, fmt.Errorf("need at least 2 observing cameras, got %d", m)
	}
	if len(obs) != 2*m {
		return r3.Vector{}, fmt.Errorf("got %d observation values for %d cameras, want %d", len(obs), m, 2*m)
	}
	a := mat.NewDense(2*m, 4, nil)
	for i, p := range ps {
		p0 := p.RawRowView(0)
		p1 := p.RawRowView(1)
		p2 := p.RawRowView(2)
		x, y := obs[2*i], obs[2*i+1]
		for k := 0; k < 4; k++ {
			a.Set(2*i, k, x*p2[k]-p0[k])
			a.Set(2*i+1, k, y*p2[k]-p1[k])
		}
	}
	return smallestSingularPoint(a)
}

// InitPointsMultiview initializes every track with a single multiview solve
// instead of averaging pairwise triangulations. Output shape and sentinel
// semantics match InitPoints so the two strategies are interchangeable.
// Projective cameras only.
func InitPointsMultiview(c *TrackMatrix, cameras []Camera, logger logging.Logger) ([]TrackEstimate, error) {
	if len(cameras) != c.NumCameras() {
		return nil, fmt.Errorf("got %d cameras for a %d-camera track matrix", len(cameras), c.NumCameras())
	}
	ps, err := projectionMatrices(cameras)
	if err != nil {
		return nil, err
	}

	nTracks := c.NumTracks()
	estimates := make([]TrackEstimate, nTracks)

	start := time.Now()
	lastReport := start
	for t := 0; t < nTracks; t++ {
		cams, obs := c.TrackObservations(t)
		if len(cams) < 2 {
			continue
		}
		trackPs := make([]*mat.Dense, len(cams))
		flat := make([]float64, 0, 2*len(cams))
		for k, ci := range cams {
			trackPs[k] = ps[ci]
			flat = append(flat, obs[k].X, obs[k].Y)
		}
		pt, err := TriangulateTrackMultiview(flat, trackPs)
		if err != nil {
			return nil, err
		}
		estimates[t] = TrackEstimate{Point: pt, Support: len(cams)}

		if logger != nil && time.Since(lastReport) > progressInterval {
			logger.Debugf("...%d/%d tracks triangulated in %.2f seconds", t+1, nTracks, time.Since(start).Seconds())
			lastReport = time.Now()
		}
	}
	if logger != nil {
		logger.Debugf("triangulated %d tracks in %.2f seconds", nTracks, time.Since(start).Seconds())
	}
	return estimates, nil
}
