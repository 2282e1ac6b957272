package rpctriangulate

import (
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/rdk/logging"
)

// CameraPair references two cameras considered geometrically suitable for
// triangulation by an upstream selection step. Pair lists from extended
// multi-temporal contexts may reference cameras beyond the current set; such
// pairs are skipped, not treated as errors.
type CameraPair struct {
	I int `json:"i"`
	J int `json:"j"`
}

// TrackEstimate is the initialized 3D position of one feature track. Support
// counts how many pairwise triangulations (or, on the multiview path, how
// many observing cameras) contributed; zero means the track was never
// triangulated and Point is the zero vector.
type TrackEstimate struct {
	Point   r3.Vector
	Support int
}

func (e TrackEstimate) Resolved() bool { return e.Support > 0 }

// Points flattens estimates into bare coordinates, keeping the zero vector
// for unresolved tracks.
func Points(estimates []TrackEstimate) []r3.Vector {
	pts := make([]r3.Vector, len(estimates))
	for i, e := range estimates {
		pts[i] = e.Point
	}
	return pts
}

// progress cadence for long aggregations
const progressInterval = 10 * time.Second

// pairFunc triangulates one batch of pairwise correspondences between
// cameras i and j.
type pairFunc func(i, j int, obsI, obsJ []r2.Point) ([]r3.Vector, error)

// InitPoints initializes the 3D point of every feature track by averaging
// all pairwise triangulations available for it. For each suitable camera pair
// the tracks observed by both cameras are triangulated in a batch and folded
// into a per-track running arithmetic mean, so the result is independent of
// pair order up to floating-point summation.
//
// model selects the triangulation variant and must match the concrete camera
// types; cameras is indexed like the camera rows of c. The logger only
// carries progress reporting and may be nil.
func InitPoints(c *TrackMatrix, cameras []Camera, model CameraModel, pairs []CameraPair, logger logging.Logger) ([]TrackEstimate, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if len(cameras) != c.NumCameras() {
		return nil, fmt.Errorf("got %d cameras for a %d-camera track matrix", len(cameras), c.NumCameras())
	}

	// resolve the model variant once, outside the pair loop
	var triangulate pairFunc
	switch model {
	case ModelAffine, ModelPerspective:
		ps, err := projectionMatrices(cameras)
		if err != nil {
			return nil, err
		}
		triangulate = func(i, j int, obsI, obsJ []r2.Point) ([]r3.Vector, error) {
			return TriangulatePairLinear(ps[i], ps[j], obsI, obsJ)
		}
	case ModelRPC:
		rpcs, err := rpcCameras(cameras)
		if err != nil {
			return nil, err
		}
		triangulate = func(i, j int, obsI, obsJ []r2.Point) ([]r3.Vector, error) {
			pts, _, err := TriangulatePairRPC(rpcs[i], rpcs[j], obsI, obsJ)
			return pts, err
		}
	}

	nCam := c.NumCameras()
	nTracks := c.NumTracks()
	estimates := make([]TrackEstimate, nTracks)
	mask := c.ObservationMask()

	if logger != nil {
		logger.Debugf("computing %d 3d points from feature tracks...", nTracks)
	}
	start := time.Now()
	lastReport := start

	for pairIdx, pair := range pairs {
		if pair.I < 0 || pair.J < 0 || pair.I >= nCam || pair.J >= nCam {
			continue
		}
		idx, obsI, obsJ := c.PairObservations(pair.I, pair.J, mask)
		if len(idx) == 0 {
			continue
		}
		newPts, err := triangulate(pair.I, pair.J, obsI, obsJ)
		if err != nil {
			return nil, err
		}
		for k, t := range idx {
			est := &estimates[t]
			est.Support++
			n := float64(est.Support)
			est.Point = est.Point.Mul(n - 1).Add(newPts[k]).Mul(1 / n)
		}

		if logger != nil && (time.Since(lastReport) > progressInterval || pairIdx == len(pairs)-1) {
			logger.Debugf("...%d/%d triangulation pairs done in %.2f seconds",
				pairIdx+1, len(pairs), time.Since(start).Seconds())
			lastReport = time.Now()
		}
	}
	return estimates, nil
}
