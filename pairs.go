package rpctriangulate

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	geo "github.com/kellydunn/golang-geo"
)

// PairOptions controls which camera pairs are considered suitable for
// triangulation.
type PairOptions struct {
	// MaxCenterDistanceKm rejects pairs whose footprint centers are too far
	// apart to share ground coverage.
	MaxCenterDistanceKm float64 `json:"max_center_distance_km"`

	// MinAngleDeg and MaxAngleDeg bound the convergence angle between the
	// two view rays: too small gives an unstable baseline, too large means
	// the acquisitions look too different to match reliably.
	MinAngleDeg float64 `json:"min_angle_deg"`
	MaxAngleDeg float64 `json:"max_angle_deg"`
}

func (o PairOptions) withDefaults() PairOptions {
	if o.MaxCenterDistanceKm <= 0 {
		o.MaxCenterDistanceKm = 50
	}
	if o.MinAngleDeg <= 0 {
		o.MinAngleDeg = 2
	}
	if o.MaxAngleDeg <= 0 {
		o.MaxAngleDeg = 45
	}
	return o
}

// SuitablePairs selects the camera pairs worth triangulating from a set of
// RPC cameras: footprint centers close enough for overlap, convergence angle
// of the central view rays inside the configured window. Pairs are emitted
// in (i, j) index order with i < j.
func SuitablePairs(cameras []*RPCCamera, opts PairOptions) ([]CameraPair, error) {
	opts = opts.withDefaults()

	centers := make([]*geo.Point, len(cameras))
	dirs := make([]r3.Vector, len(cameras))
	for i, cam := range cameras {
		centers[i] = geo.NewPoint(cam.LatOff, cam.LonOff)
		_, d, err := cam.viewRay(r2.Point{X: cam.ColOff, Y: cam.RowOff})
		if err != nil {
			return nil, err
		}
		dirs[i] = d
	}

	var pairs []CameraPair
	for i := range cameras {
		for j := i + 1; j < len(cameras); j++ {
			if centers[i].GreatCircleDistance(centers[j]) > opts.MaxCenterDistanceKm {
				continue
			}
			dot := dirs[i].Dot(dirs[j])
			angle := math.Acos(math.Max(-1, math.Min(1, dot))) * 180 / math.Pi
			if angle < opts.MinAngleDeg || angle > opts.MaxAngleDeg {
				continue
			}
			pairs = append(pairs, CameraPair{I: i, J: j})
		}
	}
	return pairs, nil
}
