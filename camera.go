package rpctriangulate

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// CameraModel selects which triangulation variant a camera list uses.
type CameraModel string

const (
	ModelAffine      CameraModel = "affine"
	ModelPerspective CameraModel = "perspective"
	ModelRPC         CameraModel = "rpc"
)

func (m CameraModel) Validate() error {
	switch m {
	case ModelAffine, ModelPerspective, ModelRPC:
		return nil
	}
	return fmt.Errorf("unknown camera model %q", string(m))
}

// Camera is one observing sensor. The concrete type is either a
// ProjectiveCamera (affine or perspective 3x4 matrix) or an RPCCamera; the
// camera list passed to the aggregator is indexed identically to the camera
// row pairs of the TrackMatrix.
type Camera interface {
	// Project maps an earth-centered Cartesian point to (col, row) pixel
	// coordinates.
	Project(pt r3.Vector) r2.Point
}

// ProjectiveCamera wraps a 3x4 affine or perspective projection matrix.
type ProjectiveCamera struct {
	P *mat.Dense
}

func NewProjectiveCamera(p *mat.Dense) (*ProjectiveCamera, error) {
	r, c := p.Dims()
	if r != 3 || c != 4 {
		return nil, fmt.Errorf("projection matrix must be 3x4, got %dx%d", r, c)
	}
	return &ProjectiveCamera{P: p}, nil
}

func (c *ProjectiveCamera) Project(pt r3.Vector) r2.Point {
	h := [3]float64{}
	for r := 0; r < 3; r++ {
		row := c.P.RawRowView(r)
		h[r] = row[0]*pt.X + row[1]*pt.Y + row[2]*pt.Z + row[3]
	}
	return r2.Point{X: h[0] / h[2], Y: h[1] / h[2]}
}

// projectionMatrices asserts that every camera is projective and collects the
// underlying matrices. Dispatch happens once per aggregation call, never
// inside the per-point loops.
func projectionMatrices(cameras []Camera) ([]*mat.Dense, error) {
	ps := make([]*mat.Dense, len(cameras))
	for i, cam := range cameras {
		pc, ok := cam.(*ProjectiveCamera)
		if !ok {
			return nil, fmt.Errorf("camera %d is %T, want *ProjectiveCamera", i, cam)
		}
		ps[i] = pc.P
	}
	return ps, nil
}

func rpcCameras(cameras []Camera) ([]*RPCCamera, error) {
	rpcs := make([]*RPCCamera, len(cameras))
	for i, cam := range cameras {
		rc, ok := cam.(*RPCCamera)
		if !ok {
			return nil, fmt.Errorf("camera %d is %T, want *RPCCamera", i, cam)
		}
		rpcs[i] = rc
	}
	return rpcs, nil
}
