package rpctriangulate

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// TriangulatePairLinear triangulates a batch of pairwise correspondences
// using 3x4 projection matrices. For each correspondence the homogeneous ray
// equations of both cameras are stacked into a 4x4 system solved by SVD; the
// right singular vector of the smallest singular value, normalized by its
// last coordinate, is the 3D point. Degenerate geometry is not rejected here:
// the null-space solution is returned as-is and the caller's averaging
// dilutes bad estimates.
func TriangulatePairLinear(p1, p2 *mat.Dense, pts1, pts2 []r2.Point) ([]r3.Vector, error) {
	if len(pts1) != len(pts2) {
		return nil, fmt.Errorf("correspondence count mismatch: %d vs %d", len(pts1), len(pts2))
	}
	out := make([]r3.Vector, len(pts1))
	a := mat.NewDense(4, 4, nil)
	for i := range pts1 {
		setDLTRows(a, 0, p1, pts1[i])
		setDLTRows(a, 2, p2, pts2[i])
		pt, err := smallestSingularPoint(a)
		if err != nil {
			return nil, err
		}
		out[i] = pt
	}
	return out, nil
}

// setDLTRows writes the two ray equations x*P[2]-P[0] and y*P[2]-P[1] of one
// camera into rows r and r+1 of the coefficient matrix.
func setDLTRows(a *mat.Dense, r int, p *mat.Dense, pt r2.Point) {
	p0 := p.RawRowView(0)
	p1 := p.RawRowView(1)
	p2 := p.RawRowView(2)
	for k := 0; k < 4; k++ {
		a.Set(r, k, pt.X*p2[k]-p0[k])
		a.Set(r+1, k, pt.Y*p2[k]-p1[k])
	}
}

// smallestSingularPoint solves A*X = 0 for the homogeneous point X and
// dehomogenizes it.
func smallestSingularPoint(a *mat.Dense) (r3.Vector, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return r3.Vector{}, errors.New("svd factorization failed")
	}
	var v mat.Dense
	svd.VTo(&v)
	_, cols := v.Dims()
	last := cols - 1
	w := v.At(3, last)
	return r3.Vector{
		X: v.At(0, last) / w,
		Y: v.At(1, last) / w,
		Z: v.At(2, last) / w,
	}, nil
}

// TriangulatePairRPC triangulates pairwise correspondences between two RPC
// cameras. The stereo routine yields geodetic coordinates and a per-point
// error metric; points are returned in earth-centered Cartesian coordinates.
func TriangulatePairRPC(a, b *RPCCamera, pts1, pts2 []r2.Point) ([]r3.Vector, []float64, error) {
	lonlatalt, errVals, err := a.StereoTriangulate(b, pts1, pts2)
	if err != nil {
		return nil, nil, err
	}
	lat := make([]float64, len(lonlatalt))
	lon := make([]float64, len(lonlatalt))
	alt := make([]float64, len(lonlatalt))
	for i, g := range lonlatalt {
		lon[i], lat[i], alt[i] = g[0], g[1], g[2]
	}
	x, y, z := GeodeticToECEF(lat, lon, alt)
	out := make([]r3.Vector, len(lonlatalt))
	for i := range out {
		out[i] = r3.Vector{X: x[i], Y: y[i], Z: z[i]}
	}
	return out, errVals, nil
}
