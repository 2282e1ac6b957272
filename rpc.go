package rpctriangulate

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// RPCCamera is a Rational Polynomial Camera model: cubic rational polynomials
// over normalized geodetic coordinates mapping ground to image space. The
// coefficient ordering follows the RPC00B convention with arguments
// (lon, lat, alt) after normalization.
type RPCCamera struct {
	RowNum [20]float64 `json:"row_num"`
	RowDen [20]float64 `json:"row_den"`
	ColNum [20]float64 `json:"col_num"`
	ColDen [20]float64 `json:"col_den"`

	LatOff   float64 `json:"lat_offset"`
	LatScale float64 `json:"lat_scale"`
	LonOff   float64 `json:"lon_offset"`
	LonScale float64 `json:"lon_scale"`
	AltOff   float64 `json:"alt_offset"`
	AltScale float64 `json:"alt_scale"`
	RowOff   float64 `json:"row_offset"`
	RowScale float64 `json:"row_scale"`
	ColOff   float64 `json:"col_offset"`
	ColScale float64 `json:"col_scale"`
}

// LoadRPCCamera reads an RPC coefficient set from a JSON file.
func LoadRPCCamera(path string) (*RPCCamera, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c RPCCamera
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing rpc %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("rpc %s: %w", path, err)
	}
	return &c, nil
}

func (c *RPCCamera) Validate() error {
	for name, s := range map[string]float64{
		"lat_scale": c.LatScale, "lon_scale": c.LonScale, "alt_scale": c.AltScale,
		"row_scale": c.RowScale, "col_scale": c.ColScale,
	} {
		if s == 0 {
			return fmt.Errorf("%s must be non-zero", name)
		}
	}
	if c.RowDen[0] == 0 || c.ColDen[0] == 0 {
		return fmt.Errorf("denominator constant term must be non-zero")
	}
	return nil
}

// rpcPoly evaluates a 20-term RPC polynomial at normalized (x=lon, y=lat,
// z=alt).
func rpcPoly(c *[20]float64, x, y, z float64) float64 {
	return c[0] + c[1]*y + c[2]*x + c[3]*z +
		c[4]*y*x + c[5]*y*z + c[6]*x*z +
		c[7]*y*y + c[8]*x*x + c[9]*z*z +
		c[10]*x*y*z + c[11]*y*y*y + c[12]*y*x*x + c[13]*y*z*z +
		c[14]*y*y*x + c[15]*x*x*x + c[16]*x*z*z +
		c[17]*y*y*z + c[18]*x*x*z + c[19]*z*z*z
}

// ProjectGeodetic maps geodetic (lon, lat in degrees, alt in meters) to
// (col, row) pixel coordinates.
func (c *RPCCamera) ProjectGeodetic(lon, lat, alt float64) r2.Point {
	x := (lon - c.LonOff) / c.LonScale
	y := (lat - c.LatOff) / c.LatScale
	z := (alt - c.AltOff) / c.AltScale
	row := rpcPoly(&c.RowNum, x, y, z) / rpcPoly(&c.RowDen, x, y, z)
	col := rpcPoly(&c.ColNum, x, y, z) / rpcPoly(&c.ColDen, x, y, z)
	return r2.Point{X: col*c.ColScale + c.ColOff, Y: row*c.RowScale + c.RowOff}
}

// Project maps an earth-centered Cartesian point to pixel coordinates,
// satisfying the Camera interface.
func (c *RPCCamera) Project(pt r3.Vector) r2.Point {
	lat, lon, alt := ecefToGeodetic(pt)
	return c.ProjectGeodetic(lon, lat, alt)
}

// Localize inverts the projection at a fixed altitude: given (col, row) pixel
// coordinates and an altitude in meters, it returns the geodetic (lon, lat)
// of the ground point. Newton iteration on the forward model with a
// numerically estimated Jacobian, starting from the scene center.
func (c *RPCCamera) Localize(pt r2.Point, alt float64) (lon, lat float64, err error) {
	lon, lat = c.LonOff, c.LatOff
	const (
		eps     = 1e-8 // degrees, Jacobian step
		tol     = 1e-10
		maxIter = 50
	)
	for i := 0; i < maxIter; i++ {
		p0 := c.ProjectGeodetic(lon, lat, alt)
		rx := pt.X - p0.X
		ry := pt.Y - p0.Y
		if math.Abs(rx)/math.Abs(c.ColScale) < tol && math.Abs(ry)/math.Abs(c.RowScale) < tol {
			return lon, lat, nil
		}
		pLon := c.ProjectGeodetic(lon+eps, lat, alt)
		pLat := c.ProjectGeodetic(lon, lat+eps, alt)
		// 2x2 Jacobian of (col, row) wrt (lon, lat)
		a := (pLon.X - p0.X) / eps
		b := (pLat.X - p0.X) / eps
		d := (pLon.Y - p0.Y) / eps
		e := (pLat.Y - p0.Y) / eps
		det := a*e - b*d
		if math.Abs(det) < 1e-20 {
			return 0, 0, fmt.Errorf("rpc localization is singular at (%f, %f)", pt.X, pt.Y)
		}
		lon += (e*rx - b*ry) / det
		lat += (-d*rx + a*ry) / det
	}
	return 0, 0, fmt.Errorf("rpc localization did not converge for pixel (%f, %f)", pt.X, pt.Y)
}

// viewRay localizes a pixel at the bottom and top of the model's altitude
// range and returns the ECEF ray through the two ground points.
func (c *RPCCamera) viewRay(pt r2.Point) (origin, dir r3.Vector, err error) {
	altLo := c.AltOff - math.Abs(c.AltScale)
	altHi := c.AltOff + math.Abs(c.AltScale)
	lonLo, latLo, err := c.Localize(pt, altLo)
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	lonHi, latHi, err := c.Localize(pt, altHi)
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	lo := geodeticToECEF(latLo, lonLo, altLo)
	hi := geodeticToECEF(latHi, lonHi, altHi)
	return lo, hi.Sub(lo).Normalize(), nil
}

// StereoTriangulate converts corresponding pixels in this camera and other
// into geodetic coordinates. For each correspondence the two view rays are
// intersected in ECEF at the midpoint of closest approach; the returned error
// value is the miss distance between the rays in meters. Output rows are
// (lon, lat, alt).
func (c *RPCCamera) StereoTriangulate(other *RPCCamera, pts1, pts2 []r2.Point) ([][3]float64, []float64, error) {
	if len(pts1) != len(pts2) {
		return nil, nil, fmt.Errorf("correspondence count mismatch: %d vs %d", len(pts1), len(pts2))
	}
	out := make([][3]float64, len(pts1))
	errs := make([]float64, len(pts1))
	for i := range pts1 {
		o1, d1, err := c.viewRay(pts1[i])
		if err != nil {
			return nil, nil, err
		}
		o2, d2, err := other.viewRay(pts2[i])
		if err != nil {
			return nil, nil, err
		}
		mid, miss := closestApproach(o1, d1, o2, d2)
		lat, lon, alt := ecefToGeodetic(mid)
		out[i] = [3]float64{lon, lat, alt}
		errs[i] = miss
	}
	return out, errs, nil
}

// closestApproach returns the midpoint of the shortest segment between two
// rays and the segment length. Near-parallel rays degrade gracefully to a
// point on the first ray.
func closestApproach(o1, d1, o2, d2 r3.Vector) (r3.Vector, float64) {
	w := o1.Sub(o2)
	a := d1.Dot(d1)
	b := d1.Dot(d2)
	cc := d2.Dot(d2)
	d := d1.Dot(w)
	e := d2.Dot(w)
	denom := a*cc - b*b
	var s, t float64
	if math.Abs(denom) > 1e-12 {
		s = (b*e - cc*d) / denom
		t = (a*e - b*d) / denom
	}
	p1 := o1.Add(d1.Mul(s))
	p2 := o2.Add(d2.Mul(t))
	return p1.Add(p2).Mul(0.5), p1.Sub(p2).Norm()
}
