package rpctriangulate

import (
	"testing"

	"github.com/golang/geo/r2"

	"go.viam.com/rdk/logging"
	"go.viam.com/test"
)

// linearRPC builds a well-conditioned RPC whose polynomials are purely
// linear: row tracks latitude, col tracks longitude, and the altitude terms
// tilt the view direction so two cameras with opposite tilts form a usable
// stereo pair.
func linearRPC(rowAlt, colAlt float64) *RPCCamera {
	c := &RPCCamera{
		LatOff: 44.0, LatScale: 0.05,
		LonOff: 5.0, LonScale: 0.05,
		AltOff: 500, AltScale: 500,
		RowOff: 10000, RowScale: 10000,
		ColOff: 10000, ColScale: 10000,
	}
	c.RowDen[0] = 1
	c.ColDen[0] = 1
	c.RowNum[1] = 1 // lat
	c.RowNum[3] = rowAlt
	c.ColNum[2] = 1 // lon
	c.ColNum[3] = colAlt
	return c
}

func TestRPCProjectLocalizeRoundTrip(t *testing.T) {
	cam := linearRPC(0.3, 0.2)

	lon, lat, alt := 5.0123, 44.0456, 650.0
	px := cam.ProjectGeodetic(lon, lat, alt)

	gotLon, gotLat, err := cam.Localize(px, alt)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gotLon, test.ShouldAlmostEqual, lon, 1e-9)
	test.That(t, gotLat, test.ShouldAlmostEqual, lat, 1e-9)
}

func TestRPCStereoTriangulation(t *testing.T) {
	a := linearRPC(0.3, 0.2)
	b := linearRPC(-0.3, -0.2)

	lon, lat, alt := 5.01, 44.02, 600.0
	p1 := a.ProjectGeodetic(lon, lat, alt)
	p2 := b.ProjectGeodetic(lon, lat, alt)

	lonlatalt, errVals, err := a.StereoTriangulate(b, []r2.Point{p1}, []r2.Point{p2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lonlatalt, test.ShouldHaveLength, 1)
	test.That(t, lonlatalt[0][0], test.ShouldAlmostEqual, lon, 1e-5)
	test.That(t, lonlatalt[0][1], test.ShouldAlmostEqual, lat, 1e-5)
	test.That(t, lonlatalt[0][2], test.ShouldAlmostEqual, alt, 0.5)
	// perfect correspondences: the two rays nearly intersect
	test.That(t, errVals[0], test.ShouldBeLessThan, 0.5)
}

func TestRPCTriangulatePairECEF(t *testing.T) {
	a := linearRPC(0.3, 0.2)
	b := linearRPC(-0.3, -0.2)

	lon, lat, alt := 4.995, 44.03, 420.0
	p1 := a.ProjectGeodetic(lon, lat, alt)
	p2 := b.ProjectGeodetic(lon, lat, alt)

	pts, errVals, err := TriangulatePairRPC(a, b, []r2.Point{p1}, []r2.Point{p2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errVals, test.ShouldHaveLength, 1)

	want := geodeticToECEF(lat, lon, alt)
	test.That(t, pts[0].X, test.ShouldAlmostEqual, want.X, 1.0)
	test.That(t, pts[0].Y, test.ShouldAlmostEqual, want.Y, 1.0)
	test.That(t, pts[0].Z, test.ShouldAlmostEqual, want.Z, 1.0)
}

func TestRPCAggregateRecoversTracks(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cams := []Camera{linearRPC(0.3, 0.2), linearRPC(-0.3, -0.2)}

	truth := [][3]float64{ // lon, lat, alt
		{5.01, 44.02, 600},
		{4.99, 43.98, 350},
	}
	m := NewTrackMatrix(2, len(truth))
	for ti, g := range truth {
		for ci, cam := range cams {
			m.SetObservation(ci, ti, cam.(*RPCCamera).ProjectGeodetic(g[0], g[1], g[2]))
		}
	}

	estimates, err := InitPoints(m, cams, ModelRPC, []CameraPair{{I: 0, J: 1}}, logger)
	test.That(t, err, test.ShouldBeNil)
	for ti, g := range truth {
		want := geodeticToECEF(g[1], g[0], g[2])
		test.That(t, estimates[ti].Support, test.ShouldEqual, 1)
		test.That(t, estimates[ti].Point.X, test.ShouldAlmostEqual, want.X, 1.0)
		test.That(t, estimates[ti].Point.Y, test.ShouldAlmostEqual, want.Y, 1.0)
		test.That(t, estimates[ti].Point.Z, test.ShouldAlmostEqual, want.Z, 1.0)
	}
}

func TestRPCValidate(t *testing.T) {
	cam := linearRPC(0.3, 0.2)
	test.That(t, cam.Validate(), test.ShouldBeNil)

	bad := linearRPC(0.3, 0.2)
	bad.AltScale = 0
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = linearRPC(0.3, 0.2)
	bad.RowDen[0] = 0
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
}
