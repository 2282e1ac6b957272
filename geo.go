package rpctriangulate

import (
	"math"

	"github.com/golang/geo/r3"
)

// WGS84 ellipsoid.
const (
	wgs84A  = 6378137.0
	wgs84F  = 1.0 / 298.257223563
	wgs84E2 = wgs84F * (2.0 - wgs84F)
)

// GeodeticToECEF converts geodetic coordinates (degrees, meters) to
// earth-centered Cartesian coordinates on the WGS84 ellipsoid, vectorized
// over the input slices. All triangulated points live in this frame so the
// downstream bundle adjustment sees a single consistent coordinate system.
func GeodeticToECEF(lat, lon, alt []float64) (x, y, z []float64) {
	x = make([]float64, len(lat))
	y = make([]float64, len(lat))
	z = make([]float64, len(lat))
	for i := range lat {
		v := geodeticToECEF(lat[i], lon[i], alt[i])
		x[i], y[i], z[i] = v.X, v.Y, v.Z
	}
	return x, y, z
}

func geodeticToECEF(latDeg, lonDeg, alt float64) r3.Vector {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	n := wgs84A / math.Sqrt(1.0-wgs84E2*sinLat*sinLat)
	return r3.Vector{
		X: (n + alt) * cosLat * cosLon,
		Y: (n + alt) * cosLat * sinLon,
		Z: (n*(1.0-wgs84E2) + alt) * sinLat,
	}
}

// ECEFToGeodetic is the inverse of GeodeticToECEF, vectorized.
func ECEFToGeodetic(x, y, z []float64) (lat, lon, alt []float64) {
	lat = make([]float64, len(x))
	lon = make([]float64, len(x))
	alt = make([]float64, len(x))
	for i := range x {
		lat[i], lon[i], alt[i] = ecefToGeodetic(r3.Vector{X: x[i], Y: y[i], Z: z[i]})
	}
	return lat, lon, alt
}

func ecefToGeodetic(v r3.Vector) (latDeg, lonDeg, alt float64) {
	lon := math.Atan2(v.Y, v.X)
	p := math.Hypot(v.X, v.Y)
	// iterate latitude; converges in a handful of steps for any point near
	// the ellipsoid surface
	lat := math.Atan2(v.Z, p*(1.0-wgs84E2))
	var n float64
	for i := 0; i < 8; i++ {
		sinLat := math.Sin(lat)
		n = wgs84A / math.Sqrt(1.0-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(v.Z+wgs84E2*n*sinLat, p)
	}
	cosLat := math.Cos(lat)
	if math.Abs(cosLat) > 1e-12 {
		alt = p/cosLat - n
	} else {
		alt = math.Abs(v.Z) - n*(1.0-wgs84E2)
	}
	return lat * 180.0 / math.Pi, lon * 180.0 / math.Pi, alt
}
