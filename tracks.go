package rpctriangulate

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// TrackMatrix is the correspondence matrix linking feature tracks to the
// cameras that observe them. Row pair (2k, 2k+1) holds the (col, row) pixel
// coordinates of each track as seen by camera k, or NaN where camera k does
// not observe that track. Columns are independent tracks; row pairs are
// indexed by camera id.
type TrackMatrix struct {
	nCameras int
	nTracks  int
	data     []float64 // (2*nCameras x nTracks), row-major
}

// NewTrackMatrix returns an empty matrix with every observation missing.
func NewTrackMatrix(nCameras, nTracks int) *TrackMatrix {
	data := make([]float64, 2*nCameras*nTracks)
	for i := range data {
		data[i] = math.NaN()
	}
	return &TrackMatrix{nCameras: nCameras, nTracks: nTracks, data: data}
}

// TrackMatrixFromRows builds a matrix from raw rows, two per camera, as
// produced by an upstream feature-tracking stage.
func TrackMatrixFromRows(rows [][]float64) (*TrackMatrix, error) {
	if len(rows) == 0 || len(rows)%2 != 0 {
		return nil, fmt.Errorf("need an even, non-zero number of rows, got %d", len(rows))
	}
	nTracks := len(rows[0])
	for i, r := range rows {
		if len(r) != nTracks {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(r), nTracks)
		}
	}
	m := &TrackMatrix{
		nCameras: len(rows) / 2,
		nTracks:  nTracks,
		data:     make([]float64, len(rows)*nTracks),
	}
	for i, r := range rows {
		copy(m.data[i*nTracks:(i+1)*nTracks], r)
	}
	return m, nil
}

func (m *TrackMatrix) NumCameras() int { return m.nCameras }

func (m *TrackMatrix) NumTracks() int { return m.nTracks }

func (m *TrackMatrix) at(row, track int) float64 {
	return m.data[row*m.nTracks+track]
}

// SetObservation records the pixel location of track as seen by cam.
func (m *TrackMatrix) SetObservation(cam, track int, pt r2.Point) {
	m.data[(2*cam)*m.nTracks+track] = pt.X
	m.data[(2*cam+1)*m.nTracks+track] = pt.Y
}

// Observation returns the pixel location of track in cam, and whether the
// camera observes it at all.
func (m *TrackMatrix) Observation(cam, track int) (r2.Point, bool) {
	x := m.at(2*cam, track)
	if math.IsNaN(x) {
		return r2.Point{}, false
	}
	return r2.Point{X: x, Y: m.at(2*cam+1, track)}, true
}

// ObservationMask precomputes, per camera, which tracks are observed. A track
// counts as observed when the primary (column) coordinate is not NaN.
func (m *TrackMatrix) ObservationMask() [][]bool {
	mask := make([][]bool, m.nCameras)
	for c := 0; c < m.nCameras; c++ {
		row := make([]bool, m.nTracks)
		for t := 0; t < m.nTracks; t++ {
			row[t] = !math.IsNaN(m.at(2*c, t))
		}
		mask[c] = row
	}
	return mask
}

// PairObservations returns the indices of tracks observed by both cameras,
// plus the two aligned observation batches. mask must come from
// ObservationMask on the same matrix.
func (m *TrackMatrix) PairObservations(ci, cj int, mask [][]bool) ([]int, []r2.Point, []r2.Point) {
	var idx []int
	var obsI, obsJ []r2.Point
	for t := 0; t < m.nTracks; t++ {
		if mask[ci][t] && mask[cj][t] {
			idx = append(idx, t)
			obsI = append(obsI, r2.Point{X: m.at(2*ci, t), Y: m.at(2*ci+1, t)})
			obsJ = append(obsJ, r2.Point{X: m.at(2*cj, t), Y: m.at(2*cj+1, t)})
		}
	}
	return idx, obsI, obsJ
}

// TrackObservations returns every camera observing the given track along with
// the observed pixel locations, in camera order.
func (m *TrackMatrix) TrackObservations(track int) ([]int, []r2.Point) {
	var cams []int
	var obs []r2.Point
	for c := 0; c < m.nCameras; c++ {
		if pt, ok := m.Observation(c, track); ok {
			cams = append(cams, c)
			obs = append(obs, pt)
		}
	}
	return cams, obs
}
