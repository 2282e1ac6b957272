package features

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestBuildTrackMatrixMergesAcrossPairs(t *testing.T) {
	// keypoint 0 of cam 0 matches keypoint 0 of cam 1, which matches
	// keypoint 5 of cam 2: one track spanning three cameras. Keypoint 1 of
	// cam 0 and keypoint 2 of cam 1 form a second, two-camera track.
	pairs := []PairMatches{
		{I: 0, J: 1, Matches: []Match{
			{IdxI: 0, IdxJ: 0, PI: r2.Point{X: 10, Y: 11}, PJ: r2.Point{X: 20, Y: 21}},
			{IdxI: 1, IdxJ: 2, PI: r2.Point{X: 30, Y: 31}, PJ: r2.Point{X: 40, Y: 41}},
		}},
		{I: 1, J: 2, Matches: []Match{
			{IdxI: 0, IdxJ: 5, PI: r2.Point{X: 20, Y: 21}, PJ: r2.Point{X: 50, Y: 51}},
		}},
	}

	m, err := BuildTrackMatrix(3, pairs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumCameras(), test.ShouldEqual, 3)
	test.That(t, m.NumTracks(), test.ShouldEqual, 2)

	pt, ok := m.Observation(0, 0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pt, test.ShouldResemble, r2.Point{X: 10, Y: 11})
	pt, ok = m.Observation(2, 0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pt, test.ShouldResemble, r2.Point{X: 50, Y: 51})

	pt, ok = m.Observation(1, 1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pt, test.ShouldResemble, r2.Point{X: 40, Y: 41})
	_, ok = m.Observation(2, 1)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestBuildTrackMatrixDropsContradictoryTracks(t *testing.T) {
	// both keypoints 3 and 4 of cam 0 connect to keypoint 4 of cam 1: the
	// component observes cam 0 twice and cannot be a physical point
	pairs := []PairMatches{
		{I: 0, J: 1, Matches: []Match{
			{IdxI: 3, IdxJ: 4, PI: r2.Point{X: 1, Y: 1}, PJ: r2.Point{X: 2, Y: 2}},
			{IdxI: 4, IdxJ: 4, PI: r2.Point{X: 3, Y: 3}, PJ: r2.Point{X: 2, Y: 2}},
		}},
	}
	m, err := BuildTrackMatrix(2, pairs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumTracks(), test.ShouldEqual, 0)
}

func TestBuildTrackMatrixRejectsBadCameraIndex(t *testing.T) {
	_, err := BuildTrackMatrix(2, []PairMatches{{I: 0, J: 5}})
	test.That(t, err, test.ShouldNotBeNil)
}
