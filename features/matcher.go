// Package features builds a correspondence matrix from raw imagery: SIFT
// keypoints are matched between suitable image pairs and the pairwise matches
// are merged into feature tracks.
package features

import (
	"errors"

	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"
)

// Match links keypoint IdxI of one image to keypoint IdxJ of another, with
// the (col, row) pixel locations of both.
type Match struct {
	IdxI, IdxJ int
	PI, PJ     r2.Point
}

// PairMatches is the match set of one image pair, indices into the scene's
// camera list.
type PairMatches struct {
	I, J    int
	Matches []Match
}

// Keypoints holds the detection result of one image. Close must be called to
// release the descriptor matrix.
type Keypoints struct {
	Points []r2.Point
	desc   gocv.Mat
}

func (k *Keypoints) Close() {
	k.desc.Close()
}

// Detect runs SIFT keypoint detection and description on a grayscale image.
func Detect(img gocv.Mat) (*Keypoints, error) {
	if img.Empty() {
		return nil, errors.New("empty image")
	}
	sift := gocv.NewSIFT()
	defer sift.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	kps, desc := sift.DetectAndCompute(img, mask)
	pts := make([]r2.Point, len(kps))
	for i, kp := range kps {
		pts[i] = r2.Point{X: kp.X, Y: kp.Y}
	}
	return &Keypoints{Points: pts, desc: desc}, nil
}

// MatchKeypoints brute-force matches two descriptor sets with Lowe's ratio
// test. ratio <= 0 falls back to 0.8.
func MatchKeypoints(a, b *Keypoints, ratio float64) []Match {
	if ratio <= 0 {
		ratio = 0.8
	}
	matcher := gocv.NewBFMatcher()
	defer matcher.Close()

	var out []Match
	for _, candidates := range matcher.KnnMatch(a.desc, b.desc, 2) {
		if len(candidates) < 2 {
			continue
		}
		best, second := candidates[0], candidates[1]
		if best.Distance >= ratio*second.Distance {
			continue
		}
		out = append(out, Match{
			IdxI: best.QueryIdx,
			IdxJ: best.TrainIdx,
			PI:   a.Points[best.QueryIdx],
			PJ:   b.Points[best.TrainIdx],
		})
	}
	return out
}
