package features

import (
	"fmt"
	"sort"

	"github.com/golang/geo/r2"

	"rpctriangulate"
)

// obsKey identifies one keypoint observation: keypoint idx in camera cam.
type obsKey struct {
	cam, idx int
}

// unionFind is a disjoint-set over observations with path compression.
type unionFind struct {
	parent map[obsKey]obsKey
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[obsKey]obsKey{}}
}

func (u *unionFind) find(k obsKey) obsKey {
	p, ok := u.parent[k]
	if !ok {
		u.parent[k] = k
		return k
	}
	if p == k {
		return k
	}
	root := u.find(p)
	u.parent[k] = root
	return root
}

func (u *unionFind) union(a, b obsKey) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// BuildTrackMatrix merges pairwise matches into feature tracks and emits the
// correspondence matrix. Observations matched across pairs are connected
// transitively; a connected component becomes a track when it spans at least
// two cameras and observes each camera at most once (components with two
// distinct keypoints in the same camera are contradictory and dropped, the
// standard policy for track construction). Track column order is
// deterministic: sorted by the first (camera, keypoint) observation.
func BuildTrackMatrix(nCameras int, pairs []PairMatches) (*rpctriangulate.TrackMatrix, error) {
	uf := newUnionFind()
	type obs struct {
		key obsKey
		x   float64
		y   float64
	}
	points := map[obsKey][2]float64{}

	for _, pm := range pairs {
		if pm.I < 0 || pm.I >= nCameras || pm.J < 0 || pm.J >= nCameras {
			return nil, fmt.Errorf("pair (%d, %d) references a camera outside 0..%d", pm.I, pm.J, nCameras-1)
		}
		for _, m := range pm.Matches {
			ki := obsKey{cam: pm.I, idx: m.IdxI}
			kj := obsKey{cam: pm.J, idx: m.IdxJ}
			points[ki] = [2]float64{m.PI.X, m.PI.Y}
			points[kj] = [2]float64{m.PJ.X, m.PJ.Y}
			uf.union(ki, kj)
		}
	}

	// group observations by component root
	groups := map[obsKey][]obs{}
	for k, p := range points {
		root := uf.find(k)
		groups[root] = append(groups[root], obs{key: k, x: p[0], y: p[1]})
	}

	type track struct {
		first obsKey
		obs   []obs
	}
	var tracks []track
	for _, g := range groups {
		sort.Slice(g, func(a, b int) bool {
			if g[a].key.cam != g[b].key.cam {
				return g[a].key.cam < g[b].key.cam
			}
			return g[a].key.idx < g[b].key.idx
		})
		seen := map[int]bool{}
		consistent := true
		for _, o := range g {
			if seen[o.key.cam] {
				consistent = false
				break
			}
			seen[o.key.cam] = true
		}
		if !consistent || len(seen) < 2 {
			continue
		}
		tracks = append(tracks, track{first: g[0].key, obs: g})
	}
	sort.Slice(tracks, func(a, b int) bool {
		if tracks[a].first.cam != tracks[b].first.cam {
			return tracks[a].first.cam < tracks[b].first.cam
		}
		return tracks[a].first.idx < tracks[b].first.idx
	})

	m := rpctriangulate.NewTrackMatrix(nCameras, len(tracks))
	for t, tr := range tracks {
		for _, o := range tr.obs {
			m.SetObservation(o.key.cam, t, r2.Point{X: o.x, Y: o.y})
		}
	}
	return m, nil
}
