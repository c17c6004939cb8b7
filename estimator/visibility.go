package estimator

import "sort"

// RankingEntry is one object with its occlusion score. A score of 0 means
// the object is as visible as its geometry allows from the viewpoint, 1
// means it is completely hidden.
type RankingEntry struct {
	ObjectID  uint32
	Occlusion float32
}

// Ranking lists every object of the scene ordered from most to least
// occluded, ties broken by ascending object id.
type Ranking []RankingEntry

// Aggregate derives the occlusion ranking from an estimated frame and the
// per-object footprints. For each object the visible sample count (pixels
// where it is the nearest hit) is related to its footprint (samples its
// geometry covers at all): occlusion = 1 - visible/footprint. Objects with
// an empty footprint, including objects outside the view entirely, score 0.
func Aggregate(frame *Frame, footprints []int, numObjects int) Ranking {
	visible := make([]int, numObjects)
	for _, id := range frame.IDs {
		if id != NoObject {
			visible[id]++
		}
	}

	ranking := make(Ranking, numObjects)
	for id := 0; id < numObjects; id++ {
		score := float32(0)
		if id < len(footprints) && footprints[id] > 0 {
			score = 1 - float32(visible[id])/float32(footprints[id])
		}
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		ranking[id] = RankingEntry{ObjectID: uint32(id), Occlusion: score}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Occlusion != ranking[j].Occlusion {
			return ranking[i].Occlusion > ranking[j].Occlusion
		}
		return ranking[i].ObjectID < ranking[j].ObjectID
	})

	return ranking
}

// CompareIDBuffers returns the fraction of pixels on which the two frames
// agree and the coordinates of the first disagreement. Frames of different
// size agree on nothing.
func CompareIDBuffers(a, b *Frame) (float64, int, int) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, -1, -1
	}

	matches := 0
	firstX, firstY := -1, -1
	for i := range a.IDs {
		if a.IDs[i] == b.IDs[i] {
			matches++
		} else if firstX < 0 {
			firstX, firstY = i%a.Width, i/a.Width
		}
	}

	if len(a.IDs) == 0 {
		return 1, -1, -1
	}
	return float64(matches) / float64(len(a.IDs)), firstX, firstY
}
