package court

import "math"

// MatchPair binds one detection to one track for the current frame.
type MatchPair struct {
	DetectionIndex int
	TrackID        int64
	Cost           float64
}

// Assignment is the outcome of one frame of detection-to-track
// association. It is a pure value: applying it to tracker state is the
// PlayerTracker's job.
type Assignment struct {
	Pairs               []MatchPair
	UnmatchedDetections []int
	UnmatchedTracks     []int64
}

// Associate matches player detections against predicted track positions.
// The cost of a pair is the Euclidean distance between the predicted
// track centre and the detection centre, plus a size-dissimilarity term
// weighted by cfg.SizeWeight. Pairs whose cost exceeds
// cfg.GatingDistance are refused outright; an over-threshold match is
// left unassigned rather than forced.
//
// Each detection matches at most one track and vice versa. Tracks must
// be supplied in ascending ID order so equal-cost ties resolve toward
// the older identity.
func Associate(tracks []*TrackedPlayer, detections []Detection, cfg EngineConfig) Assignment {
	asn := Assignment{}

	if len(detections) == 0 {
		for _, tr := range tracks {
			asn.UnmatchedTracks = append(asn.UnmatchedTracks, tr.ID)
		}
		return asn
	}
	if len(tracks) == 0 {
		for i := range detections {
			asn.UnmatchedDetections = append(asn.UnmatchedDetections, i)
		}
		return asn
	}

	cost := make([][]float64, len(detections))
	for i, det := range detections {
		cost[i] = make([]float64, len(tracks))
		for j, tr := range tracks {
			c := associationCost(tr, det, cfg)
			if c > cfg.GatingDistance {
				c = forbiddenCost
			}
			cost[i][j] = c
		}
	}

	result := solveAssignment(cost)

	matchedTracks := make(map[int64]bool, len(tracks))
	for i, j := range result {
		if j < 0 {
			asn.UnmatchedDetections = append(asn.UnmatchedDetections, i)
			continue
		}
		tr := tracks[j]
		asn.Pairs = append(asn.Pairs, MatchPair{
			DetectionIndex: i,
			TrackID:        tr.ID,
			Cost:           cost[i][j],
		})
		matchedTracks[tr.ID] = true
	}
	for _, tr := range tracks {
		if !matchedTracks[tr.ID] {
			asn.UnmatchedTracks = append(asn.UnmatchedTracks, tr.ID)
		}
	}

	return asn
}

// associationCost scores one detection against one track. Distance is
// measured against the track's predicted position for the current frame;
// the size term penalises boxes whose area departs from the track's
// running mean, which separates players from stray ball-sized blobs the
// detector occasionally mislabels.
func associationCost(tr *TrackedPlayer, det Detection, cfg EngineConfig) float64 {
	c := tr.Position().DistanceTo(det.BBox.Center())

	if cfg.SizeWeight > 0 && tr.BBoxAreaMean > 0 {
		if area := det.BBox.Area(); area > 0 {
			c += cfg.SizeWeight * math.Abs(math.Log(area/tr.BBoxAreaMean))
		}
	}
	return c
}
