package court

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackAt builds a bare confirmed track positioned at (x, y) for
// association tests.
func trackAt(id int64, x, y float64) *TrackedPlayer {
	return &TrackedPlayer{
		ID:           id,
		State:        TrackConfirmed,
		X:            x,
		Y:            y,
		BBoxAreaMean: 0.5,
	}
}

func TestAssociate(t *testing.T) {
	t.Parallel()
	cfg := DefaultEngineConfig()

	t.Run("matches each detection to nearest track one-to-one", func(t *testing.T) {
		t.Parallel()
		tracks := []*TrackedPlayer{trackAt(1, 0, 0), trackAt(2, 5, 5)}
		dets := []Detection{playerDet(5.1, 5.0), playerDet(0.1, 0.0)}

		asn := Associate(tracks, dets, cfg)
		require.Len(t, asn.Pairs, 2)
		assert.Empty(t, asn.UnmatchedDetections)
		assert.Empty(t, asn.UnmatchedTracks)

		byDet := map[int]int64{}
		for _, p := range asn.Pairs {
			byDet[p.DetectionIndex] = p.TrackID
		}
		assert.Equal(t, int64(2), byDet[0])
		assert.Equal(t, int64(1), byDet[1])
	})

	t.Run("rejects matches beyond the gating threshold", func(t *testing.T) {
		t.Parallel()
		tracks := []*TrackedPlayer{trackAt(1, 0, 0)}
		dets := []Detection{playerDet(50, 50)}

		asn := Associate(tracks, dets, cfg)
		assert.Empty(t, asn.Pairs)
		assert.Equal(t, []int{0}, asn.UnmatchedDetections)
		assert.Equal(t, []int64{1}, asn.UnmatchedTracks)
	})

	t.Run("equal-cost tie resolves to the older track", func(t *testing.T) {
		t.Parallel()
		tracks := []*TrackedPlayer{trackAt(1, 2, 2), trackAt(2, 2, 2)}
		dets := []Detection{playerDet(2, 2)}

		asn := Associate(tracks, dets, cfg)
		require.Len(t, asn.Pairs, 1)
		assert.Equal(t, int64(1), asn.Pairs[0].TrackID)
		assert.Equal(t, []int64{2}, asn.UnmatchedTracks)
	})

	t.Run("size dissimilarity raises the cost", func(t *testing.T) {
		t.Parallel()
		tr := trackAt(1, 0, 0)
		playerBox := playerDet(1, 0)
		ballBox := Detection{
			Class:      ClassPlayer, // Mislabelled ball-sized blob
			BBox:       BBox{X: 0.9, Y: -0.1, W: 0.2, H: 0.2},
			Confidence: 0.9,
		}

		assert.Less(t,
			associationCost(tr, playerBox, cfg),
			associationCost(tr, ballBox, cfg))
	})

	t.Run("no detections", func(t *testing.T) {
		t.Parallel()
		asn := Associate([]*TrackedPlayer{trackAt(1, 0, 0)}, nil, cfg)
		assert.Empty(t, asn.Pairs)
		assert.Equal(t, []int64{1}, asn.UnmatchedTracks)
	})

	t.Run("no tracks", func(t *testing.T) {
		t.Parallel()
		asn := Associate(nil, []Detection{playerDet(0, 0)}, cfg)
		assert.Empty(t, asn.Pairs)
		assert.Equal(t, []int{0}, asn.UnmatchedDetections)
	})
}
