package court

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameJSONContract(t *testing.T) {
	t.Parallel()

	t.Run("decodes the detector wire format", func(t *testing.T) {
		t.Parallel()
		line := `{
			"timestamp": 1756300000.033,
			"detections": [
				{"class": "player", "bbox": [2.1, 4.5, 0.5, 1.0], "confidence": 0.91},
				{"class": "ball", "bbox": [5.0, 9.9, 0.2, 0.2], "confidence": 0.64}
			]
		}`

		var f Frame
		require.NoError(t, json.Unmarshal([]byte(line), &f))

		assert.Equal(t, 1756300000.033, f.TimestampUnix)
		require.Len(t, f.Detections, 2)
		assert.Equal(t, ClassPlayer, f.Detections[0].Class)
		assert.Equal(t, BBox{X: 2.1, Y: 4.5, W: 0.5, H: 1.0}, f.Detections[0].BBox)
		assert.Equal(t, 0.91, f.Detections[0].Confidence)
		assert.Equal(t, ClassBall, f.Detections[1].Class)
	})

	t.Run("rejects a malformed bbox", func(t *testing.T) {
		t.Parallel()
		var f Frame
		err := json.Unmarshal([]byte(`{"timestamp": 1, "detections": [{"class": "ball", "bbox": {"x": 1}, "confidence": 0.5}]}`), &f)
		assert.ErrorContains(t, err, "bbox must be a [x, y, w, h] array")
	})

	t.Run("point marshals as an array", func(t *testing.T) {
		t.Parallel()
		b, err := json.Marshal(Point{1, 2})
		require.NoError(t, err)
		assert.JSONEq(t, `[1, 2]`, string(b))

		var p Point
		require.NoError(t, json.Unmarshal([]byte(`[3.5, 4.5]`), &p))
		assert.Equal(t, Point{3.5, 4.5}, p)
	})
}

func TestFrameAccessors(t *testing.T) {
	t.Parallel()

	f := Frame{
		TimestampUnix: 10,
		Detections: []Detection{
			playerDet(1, 1),
			{Class: ClassBall, BBox: BBox{X: 4, Y: 4, W: 0.2, H: 0.2}, Confidence: 0.3},
			playerDet(8, 8),
			{Class: ClassBall, BBox: BBox{X: 6, Y: 6, W: 0.2, H: 0.2}, Confidence: 0.7},
		},
	}

	assert.Len(t, f.PlayerDetections(), 2)

	ball := f.BallDetection()
	require.NotNil(t, ball)
	assert.Equal(t, 0.7, ball.Confidence, "highest-confidence ball wins")

	empty := Frame{TimestampUnix: 11}
	assert.Empty(t, empty.PlayerDetections())
	assert.Nil(t, empty.BallDetection())
}

func TestCourtBoundsNormalize(t *testing.T) {
	t.Parallel()
	bounds := CourtBounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 20}

	assert.Equal(t, Point{0.5, 0.5}, bounds.Normalize(Point{5, 10}))
	assert.Equal(t, Point{0, 0}, bounds.Normalize(Point{-3, -3}))

	n := bounds.Normalize(Point{99, 99})
	assert.Less(t, n.X, 1.0)
	assert.Less(t, n.Y, 1.0)
	assert.Greater(t, n.X, 0.999)
}

func TestShotEventJSON(t *testing.T) {
	t.Parallel()

	attributed := ShotEvent{Timestamp: 12.5, PlayerID: idPtr(3), Location: Point{2, 4}, Type: ShotRally}
	b, err := json.Marshal(attributed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp": 12.5, "player_id": 3, "location": [2, 4], "type": "rally_shot"}`, string(b))

	// Attribution is never forced: an unclaimed shot carries an explicit null.
	unattributed := ShotEvent{Timestamp: 13.0, Location: Point{5, 5}, Type: ShotRally}
	b, err = json.Marshal(unattributed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp": 13, "player_id": null, "location": [5, 5], "type": "rally_shot"}`, string(b))
}
