package court

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"
)

// DetectionClass identifies what kind of object a detection refers to.
type DetectionClass string

const (
	ClassPlayer DetectionClass = "player"
	ClassBall   DetectionClass = "ball"
)

// Point is a 2D position in court coordinates. It marshals as a
// two-element array [x, y] to match the external frame contract.
type Point struct {
	X float64
	Y float64
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a two-element [x, y] array.
func (p *Point) UnmarshalJSON(b []byte) error {
	var v [2]float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("point must be a [x, y] array: %w", err)
	}
	p.X, p.Y = v[0], v[1]
	return nil
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dot returns the dot product of p and q treated as vectors.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	d := p.Sub(q)
	return math.Hypot(d.X, d.Y)
}

// BBox is an axis-aligned bounding box with top-left origin. It marshals
// as a four-element array [x, y, w, h] to match the external contract.
type BBox struct {
	X float64
	Y float64
	W float64
	H float64
}

// MarshalJSON encodes the box as [x, y, w, h].
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X, b.Y, b.W, b.H})
}

// UnmarshalJSON decodes a four-element [x, y, w, h] array.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var v [4]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bbox must be a [x, y, w, h] array: %w", err)
	}
	b.X, b.Y, b.W, b.H = v[0], v[1], v[2], v[3]
	return nil
}

// Center returns the centre point of the box.
func (b BBox) Center() Point { return Point{b.X + b.W/2, b.Y + b.H/2} }

// Area returns the box area.
func (b BBox) Area() float64 { return b.W * b.H }

// Detection is one observed object in one frame. Detections are produced
// by an external detector and are immutable once created.
type Detection struct {
	Class      DetectionClass `json:"class"`
	BBox       BBox           `json:"bbox"`
	Confidence float64        `json:"confidence"`
}

// Frame is the unit of engine input: one timestamped set of detections.
// Frames must be delivered in strictly increasing timestamp order; the
// interval between frames is not assumed fixed.
type Frame struct {
	TimestampUnix float64     `json:"timestamp"`
	Detections    []Detection `json:"detections"`
}

// PlayerDetections returns the subset of detections classified as players.
func (f Frame) PlayerDetections() []Detection {
	out := make([]Detection, 0, len(f.Detections))
	for _, d := range f.Detections {
		if d.Class == ClassPlayer {
			out = append(out, d)
		}
	}
	return out
}

// BallDetection returns the highest-confidence ball detection in the
// frame, or nil when the ball was not detected.
func (f Frame) BallDetection() *Detection {
	var best *Detection
	for i := range f.Detections {
		d := &f.Detections[i]
		if d.Class != ClassBall {
			continue
		}
		if best == nil || d.Confidence > best.Confidence {
			best = d
		}
	}
	return best
}

// CourtBounds describes the court-coordinate extent used for heatmap
// binning and zone classification. Coordinates are expected to arrive
// already calibrated (pixel-to-court homography is an upstream concern).
type CourtBounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Normalize maps p into [0,1)² relative to the bounds, clamping points
// that fall outside so every sample stays countable.
func (c CourtBounds) Normalize(p Point) Point {
	nx := (p.X - c.MinX) / (c.MaxX - c.MinX)
	ny := (p.Y - c.MinY) / (c.MaxY - c.MinY)
	return Point{clamp01(nx), clamp01(ny)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return nextBelowOne
	}
	return v
}

// nextBelowOne keeps clamped samples inside the last heatmap bin.
const nextBelowOne = 1 - 1e-9
