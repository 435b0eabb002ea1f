// Package court implements the padel tracking-and-analytics engine: it
// turns noisy per-frame object detections (players, ball) into temporally
// coherent player tracks, a smoothed ball trajectory, rally/shot
// segmentation, and aggregated match statistics.
//
// The package is organised around a Session, which advances all engine
// state one detection frame at a time in strict timestamp order and
// publishes an immutable MatchSnapshot after every frame. Concurrent
// readers load the latest published snapshot without ever blocking the
// writer.
//
// Processing layers, leaf first:
//
//   - association.go  detection-to-track assignment (gated bipartite match)
//   - tracking.go     player track lifecycle and Kalman motion estimation
//   - ball.go         single-target ball state estimation
//   - rally.go        rally/shot segmentation state machine
//   - stats.go        match statistics accumulation
//   - session.go      per-frame orchestration and snapshot publication
//
// None of the layers perform I/O; persistence and rendering live in the
// store and report subpackages.
package court
