package court

// BallSnapshot is the published view of the ball estimate.
type BallSnapshot struct {
	Position     Point   `json:"position"`
	Velocity     Point   `json:"velocity"`
	Variance     float64 `json:"variance"`
	MissedFrames int     `json:"missed_frames"`
	Lost         bool    `json:"lost"`
	HasFix       bool    `json:"has_fix"`
}

// ActiveTrack is the published view of one live player track.
type ActiveTrack struct {
	ID        int64      `json:"id"`
	Position  Point      `json:"position"`
	Velocity  Point      `json:"velocity"`
	Confirmed bool       `json:"confirmed"`
	State     TrackState `json:"state"`
}

// AdvisoryFlags surface degraded-tracking conditions. They are advisory,
// not errors: statistics keep accumulating with reduced confidence.
type AdvisoryFlags struct {
	BallLost          bool `json:"ball_lost"`
	TrackChurnHigh    bool `json:"track_churn_high"`
	DetectionOverflow bool `json:"detection_overflow"`
}

// MatchSnapshot is the engine's complete published state after one
// frame. Snapshots are immutable by convention: every slice and map they
// carry is freshly copied at publication, and readers must not mutate
// them. This is the structure the insight generator and the dashboard
// consume.
type MatchSnapshot struct {
	SessionID         string  `json:"session_id"`
	FramesProcessed   int64   `json:"frames_processed"`
	LastTimestampUnix float64 `json:"last_timestamp"`

	Phase          RallyPhase     `json:"phase"`
	RallyCount     int            `json:"rally_count"`
	Rallies        []Rally        `json:"rallies"`
	CurrentRally   *Rally         `json:"current_rally,omitempty"`
	RallyQuantiles RallyQuantiles `json:"rally_length_quantiles"`

	Players      []PlayerStats `json:"player_stats"`
	UnknownShots int           `json:"unknown_shots"`

	BallHeatmap      *Heatmap `json:"ball_heatmap"`
	OccupancyHeatmap *Heatmap `json:"player_positions_heatmap"`

	ActiveTracks []ActiveTrack `json:"active_tracks"`
	Ball         BallSnapshot  `json:"ball"`

	Flags AdvisoryFlags `json:"flags"`
}
