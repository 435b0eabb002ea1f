package court

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// EngineConfig holds every tunable threshold the engine accepts. Values
// are validated once, up front, by Validate; the engine never clamps.
//
// Distances and positions are in court units (metres for a calibrated
// court), speeds in court units per second, durations in seconds.
type EngineConfig struct {
	// Association
	GatingDistance float64 // Max acceptable association cost
	SizeWeight     float64 // Weight of bbox size dissimilarity in the cost

	// Player tracking
	MaxPlayers         int     // Upper bound on simultaneous live tracks (4 doubles, 2 singles)
	HitsToConfirm      int     // Consecutive matches before Tentative -> Confirmed
	LostAfterMisses    int     // Consecutive misses before Confirmed -> Lost
	MaxMisses          int     // Consecutive misses before a track is Terminated
	TentativeMaxMisses int     // Misses tolerated by an unconfirmed track
	ProcessNoisePos    float64 // Kalman process noise, position (σ²)
	ProcessNoiseVel    float64 // Kalman process noise, velocity (σ²)
	MeasurementNoise   float64 // Kalman measurement noise (σ²)
	TerminatedGraceSec float64 // How long terminated tracks stay queryable

	// Ball estimation
	BallProcessNoise     float64 // Variance growth per second of pure prediction
	BallMeasurementNoise float64 // Variance floor restored by corrections
	BallVelocityGain     float64 // Blend gain for velocity correction (1 = finite difference)
	BallLostAfterMisses  int     // Missed frames beyond which the ball is flagged lost

	// Rally segmentation
	ServeSpeed         float64 // Ball speed that starts a rally from Idle
	StationarySpeed    float64 // Ball speed below which play counts as stopped
	StationaryGraceSec float64 // Stopped-ball duration before ending grace begins
	RallyGraceSec      float64 // Grace window before a rally is sealed
	MinShotSpeed       float64 // Minimum ball speed for a reversal to count as a shot
	MinShotGapSec      float64 // Debounce between consecutive shots
	ShotProximity      float64 // Max player-ball distance for shot attribution
	ServeProximity     float64 // Max player-ball distance for server attribution

	// Degraded-condition advisories
	ChurnWindowSec float64 // Window over which track terminations are counted
	ChurnRateMax   float64 // Terminations per second above which churn is flagged

	// Court geometry and heatmaps
	Court       CourtBounds
	HeatmapCols int
	HeatmapRows int
}

// DefaultEngineConfig returns production defaults for a doubles match on a
// standard 10x20 m padel court observed at roughly 30 fps.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		GatingDistance: 2.5,
		SizeWeight:     0.5,

		MaxPlayers:         4,
		HitsToConfirm:      3,
		LostAfterMisses:    3,
		MaxMisses:          30,
		TentativeMaxMisses: 3,
		ProcessNoisePos:    0.05,
		ProcessNoiseVel:    0.5,
		MeasurementNoise:   0.1,
		TerminatedGraceSec: 5.0,

		BallProcessNoise:     2.0,
		BallMeasurementNoise: 0.05,
		BallVelocityGain:     1.0,
		BallLostAfterMisses:  10,

		ServeSpeed:         3.0,
		StationarySpeed:    0.5,
		StationaryGraceSec: 0.5,
		RallyGraceSec:      1.5,
		MinShotSpeed:       2.0,
		MinShotGapSec:      0.25,
		ShotProximity:      2.0,
		ServeProximity:     3.0,

		ChurnWindowSec: 10.0,
		ChurnRateMax:   1.0,

		Court:       CourtBounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 20},
		HeatmapCols: 16,
		HeatmapRows: 32,
	}
}

// Validate checks the configuration and returns a *ConfigError for the
// first out-of-range value found.
func (c EngineConfig) Validate() error {
	pos := func(field string, v float64) error {
		if v <= 0 {
			return &ConfigError{Field: field, Reason: fmt.Sprintf("must be positive, got %g", v)}
		}
		return nil
	}
	nonneg := func(field string, v float64) error {
		if v < 0 {
			return &ConfigError{Field: field, Reason: fmt.Sprintf("must not be negative, got %g", v)}
		}
		return nil
	}

	if err := pos("GatingDistance", c.GatingDistance); err != nil {
		return err
	}
	if err := nonneg("SizeWeight", c.SizeWeight); err != nil {
		return err
	}
	if c.MaxPlayers < 1 {
		return &ConfigError{Field: "MaxPlayers", Reason: fmt.Sprintf("must be at least 1, got %d", c.MaxPlayers)}
	}
	if c.HitsToConfirm < 1 {
		return &ConfigError{Field: "HitsToConfirm", Reason: fmt.Sprintf("must be at least 1, got %d", c.HitsToConfirm)}
	}
	if c.LostAfterMisses < 1 {
		return &ConfigError{Field: "LostAfterMisses", Reason: fmt.Sprintf("must be at least 1, got %d", c.LostAfterMisses)}
	}
	if c.MaxMisses < c.LostAfterMisses {
		return &ConfigError{Field: "MaxMisses", Reason: fmt.Sprintf("must be >= LostAfterMisses (%d), got %d", c.LostAfterMisses, c.MaxMisses)}
	}
	if c.TentativeMaxMisses < 1 {
		return &ConfigError{Field: "TentativeMaxMisses", Reason: fmt.Sprintf("must be at least 1, got %d", c.TentativeMaxMisses)}
	}
	if err := pos("ProcessNoisePos", c.ProcessNoisePos); err != nil {
		return err
	}
	if err := pos("ProcessNoiseVel", c.ProcessNoiseVel); err != nil {
		return err
	}
	if err := pos("MeasurementNoise", c.MeasurementNoise); err != nil {
		return err
	}
	if err := nonneg("TerminatedGraceSec", c.TerminatedGraceSec); err != nil {
		return err
	}
	if err := pos("BallProcessNoise", c.BallProcessNoise); err != nil {
		return err
	}
	if err := pos("BallMeasurementNoise", c.BallMeasurementNoise); err != nil {
		return err
	}
	if c.BallVelocityGain <= 0 || c.BallVelocityGain > 1 {
		return &ConfigError{Field: "BallVelocityGain", Reason: fmt.Sprintf("must be in (0, 1], got %g", c.BallVelocityGain)}
	}
	if c.BallLostAfterMisses < 1 {
		return &ConfigError{Field: "BallLostAfterMisses", Reason: fmt.Sprintf("must be at least 1, got %d", c.BallLostAfterMisses)}
	}
	if err := pos("ServeSpeed", c.ServeSpeed); err != nil {
		return err
	}
	if err := pos("StationarySpeed", c.StationarySpeed); err != nil {
		return err
	}
	if c.ServeSpeed <= c.StationarySpeed {
		return &ConfigError{Field: "ServeSpeed", Reason: fmt.Sprintf("must exceed StationarySpeed (%g), got %g", c.StationarySpeed, c.ServeSpeed)}
	}
	if err := nonneg("StationaryGraceSec", c.StationaryGraceSec); err != nil {
		return err
	}
	if err := pos("RallyGraceSec", c.RallyGraceSec); err != nil {
		return err
	}
	if err := pos("MinShotSpeed", c.MinShotSpeed); err != nil {
		return err
	}
	if err := nonneg("MinShotGapSec", c.MinShotGapSec); err != nil {
		return err
	}
	if err := pos("ShotProximity", c.ShotProximity); err != nil {
		return err
	}
	if err := pos("ServeProximity", c.ServeProximity); err != nil {
		return err
	}
	if err := pos("ChurnWindowSec", c.ChurnWindowSec); err != nil {
		return err
	}
	if err := pos("ChurnRateMax", c.ChurnRateMax); err != nil {
		return err
	}
	if c.Court.MaxX <= c.Court.MinX || c.Court.MaxY <= c.Court.MinY {
		return &ConfigError{Field: "Court", Reason: "bounds must have positive extent"}
	}
	if c.HeatmapCols < 1 || c.HeatmapRows < 1 {
		return &ConfigError{Field: "Heatmap", Reason: "grid must be at least 1x1"}
	}
	return nil
}

// Tuning is the optional-field overlay loaded from a JSON tuning file.
// Only fields present in the file override the compiled defaults, so the
// same file can carry a single experiment's deltas.
type Tuning struct {
	GatingDistance *float64 `json:"gating_distance,omitempty"`
	SizeWeight     *float64 `json:"size_weight,omitempty"`

	MaxPlayers         *int     `json:"max_players,omitempty"`
	HitsToConfirm      *int     `json:"hits_to_confirm,omitempty"`
	LostAfterMisses    *int     `json:"lost_after_misses,omitempty"`
	MaxMisses          *int     `json:"max_misses,omitempty"`
	TentativeMaxMisses *int     `json:"tentative_max_misses,omitempty"`
	ProcessNoisePos    *float64 `json:"process_noise_pos,omitempty"`
	ProcessNoiseVel    *float64 `json:"process_noise_vel,omitempty"`
	MeasurementNoise   *float64 `json:"measurement_noise,omitempty"`

	BallProcessNoise     *float64 `json:"ball_process_noise,omitempty"`
	BallMeasurementNoise *float64 `json:"ball_measurement_noise,omitempty"`
	BallVelocityGain     *float64 `json:"ball_velocity_gain,omitempty"`
	BallLostAfterMisses  *int     `json:"ball_lost_after_misses,omitempty"`

	ServeSpeed         *float64 `json:"serve_speed,omitempty"`
	StationarySpeed    *float64 `json:"stationary_speed,omitempty"`
	StationaryGraceSec *float64 `json:"stationary_grace_sec,omitempty"`
	RallyGraceSec      *float64 `json:"rally_grace_sec,omitempty"`
	MinShotSpeed       *float64 `json:"min_shot_speed,omitempty"`
	MinShotGapSec      *float64 `json:"min_shot_gap_sec,omitempty"`
	ShotProximity      *float64 `json:"shot_proximity,omitempty"`
	ServeProximity     *float64 `json:"serve_proximity,omitempty"`

	Court       *CourtBounds `json:"court,omitempty"`
	HeatmapCols *int         `json:"heatmap_cols,omitempty"`
	HeatmapRows *int         `json:"heatmap_rows,omitempty"`
}

// Apply overlays the tuning's set fields onto cfg and returns the result.
func (t *Tuning) Apply(cfg EngineConfig) EngineConfig {
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setI := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setF(&cfg.GatingDistance, t.GatingDistance)
	setF(&cfg.SizeWeight, t.SizeWeight)
	setI(&cfg.MaxPlayers, t.MaxPlayers)
	setI(&cfg.HitsToConfirm, t.HitsToConfirm)
	setI(&cfg.LostAfterMisses, t.LostAfterMisses)
	setI(&cfg.MaxMisses, t.MaxMisses)
	setI(&cfg.TentativeMaxMisses, t.TentativeMaxMisses)
	setF(&cfg.ProcessNoisePos, t.ProcessNoisePos)
	setF(&cfg.ProcessNoiseVel, t.ProcessNoiseVel)
	setF(&cfg.MeasurementNoise, t.MeasurementNoise)
	setF(&cfg.BallProcessNoise, t.BallProcessNoise)
	setF(&cfg.BallMeasurementNoise, t.BallMeasurementNoise)
	setF(&cfg.BallVelocityGain, t.BallVelocityGain)
	setI(&cfg.BallLostAfterMisses, t.BallLostAfterMisses)
	setF(&cfg.ServeSpeed, t.ServeSpeed)
	setF(&cfg.StationarySpeed, t.StationarySpeed)
	setF(&cfg.StationaryGraceSec, t.StationaryGraceSec)
	setF(&cfg.RallyGraceSec, t.RallyGraceSec)
	setF(&cfg.MinShotSpeed, t.MinShotSpeed)
	setF(&cfg.MinShotGapSec, t.MinShotGapSec)
	setF(&cfg.ShotProximity, t.ShotProximity)
	setF(&cfg.ServeProximity, t.ServeProximity)
	if t.Court != nil {
		cfg.Court = *t.Court
	}
	setI(&cfg.HeatmapCols, t.HeatmapCols)
	setI(&cfg.HeatmapRows, t.HeatmapRows)
	return cfg
}

// LoadConfig reads a JSON tuning file and overlays it on the defaults.
// The merged configuration is validated before being returned.
func LoadConfig(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read tuning file: %w", err)
	}

	var tuning Tuning
	if err := json.Unmarshal(data, &tuning); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}

	cfg := tuning.Apply(DefaultEngineConfig())
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}
