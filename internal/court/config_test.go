package court

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, DefaultEngineConfig().Validate())
	})

	mutations := []struct {
		name   string
		field  string
		mutate func(*EngineConfig)
	}{
		{"negative gating distance", "GatingDistance", func(c *EngineConfig) { c.GatingDistance = -1 }},
		{"zero max players", "MaxPlayers", func(c *EngineConfig) { c.MaxPlayers = 0 }},
		{"max misses below lost threshold", "MaxMisses", func(c *EngineConfig) { c.MaxMisses = c.LostAfterMisses - 1 }},
		{"velocity gain above one", "BallVelocityGain", func(c *EngineConfig) { c.BallVelocityGain = 1.5 }},
		{"serve speed below stationary speed", "ServeSpeed", func(c *EngineConfig) { c.ServeSpeed = 0.2 }},
		{"negative rally grace", "RallyGraceSec", func(c *EngineConfig) { c.RallyGraceSec = -0.5 }},
		{"inverted court bounds", "Court", func(c *EngineConfig) { c.Court.MaxX = c.Court.MinX }},
		{"empty heatmap grid", "Heatmap", func(c *EngineConfig) { c.HeatmapCols = 0 }},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultEngineConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestTuningApply(t *testing.T) {
	t.Parallel()

	serve := 5.0
	maxPlayers := 2
	tuning := Tuning{
		ServeSpeed: &serve,
		MaxPlayers: &maxPlayers,
	}

	cfg := tuning.Apply(DefaultEngineConfig())
	assert.Equal(t, 5.0, cfg.ServeSpeed)
	assert.Equal(t, 2, cfg.MaxPlayers)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultEngineConfig().GatingDistance, cfg.GatingDistance)
	assert.Equal(t, DefaultEngineConfig().RallyGraceSec, cfg.RallyGraceSec)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	writeTuning := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "tuning.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("overlays file values onto defaults", func(t *testing.T) {
		t.Parallel()
		path := writeTuning(t, `{
			"serve_speed": 4.5,
			"max_players": 2,
			"court": {"min_x": 0, "min_y": 0, "max_x": 6, "max_y": 13}
		}`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 4.5, cfg.ServeSpeed)
		assert.Equal(t, 2, cfg.MaxPlayers)
		assert.Equal(t, CourtBounds{MaxX: 6, MaxY: 13}, cfg.Court)
		assert.Equal(t, DefaultEngineConfig().MinShotSpeed, cfg.MinShotSpeed)
	})

	t.Run("rejects a merge that fails validation", func(t *testing.T) {
		t.Parallel()
		path := writeTuning(t, `{"serve_speed": 0.1}`)

		_, err := LoadConfig(path)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "ServeSpeed", cfgErr.Field)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()
		path := writeTuning(t, `{"serve_speed": `)
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "failed to parse tuning file")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorContains(t, err, "failed to read tuning file")
	})
}
