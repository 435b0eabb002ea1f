package court

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticMatch(t *testing.T) {
	t.Parallel()
	bounds := DefaultEngineConfig().Court

	t.Run("same seed yields identical frames", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultSynthConfig()
		cfg.Jitter = 0.05

		a := NewSyntheticMatch(cfg, bounds).Frames()
		b := NewSyntheticMatch(cfg, bounds).Frames()
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("generator is not deterministic:\n%s", diff)
		}
	})

	t.Run("timestamps strictly increase", func(t *testing.T) {
		t.Parallel()
		frames := NewSyntheticMatch(DefaultSynthConfig(), bounds).Frames()
		require.NotEmpty(t, frames)
		for i := 1; i < len(frames); i++ {
			assert.Greater(t, frames[i].TimestampUnix, frames[i-1].TimestampUnix)
		}
	})

	t.Run("every frame carries the configured players", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultSynthConfig()
		cfg.Players = 2
		for _, f := range NewSyntheticMatch(cfg, bounds).Frames() {
			assert.Len(t, f.PlayerDetections(), 2)
		}
	})

	t.Run("drop-every punches gaps in the ball feed", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultSynthConfig()
		cfg.BallDropEvery = 5

		var withBall, withoutBall int
		for _, f := range NewSyntheticMatch(cfg, bounds).Frames() {
			if f.BallDetection() != nil {
				withBall++
			} else {
				withoutBall++
			}
		}
		assert.NotZero(t, withoutBall)
		assert.Greater(t, withBall, withoutBall*3)
	})
}
