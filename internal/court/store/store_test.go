package store

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rally.report/internal/court"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "rallies.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func idPtr(id int64) *int64 { return &id }

func sampleRally(start float64) court.Rally {
	return court.Rally{
		StartUnix: start,
		EndUnix:   start + 8.5,
		ServerID:  idPtr(1),
		Shots: []court.ShotEvent{
			{Timestamp: start, PlayerID: idPtr(1), Location: court.Point{X: 2, Y: 4}, Type: court.ShotServe},
			{Timestamp: start + 1.2, PlayerID: idPtr(3), Location: court.Point{X: 7, Y: 16}, Type: court.ShotRally},
			{Timestamp: start + 2.4, PlayerID: nil, Location: court.Point{X: 5, Y: 10}, Type: court.ShotRally},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	first := sampleRally(100)
	second := sampleRally(120)
	second.ServerID = nil
	second.Shots = second.Shots[:1]
	second.Shots[0].PlayerID = nil

	_, err := s.InsertRally("session-a", first)
	require.NoError(t, err)
	_, err = s.InsertRally("session-a", second)
	require.NoError(t, err)

	// A different session must not bleed in.
	_, err = s.InsertRally("session-b", sampleRally(50))
	require.NoError(t, err)

	got, err := s.ListRallies("session-a")
	require.NoError(t, err)
	require.Len(t, got, 2)

	if diff := cmp.Diff([]court.Rally{first, second}, got); diff != "" {
		t.Errorf("stored rallies mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, got[1].ServerID)
	assert.Nil(t, got[1].Shots[0].PlayerID)
}

func TestStoreListEmptySession(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	got, err := s.ListRallies("nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreSummary(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	// Four rallies of 4, 8, 12 and 16 seconds.
	for i, dur := range []float64{4, 8, 12, 16} {
		r := sampleRally(float64(100 + i*30))
		r.EndUnix = r.StartUnix + dur
		_, err := s.InsertRally("session-a", r)
		require.NoError(t, err)
	}

	summary, err := s.Summary("session-a")
	require.NoError(t, err)

	assert.Equal(t, "session-a", summary.SessionID)
	assert.Equal(t, 4, summary.RallyCount)
	assert.Equal(t, 12, summary.ShotCount)
	assert.Equal(t, 4, summary.UnknownShots, "one unattributed shot per rally")
	assert.InDelta(t, 10, summary.AvgRallySec, 1e-9)
	assert.InDelta(t, 8, summary.P50RallySec, 1e-9)
	assert.InDelta(t, 16, summary.P95RallySec, 1e-9)
	assert.InDelta(t, 16, summary.LongestSec, 1e-9)
}

func TestStoreSummaryEmpty(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	summary, err := s.Summary("nope")
	require.NoError(t, err)
	assert.Zero(t, summary.RallyCount)
	assert.Zero(t, summary.AvgRallySec)
}

func TestStoreSink(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	var sink court.RallySink = s.Sink("session-a")
	sink.RallySealed(sampleRally(100))
	sink.RallySealed(sampleRally(120))

	got, err := s.ListRallies("session-a")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStoreReopenKeepsData(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rallies.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.InsertRally("session-a", sampleRally(100))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening re-runs migrations as a no-op and keeps the rows.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.ListRallies("session-a")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
