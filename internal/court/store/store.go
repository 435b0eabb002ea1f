// Package store persists sealed rallies to SQLite so a finished match
// outlives the engine process. Durability is optional: the engine core
// never touches this package, callers attach a Store as a rally sink
// when they want it.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/rally.report/internal/court"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store handles database operations for rallies and shots.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and brings
// the schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

// migrateUp applies all pending migrations from the embedded set.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// InsertRally writes one sealed rally and its shots in a single
// transaction, returning the rally's row ID.
func (s *Store) InsertRally(sessionID string, r court.Rally) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO rallies (session_id, start_unix, end_unix, server_id, shot_count)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, r.StartUnix, r.EndUnix, nullableID(r.ServerID), len(r.Shots))
	if err != nil {
		return 0, fmt.Errorf("failed to insert rally: %w", err)
	}
	rallyID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read rally id: %w", err)
	}

	for i, shot := range r.Shots {
		_, err := tx.Exec(`
			INSERT INTO shots (rally_id, seq, timestamp_unix, player_id, location_x, location_y, shot_type)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, rallyID, i, shot.Timestamp, nullableID(shot.PlayerID), shot.Location.X, shot.Location.Y, string(shot.Type))
		if err != nil {
			return 0, fmt.Errorf("failed to insert shot %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rally: %w", err)
	}
	return rallyID, nil
}

// ListRallies returns a session's rallies in start order, shots
// included.
func (s *Store) ListRallies(sessionID string) ([]court.Rally, error) {
	rows, err := s.db.Query(`
		SELECT rally_id, start_unix, end_unix, server_id
		FROM rallies
		WHERE session_id = ?
		ORDER BY start_unix
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rallies: %w", err)
	}
	defer rows.Close()

	var rallies []court.Rally
	var ids []int64
	for rows.Next() {
		var id int64
		var r court.Rally
		var server sql.NullInt64
		if err := rows.Scan(&id, &r.StartUnix, &r.EndUnix, &server); err != nil {
			return nil, fmt.Errorf("failed to scan rally: %w", err)
		}
		if server.Valid {
			v := server.Int64
			r.ServerID = &v
		}
		rallies = append(rallies, r)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rally rows failed: %w", err)
	}

	for i, id := range ids {
		shots, err := s.listShots(id)
		if err != nil {
			return nil, err
		}
		rallies[i].Shots = shots
	}
	return rallies, nil
}

func (s *Store) listShots(rallyID int64) ([]court.ShotEvent, error) {
	rows, err := s.db.Query(`
		SELECT timestamp_unix, player_id, location_x, location_y, shot_type
		FROM shots
		WHERE rally_id = ?
		ORDER BY seq
	`, rallyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shots: %w", err)
	}
	defer rows.Close()

	var shots []court.ShotEvent
	for rows.Next() {
		var shot court.ShotEvent
		var player sql.NullInt64
		var shotType string
		if err := rows.Scan(&shot.Timestamp, &player, &shot.Location.X, &shot.Location.Y, &shotType); err != nil {
			return nil, fmt.Errorf("failed to scan shot: %w", err)
		}
		if player.Valid {
			v := player.Int64
			shot.PlayerID = &v
		}
		shot.Type = court.ShotType(shotType)
		shots = append(shots, shot)
	}
	return shots, rows.Err()
}

// SessionSummary aggregates one stored session.
type SessionSummary struct {
	SessionID    string  `json:"session_id"`
	RallyCount   int     `json:"rally_count"`
	ShotCount    int     `json:"shot_count"`
	AvgRallySec  float64 `json:"avg_rally_sec"`
	P50RallySec  float64 `json:"p50_rally_sec"`
	P95RallySec  float64 `json:"p95_rally_sec"`
	LongestSec   float64 `json:"longest_sec"`
	UnknownShots int     `json:"unknown_shots"`
}

// Summary computes aggregate statistics for a stored session.
func (s *Store) Summary(sessionID string) (SessionSummary, error) {
	summary := SessionSummary{SessionID: sessionID}

	rows, err := s.db.Query(`
		SELECT end_unix - start_unix, shot_count
		FROM rallies
		WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return summary, fmt.Errorf("failed to query rally durations: %w", err)
	}
	defer rows.Close()

	var durations []float64
	for rows.Next() {
		var dur float64
		var shots int
		if err := rows.Scan(&dur, &shots); err != nil {
			return summary, fmt.Errorf("failed to scan duration: %w", err)
		}
		durations = append(durations, dur)
		summary.ShotCount += shots
	}
	if err := rows.Err(); err != nil {
		return summary, fmt.Errorf("duration rows failed: %w", err)
	}

	summary.RallyCount = len(durations)
	if len(durations) > 0 {
		sort.Float64s(durations)
		summary.AvgRallySec = stat.Mean(durations, nil)
		summary.P50RallySec = stat.Quantile(0.50, stat.Empirical, durations, nil)
		summary.P95RallySec = stat.Quantile(0.95, stat.Empirical, durations, nil)
		summary.LongestSec = durations[len(durations)-1]
	}

	err = s.db.QueryRow(`
		SELECT COUNT(*)
		FROM shots
		JOIN rallies USING (rally_id)
		WHERE rallies.session_id = ? AND shots.player_id IS NULL
	`, sessionID).Scan(&summary.UnknownShots)
	if err != nil {
		return summary, fmt.Errorf("failed to count unknown shots: %w", err)
	}

	return summary, nil
}

// Sink adapts the store into a court.RallySink bound to one session, so
// rallies persist the moment they seal. Insert failures are logged, not
// propagated: a dead disk must not halt live tracking.
func (s *Store) Sink(sessionID string) court.RallySink {
	return &rallySink{store: s, sessionID: sessionID}
}

type rallySink struct {
	store     *Store
	sessionID string
}

func (k *rallySink) RallySealed(r court.Rally) {
	if _, err := k.store.InsertRally(k.sessionID, r); err != nil {
		log.Printf("failed to persist rally [%.3f, %.3f): %v", r.StartUnix, r.EndUnix, err)
	}
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
