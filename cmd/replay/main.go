// Command replay feeds a recorded detection-frame file (NDJSON, one
// frame per line) through the tracking engine and reports the resulting
// match statistics. Optionally persists sealed rallies to SQLite and
// renders heatmap charts to HTML.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	json "github.com/goccy/go-json"

	"github.com/banshee-data/rally.report/internal/court"
	"github.com/banshee-data/rally.report/internal/court/report"
	"github.com/banshee-data/rally.report/internal/court/store"
)

// maxFrameLine bounds a single NDJSON line; a crowded frame is a few KB.
const maxFrameLine = 1 << 20

func main() {
	input := flag.String("input", "", "NDJSON detection frames to replay (required)")
	tuning := flag.String("tuning", "", "optional JSON tuning file overlaying engine defaults")
	dbPath := flag.String("db", "", "optional SQLite path to persist sealed rallies")
	chartsPath := flag.String("charts", "", "optional HTML path for heatmap/rally charts")
	sessionLabel := flag.String("session", "", "session ID for persistence (default: generated)")
	dumpJSON := flag.Bool("json", false, "print the final snapshot as JSON")
	progressEvery := flag.Int("progress", 300, "log progress every N frames (0 disables)")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := court.DefaultEngineConfig()
	if *tuning != "" {
		var err error
		cfg, err = court.LoadConfig(*tuning)
		if err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
	}

	var db *store.Store
	if *dbPath != "" {
		var err error
		db, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open rally store: %v", err)
		}
		defer db.Close()
	}

	session, err := court.NewSession(cfg)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	sessionID := session.ID()
	if *sessionLabel != "" {
		sessionID = *sessionLabel
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxFrameLine)

	frames := 0
	persisted := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frame court.Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			log.Fatalf("Bad frame at line %d: %v", frames+1, err)
		}
		if err := session.Advance(frame); err != nil {
			log.Fatalf("Frame %d rejected: %v", frames+1, err)
		}
		frames++

		// Persist rallies as they seal so an interrupted replay keeps
		// what it finished.
		if db != nil {
			snap := session.Snapshot()
			for persisted < len(snap.Rallies) {
				if _, err := db.InsertRally(sessionID, snap.Rallies[persisted]); err != nil {
					log.Fatalf("Failed to persist rally %d: %v", persisted+1, err)
				}
				persisted++
			}
		}

		if *progressEvery > 0 && frames%*progressEvery == 0 {
			snap := session.Snapshot()
			log.Printf("%d frames, %d rallies, phase=%s", frames, snap.RallyCount, snap.Phase)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	snap := session.Snapshot()
	printSummary(snap, frames)

	if db != nil {
		summary, err := db.Summary(sessionID)
		if err != nil {
			log.Fatalf("Failed to summarise stored session: %v", err)
		}
		log.Printf("Stored session %s: %d rallies, %d shots", sessionID, summary.RallyCount, summary.ShotCount)
	}

	if *chartsPath != "" {
		if err := report.RenderFile(snap, *chartsPath); err != nil {
			log.Fatalf("Failed to render charts: %v", err)
		}
		log.Printf("Charts written to %s", *chartsPath)
	}

	if *dumpJSON {
		out, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode snapshot: %v", err)
		}
		fmt.Println(string(out))
	}
}

func printSummary(snap *court.MatchSnapshot, frames int) {
	log.Printf("Replayed %d frames (last timestamp %.3f)", frames, snap.LastTimestampUnix)
	log.Printf("Rallies: %d  (P50 %.2fs, P85 %.2fs, P95 %.2fs)",
		snap.RallyCount, snap.RallyQuantiles.P50, snap.RallyQuantiles.P85, snap.RallyQuantiles.P95)
	for _, ps := range snap.Players {
		log.Printf("  player %d: %d shots (%d serves), zones %v",
			ps.PlayerID, ps.Shots, ps.Serves, ps.Zones)
	}
	if snap.UnknownShots > 0 {
		log.Printf("  unattributed shots: %d", snap.UnknownShots)
	}
	if snap.Flags.BallLost || snap.Flags.TrackChurnHigh || snap.Flags.DetectionOverflow {
		log.Printf("  advisories: ball_lost=%t churn=%t overflow=%t",
			snap.Flags.BallLost, snap.Flags.TrackChurnHigh, snap.Flags.DetectionOverflow)
	}
}
