// Command gen-frames generates synthetic detection-frame recordings
// (NDJSON) for testing replay and the tracking engine.
package main

import (
	"bufio"
	"flag"
	"log"
	"os"

	json "github.com/goccy/go-json"

	"github.com/banshee-data/rally.report/internal/court"
)

func main() {
	output := flag.String("o", "match.ndjson", "output path")
	rallies := flag.Int("rallies", 3, "number of rallies")
	shots := flag.Int("shots", 6, "shots per rally, serve included")
	players := flag.Int("players", 4, "players on court")
	fps := flag.Float64("fps", 30, "frames per second")
	seed := flag.Int64("seed", 1, "noise seed")
	jitter := flag.Float64("jitter", 0, "detection noise amplitude in court units")
	dropEvery := flag.Int("drop-every", 0, "omit every Nth ball detection (0 disables)")
	flag.Parse()

	cfg := court.DefaultSynthConfig()
	cfg.Rallies = *rallies
	cfg.ShotsPerRally = *shots
	cfg.Players = *players
	cfg.FPS = *fps
	cfg.Seed = *seed
	cfg.Jitter = *jitter
	cfg.BallDropEvery = *dropEvery

	match := court.NewSyntheticMatch(cfg, court.DefaultEngineConfig().Court)
	frames := match.Frames()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, frame := range frames {
		line, err := json.Marshal(frame)
		if err != nil {
			log.Fatalf("Failed to encode frame: %v", err)
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	log.Printf("✓ Created %s: %d frames, %d rallies", *output, len(frames), *rallies)
}
