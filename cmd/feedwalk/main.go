package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"shortfeed/internal/config"
	"shortfeed/internal/feed"
	"shortfeed/internal/gateway"
	"shortfeed/internal/telemetry"
)

// feedwalk walks a live feed end to end: load, scroll item by item, like the
// first video, and flush watch telemetry on the way out. Handy for smoke
// testing the engine against a real backend.
func main() {
	_ = godotenv.Load(".env")

	config.Load()
	config.SetupLogging()

	gw := &gateway.Client{
		BaseURL: config.APIBaseURL(),
		Token:   func() string { return config.APIToken() },
		HTTP:    &http.Client{Timeout: config.HTTPTimeout()},
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var spool *telemetry.Spool
	if p := config.SpoolPath(); p != "" {
		s, err := telemetry.OpenSpool(rootCtx, p)
		if err != nil {
			log.Printf("[boot] spool disabled, open %q: %v", p, err)
		} else {
			spool = s
		}
	}

	batcher := telemetry.NewBatcher(gw, spool, config.ViewQueueSize(), config.ViewRetries(), config.ViewBackoff())
	if err := batcher.Restore(rootCtx); err != nil {
		log.Printf("[spool] restore: %v", err)
	}

	eng := feed.NewEngine(gw, batcher, config.VisibleThreshold(),
		func(videoID string, err error) {
			log.Printf("[engage] toast for video=%s: %v", videoID, err)
		},
		feed.WithMinWatch(config.MinWatch()),
	)

	if err := eng.LoadInitial(rootCtx); err != nil {
		log.Fatalf("load feed: %v", err)
	}

	dwell := 2 * time.Second
	if v := os.Getenv("WALK_DWELL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dwell = d
		}
	}

	recs := eng.Records()
	log.Printf("[boot] walking %d videos, dwell=%s api=%s", len(recs), dwell, config.APIBaseURL())

walk:
	for i, rec := range recs {
		eng.Report([]feed.VisibleItem{{Index: i, Fraction: 1.0}})
		eng.Settle()
		if epoch, ok := eng.SessionEpoch(rec.ID); ok {
			eng.MediaReady(rec.ID, epoch)
		}
		if i == 0 {
			if err := eng.ToggleLike(rootCtx, rec.ID); err != nil {
				log.Printf("[engage] like: %v", err)
			}
		}
		select {
		case <-time.After(dwell):
		case <-rootCtx.Done():
			break walk
		}
	}

	eng.Close()

	flushCtx, cancel := context.WithTimeout(context.Background(), config.FlushTimeout())
	defer cancel()
	if err := batcher.Close(flushCtx); err != nil {
		log.Printf("[view] flush incomplete: %v", err)
	}
	if spool != nil {
		_ = spool.Close()
	}
	log.Printf("[boot] done")
}
