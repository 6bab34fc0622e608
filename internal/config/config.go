package config

import (
	"os"
	"strconv"
	"time"
)

var (
	apiBaseURL  = "http://localhost:8000/api"
	apiToken    = ""
	httpTimeout = 10 * time.Second

	visibleThreshold = 0.5
	minWatch         = 1 * time.Second

	viewRetries   uint64 = 2
	viewBackoff          = 250 * time.Millisecond
	viewQueueSize        = 64
	flushTimeout         = 5 * time.Second

	spoolPath = "./feed-spool.db" // empty disables the spool

	// logging
	logFilePath   = ""
	logAllowRegex = `^\[(boot|feed|engage|player|tracker|view|gateway|spool)\]`
	logDenyRegex  = ``
	logDedupWin   = 3 * time.Second
)

func Load() {
	apiBaseURL = getenv("FEED_API_URL", apiBaseURL)
	apiToken = getenv("FEED_API_TOKEN", apiToken)
	httpTimeout = getenvDuration("FEED_HTTP_TIMEOUT", httpTimeout)

	if v := getenv("VISIBLE_THRESHOLD", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			visibleThreshold = f
		}
	}
	minWatch = getenvDuration("MIN_WATCH", minWatch)

	if n := getenvInt64("VIEW_RETRIES", int64(viewRetries)); n >= 0 {
		viewRetries = uint64(n)
	}
	viewBackoff = getenvDuration("VIEW_BACKOFF", viewBackoff)
	viewQueueSize = int(getenvInt64("VIEW_QUEUE_SIZE", int64(viewQueueSize)))
	flushTimeout = getenvDuration("VIEW_FLUSH_TIMEOUT", flushTimeout)

	spoolPath = getenv("SPOOL_PATH", spoolPath)

	logFilePath = getenv("LOG_FILE", logFilePath)
	logAllowRegex = getenv("LOG_ALLOW", logAllowRegex)
	logDenyRegex = getenv("LOG_DENY", logDenyRegex)
	logDedupWin = getenvDuration("LOG_DEDUP_WINDOW", logDedupWin)
}

// getters
func APIBaseURL() string             { return apiBaseURL }
func APIToken() string               { return apiToken }
func HTTPTimeout() time.Duration     { return httpTimeout }
func VisibleThreshold() float64      { return visibleThreshold }
func MinWatch() time.Duration        { return minWatch }
func ViewRetries() uint64            { return viewRetries }
func ViewBackoff() time.Duration     { return viewBackoff }
func ViewQueueSize() int             { return viewQueueSize }
func FlushTimeout() time.Duration    { return flushTimeout }
func SpoolPath() string              { return spoolPath }
func LogFilePath() string            { return logFilePath }
func LogAllowRegex() string          { return logAllowRegex }
func LogDenyRegex() string           { return logDenyRegex }
func LogDedupWindow() time.Duration  { return logDedupWin }

// helpers
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func getenvInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
