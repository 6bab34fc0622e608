package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	Load()
	assert.Equal(t, "http://localhost:8000/api", APIBaseURL())
	assert.InDelta(t, 0.5, VisibleThreshold(), 0.0001)
	assert.Equal(t, time.Second, MinWatch())
	assert.Equal(t, uint64(2), ViewRetries())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FEED_API_URL", "https://api.example.com/v1")
	t.Setenv("VISIBLE_THRESHOLD", "0.75")
	t.Setenv("MIN_WATCH", "2s")
	t.Setenv("VIEW_RETRIES", "5")

	Load()
	assert.Equal(t, "https://api.example.com/v1", APIBaseURL())
	assert.InDelta(t, 0.75, VisibleThreshold(), 0.0001)
	assert.Equal(t, 2*time.Second, MinWatch())
	assert.Equal(t, uint64(5), ViewRetries())
}

func TestLoadIgnoresBadThreshold(t *testing.T) {
	t.Setenv("VISIBLE_THRESHOLD", "1.5")
	before := VisibleThreshold()
	Load()
	assert.InDelta(t, before, VisibleThreshold(), 0.0001)
}

func TestLoadIgnoresNegativeRetries(t *testing.T) {
	t.Setenv("VIEW_RETRIES", "-1")
	before := ViewRetries()
	Load()
	assert.Equal(t, before, ViewRetries())
}
