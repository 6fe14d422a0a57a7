package infra

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache[[]string](time.Minute)
	c.Set("ai tokens", []string{"NEURAL", "QLAP"})

	v, ok := c.Get("ai tokens")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(v) != 2 || v[0] != "NEURAL" {
		t.Errorf("unexpected value: %v", v)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache[int](time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", 42)
	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Fatalf("expected 42, got %d (ok=%v)", v, ok)
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to be expired")
	}

	c.SetWithTTL("fresh", 7, time.Hour)
	if dropped := c.Cleanup(); dropped != 1 {
		t.Errorf("expected one expired entry dropped, got %d", dropped)
	}
	if c.Len() != 1 {
		t.Errorf("expected only the fresh entry to remain, len=%d", c.Len())
	}
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache[int](0)
	c.Set("k", 1)
	if _, ok := c.Get("k"); ok {
		t.Error("zero TTL cache must not store values")
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	if !rl.Allow() || !rl.Allow() {
		t.Fatal("expected first two calls to pass")
	}
	if rl.Allow() {
		t.Error("expected third call to be limited")
	}
}

func TestRateLimiterUnlimitedRefill(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("call %d should pass with no refill period", i)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("debug", "json", &buf)
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level: got %v, want debug", log.GetLevel())
	}

	Component(log, "engine").Debug("hello")
	out := buf.String()
	if !strings.Contains(out, `"component":"engine"`) {
		t.Errorf("expected component field in JSON output, got %q", out)
	}
}

func TestNewLoggerBadLevel(t *testing.T) {
	log := NewLogger("verbose", "text", nil)
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("unknown level should fall back to info, got %v", log.GetLevel())
	}
}
