package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// fakeClock hands out manual timers that fire only when told to.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs timer i even if it was stopped, like a timer that raced Stop.
func (c *fakeClock) fire(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	t.f()
}

func newTestChannel() (*Channel, *fakeClock) {
	fc := &fakeClock{}
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ch := NewChannel(WithAfterFunc(fc.AfterFunc), WithClock(func() time.Time { return fixed }))
	return ch, fc
}

func TestPostFillsDefaults(t *testing.T) {
	ch, fc := newTestChannel()

	got := ch.Post(Info("Token Skipped 👍", "Passed on Dogecoin", 0))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, models.DefaultNotificationTTL, got.TTL)
	assert.Equal(t, 2025, got.PostedAt.Year())
	require.Len(t, fc.timers, 1)
	assert.Equal(t, 3*time.Second, fc.timers[0].d)

	cur, ok := ch.Current()
	require.True(t, ok)
	assert.Equal(t, got, cur)
}

func TestPostReplacesAndStaleTimerIsIgnored(t *testing.T) {
	ch, fc := newTestChannel()

	ch.Post(Error("Swap Failed", "slippage", 4*time.Second))
	second := ch.Post(Success("Token Purchased! 🚀", "ok", 5*time.Second))

	require.Len(t, fc.timers, 2)
	assert.True(t, fc.timers[0].stopped)

	// The first countdown firing late must not clear its successor.
	fc.fire(0)
	cur, ok := ch.Current()
	require.True(t, ok)
	assert.Equal(t, second.ID, cur.ID)

	fc.fire(1)
	_, ok = ch.Current()
	assert.False(t, ok)
}

func TestDismiss(t *testing.T) {
	ch, fc := newTestChannel()
	ch.Dismiss()

	ch.Post(Info("a", "b", time.Second))
	ch.Dismiss()
	_, ok := ch.Current()
	assert.False(t, ok)
	assert.True(t, fc.timers[0].stopped)

	fc.fire(0)
	_, ok = ch.Current()
	assert.False(t, ok)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	ch, fc := newTestChannel()
	events, cancel := ch.Subscribe(8)
	defer cancel()

	n := ch.Post(Info("a", "b", time.Second))
	fc.fire(0)
	ch.Post(Info("c", "d", time.Second))
	ch.Dismiss()

	want := []EventType{EventPosted, EventExpired, EventPosted, EventDismissed}
	for i, typ := range want {
		ev := <-events
		assert.Equal(t, typ, ev.Type, "event %d", i)
		if i < 2 {
			assert.Equal(t, n.ID, ev.Notification.ID)
		}
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	ch, _ := newTestChannel()
	events, cancel := ch.Subscribe(1)

	ch.Post(Info("1", "", 0))
	ch.Post(Info("2", "", 0))

	ev := <-events
	assert.Equal(t, "1", ev.Notification.Title)
	select {
	case extra := <-events:
		t.Fatalf("unexpected buffered event: %+v", extra)
	default:
	}

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)
}

func TestCloseStopsEverything(t *testing.T) {
	ch, fc := newTestChannel()
	events, _ := ch.Subscribe(4)
	ch.Post(Info("a", "b", time.Second))
	<-events

	ch.Close()
	ch.Close()
	assert.True(t, fc.timers[0].stopped)
	_, open := <-events
	assert.False(t, open)

	ch.Post(Info("late", "", 0))
	_, ok := ch.Current()
	assert.False(t, ok)

	late, _ := ch.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

func TestRealTimerExpires(t *testing.T) {
	ch := NewChannel()
	events, cancel := ch.Subscribe(4)
	defer cancel()

	ch.Post(Info("short", "", 20*time.Millisecond))
	<-events

	select {
	case ev := <-events:
		assert.Equal(t, EventExpired, ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("notification never expired")
	}
	_, ok := ch.Current()
	assert.False(t, ok)
}
