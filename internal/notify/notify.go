// Package notify implements a single-slot, timed notification mailbox. A
// new post replaces whatever is showing; every notification clears itself
// when its TTL runs out.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lokeshwaran100/ic-swipe/internal/infra"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// EventType says what happened to the slot.
type EventType string

const (
	EventPosted    EventType = "posted"
	EventDismissed EventType = "dismissed"
	EventExpired   EventType = "expired"
)

// Event is delivered to subscribers on every slot change.
type Event struct {
	Type         EventType           `json:"type"`
	Notification models.Notification `json:"notification"`
}

// Timer is the part of *time.Timer the channel needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// Channel is safe for concurrent use.
type Channel struct {
	mu      sync.Mutex
	current *models.Notification
	gen     uint64 // bumped on every replace/clear; stale timers compare against it
	timer   Timer
	closed  bool

	defaultTTL time.Duration
	afterFunc  AfterFunc
	now        func() time.Time

	subs    map[int]chan Event
	nextSub int

	log *logrus.Entry
}

// Option configures a Channel.
type Option func(*Channel)

// WithDefaultTTL sets the TTL for notifications that carry none.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.defaultTTL = d
		}
	}
}

// WithAfterFunc replaces the timer factory, for tests.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Channel) { c.afterFunc = f }
}

// WithClock overrides the time source used for PostedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) { c.now = now }
}

// WithLogger sets the channel's logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Channel) { c.log = infra.Component(log, "notify") }
}

// NewChannel creates an empty channel.
func NewChannel(opts ...Option) *Channel {
	c := &Channel{
		defaultTTL: models.DefaultNotificationTTL,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now:  time.Now,
		subs: make(map[int]chan Event),
		log:  infra.Component(nil, "notify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post replaces the current notification and restarts the countdown. It
// fills in ID, PostedAt and TTL when unset and returns the stored value.
func (c *Channel) Post(n models.Notification) models.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.TTL <= 0 {
		n.TTL = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return n
	}
	n.PostedAt = c.now()

	c.stopTimerLocked()
	c.gen++
	gen := c.gen
	stored := n
	c.current = &stored
	c.timer = c.afterFunc(n.TTL, func() { c.expire(gen) })

	c.log.WithFields(logrus.Fields{"kind": n.Kind, "title": n.Title}).Debug("notification posted")
	c.publishLocked(Event{Type: EventPosted, Notification: n})
	return n
}

// Dismiss clears the current notification immediately.
func (c *Channel) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	n := *c.current
	c.stopTimerLocked()
	c.gen++
	c.current = nil
	c.publishLocked(Event{Type: EventDismissed, Notification: n})
}

// Current returns the live notification, if any.
func (c *Channel) Current() (models.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return models.Notification{}, false
	}
	return *c.current, true
}

// Subscribe returns a channel of slot events and a cancel func. Slow
// subscribers miss events rather than block the poster.
func (c *Channel) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close stops the pending timer and closes every subscriber.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.gen++
	c.current = nil
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

func (c *Channel) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.current == nil {
		return
	}
	n := *c.current
	c.current = nil
	c.timer = nil
	c.publishLocked(Event{Type: EventExpired, Notification: n})
}

func (c *Channel) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) publishLocked(ev Event) {
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.log.WithField("subscriber", id).Debug("subscriber full, event dropped")
		}
	}
}

// ── Constructors ──

// Success builds a success notification.
func Success(title, message string, ttl time.Duration) models.Notification {
	return models.Notification{Kind: models.NotifySuccess, Title: title, Message: message, TTL: ttl}
}

// Error builds an error notification.
func Error(title, message string, ttl time.Duration) models.Notification {
	return models.Notification{Kind: models.NotifyError, Title: title, Message: message, TTL: ttl}
}

// Info builds an informational notification.
func Info(title, message string, ttl time.Duration) models.Notification {
	return models.Notification{Kind: models.NotifyInfo, Title: title, Message: message, TTL: ttl}
}
