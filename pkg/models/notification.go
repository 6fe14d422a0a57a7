package models

import (
	"encoding/json"
	"time"
)

// NotificationKind selects the visual treatment of a notification.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// DefaultNotificationTTL applies when a notification does not set its own TTL.
const DefaultNotificationTTL = 3 * time.Second

// Notification is a transient, timed user-facing message.
type Notification struct {
	ID       string           `json:"id"`
	Kind     NotificationKind `json:"kind"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	TTL      time.Duration    `json:"-"`
	PostedAt time.Time        `json:"posted_at"`
}

// EffectiveTTL returns TTL, or DefaultNotificationTTL when unset.
func (n Notification) EffectiveTTL() time.Duration {
	if n.TTL <= 0 {
		return DefaultNotificationTTL
	}
	return n.TTL
}

// MarshalJSON renders the TTL in milliseconds for front-ends.
func (n Notification) MarshalJSON() ([]byte, error) {
	type plain Notification
	return json.Marshal(struct {
		plain
		TTLMillis int64 `json:"ttl_ms"`
	}{plain(n), n.EffectiveTTL().Milliseconds()})
}
