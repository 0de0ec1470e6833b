// Package notify raises desktop notifications for track changes and
// playback problems.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
)

// SendFunc delivers one notification.
type SendFunc func(title, body string) error

// Desktop sends through the OS notification service.
func Desktop(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Notifier rate-limits notifications. Errors always go through; track
// changes within the cooldown of the previous one are dropped.
type Notifier struct {
	mu       sync.Mutex
	enabled  bool
	cooldown time.Duration
	send     SendFunc
	now      func() time.Time
	last     time.Time
}

func New(enabled bool, cooldown time.Duration, send SendFunc) *Notifier {
	if send == nil {
		send = Desktop
	}
	return &Notifier{enabled: enabled, cooldown: cooldown, send: send, now: time.Now}
}

// TrackChanged announces the track now playing.
func (n *Notifier) TrackChanged(title, artist string) bool {
	if n == nil || !n.enabled {
		return false
	}
	n.mu.Lock()
	now := n.now()
	if !n.last.IsZero() && now.Sub(n.last) < n.cooldown {
		n.mu.Unlock()
		return false
	}
	n.last = now
	n.mu.Unlock()

	body := title
	if artist != "" {
		body = fmt.Sprintf("%s - %s", title, artist)
	}
	n.deliver("Now playing", body)
	return true
}

// Problem reports a warning or error regardless of cooldown.
func (n *Notifier) Problem(msg string) bool {
	if n == nil || !n.enabled {
		return false
	}
	n.deliver("crossfader", msg)
	return true
}

func (n *Notifier) deliver(title, body string) {
	if err := n.send(title, body); err != nil {
		slog.Warn("notification failed", "title", title, "body", body, "error", err)
	}
}
