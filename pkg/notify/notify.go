package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Error   Level = "error"
)

// Notice is a transient user-visible message, rendered as a toast.
type Notice struct {
	Level       Level     `json:"level"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	At          time.Time `json:"at"`
}

func (n Notice) String() string {
	if n.Description == "" {
		return n.Message
	}
	return fmt.Sprintf("%s: %s", n.Message, n.Description)
}

// Notifier is what components use to surface notices.
type Notifier interface {
	Notify(level Level, message, description string)
}

// Bus fans notices out to every subscriber. A slow subscriber misses
// notices rather than blocking the publisher.
type Bus struct {
	log  *slog.Logger
	mu   sync.RWMutex
	subs map[chan Notice]struct{}
}

// NewBus creates a Bus. Every notice is also logged.
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		log:  log.With("component", "notify"),
		subs: make(map[chan Notice]struct{}),
	}
}

// Notify publishes a notice stamped with the current time.
func (b *Bus) Notify(level Level, message, description string) {
	b.Publish(Notice{Level: level, Message: message, Description: description, At: time.Now()})
}

// Publish delivers n to all current subscribers.
func (b *Bus) Publish(n Notice) {
	if n.Level == Error {
		b.log.Warn(n.Message, "description", n.Description)
	} else {
		b.log.Debug(n.Message, "level", string(n.Level))
	}

	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- n:
		default:
			// subscriber is behind; drop
		}
	}
	b.mu.RUnlock()
}

// Subscribe returns a buffered channel that receives all new notices.
func (b *Bus) Subscribe() chan Notice {
	ch := make(chan Notice, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Notice) {
	b.mu.Lock()
	_, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Discard is a Notifier that drops everything.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Level, string, string) {}
