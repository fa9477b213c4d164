package roles

import (
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"
)

// Subscriber is the subscribe capability of a message transport.
// *mqtt.Client and *broker.Client satisfy it.
type Subscriber interface {
	Subscribe(filter string, qos byte, handler mqtt.MessageHandler) error
}

// Sink consumes decoded messages.
type Sink func(Received)

// ListenerStats counts what a listener received.
type ListenerStats struct {
	Received   int64
	Malformed  int64
	ByCategory map[Category]int64
}

// Listener subscribes a profile and decodes every delivered message.
type Listener struct {
	profile Profile
	sink    Sink
	now     func() time.Time

	mu    sync.Mutex
	stats ListenerStats
}

// NewListener creates a listener for profile. sink may be nil.
func NewListener(profile Profile, sink Sink) *Listener {
	return &Listener{
		profile: profile,
		sink:    sink,
		now:     time.Now,
		stats:   ListenerStats{ByCategory: make(map[Category]int64)},
	}
}

// Profile returns the subscribed profile.
func (l *Listener) Profile() Profile {
	return l.profile
}

// Start subscribes every profile filter in order.
//
// A filter the broker denies still subscribes successfully, so an error here
// is a transport failure.
func (l *Listener) Start(sub Subscriber) error {
	for _, f := range l.profile.Filters {
		if err := sub.Subscribe(f, l.profile.QoS, l.Handle); err != nil {
			return fmt.Errorf("subscribing %s to %s: %w", l.profile.Role, f, err)
		}
	}
	return nil
}

// Handle is the message handler registered for every filter.
func (l *Listener) Handle(topic string, payload []byte) error {
	r := Decode(topic, payload, l.now())

	l.mu.Lock()
	l.stats.Received++
	if r.Malformed {
		l.stats.Malformed++
	}
	l.stats.ByCategory[r.Category]++
	l.mu.Unlock()

	if l.sink != nil {
		l.sink(r)
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (l *Listener) Stats() ListenerStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := ListenerStats{
		Received:   l.stats.Received,
		Malformed:  l.stats.Malformed,
		ByCategory: make(map[Category]int64, len(l.stats.ByCategory)),
	}
	for k, v := range l.stats.ByCategory {
		s.ByCategory[k] = v
	}
	return s
}
