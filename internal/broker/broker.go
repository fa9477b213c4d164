package broker

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"
)

// defaultQueueSize is the per-client delivery buffer.
const defaultQueueSize = 256

// Logger receives handler failures. *logging.Logger satisfies it.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Stats counts broker activity since creation.
type Stats struct {
	// Published is the number of publishes accepted by the write ACL.
	Published uint64
	// Dropped is the number of publishes rejected by the write ACL.
	Dropped uint64
	// Delivered is the number of messages queued to subscribers.
	Delivered uint64
	// Withheld counts messages that matched a subscription but failed the read ACL.
	Withheld uint64
}

// Option configures a Broker.
type Option func(*Broker)

// WithQueueSize sets the per-client delivery buffer.
func WithQueueSize(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithLogger sets the logger handed to every client.
func WithLogger(logger Logger) Option {
	return func(b *Broker) {
		b.logger = logger
	}
}

// Broker routes messages between in-process clients.
//
// All methods are safe for concurrent use.
type Broker struct {
	acl       *ACL
	queueSize int
	logger    Logger

	mu       sync.RWMutex
	clients  map[string]*Client
	retained map[string][]byte
	closed   bool

	published atomic.Uint64
	dropped   atomic.Uint64
	delivered atomic.Uint64
	withheld  atomic.Uint64
}

// New creates a broker enforcing rules. Without rules every access is denied.
func New(rules []ACLRule, opts ...Option) *Broker {
	b := &Broker{
		acl:       NewACL(rules),
		queueSize: defaultQueueSize,
		clients:   make(map[string]*Client),
		retained:  make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Client connects a new client under identity.
//
// The identity plays the role of the certificate common name: the ACL is
// evaluated against it.
func (b *Broker) Client(identity string) (*Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if _, exists := b.clients[identity]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateClient, identity)
	}

	c := newClient(b, identity, b.queueSize, b.logger)
	b.clients[identity] = c
	return c, nil
}

// Close disconnects every client. Pending deliveries are discarded.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	clients := make([]*Client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.clients = make(map[string]*Client)
	b.mu.Unlock()

	for _, c := range clients {
		c.shutdown()
	}
	return nil
}

// Stats returns a snapshot of the broker counters.
func (b *Broker) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Dropped:   b.dropped.Load(),
		Delivered: b.delivered.Load(),
		Withheld:  b.withheld.Load(),
	}
}

// ACL returns the access rules in force.
func (b *Broker) ACL() *ACL {
	return b.acl
}

// route fans a publish out to every subscribed client allowed to read it.
func (b *Broker) route(from, topic string, payload []byte, retain bool) {
	if !b.acl.CanWrite(from, topic) {
		b.dropped.Add(1)
		return
	}
	b.published.Add(1)

	msg := make([]byte, len(payload))
	copy(msg, payload)

	b.mu.Lock()
	if retain {
		if len(msg) == 0 {
			delete(b.retained, topic)
		} else {
			b.retained[topic] = msg
		}
	}
	targets := make([]*Client, 0, len(b.clients))
	for _, c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.Unlock()

	// Enqueue outside the lock so a full queue cannot block Close.
	for _, c := range targets {
		if !c.matches(topic) {
			continue
		}
		if !b.acl.CanRead(c.identity, topic) {
			b.withheld.Add(1)
			continue
		}
		if c.enqueue(delivery{topic: topic, payload: msg}) {
			b.delivered.Add(1)
		}
	}
}

// replayRetained queues retained messages matching filter to c.
func (b *Broker) replayRetained(c *Client, filter string) {
	type retainedMessage struct {
		topic   string
		payload []byte
	}

	b.mu.RLock()
	var pending []retainedMessage
	for topic, payload := range b.retained {
		if mqtt.Match(filter, topic) && b.acl.CanRead(c.identity, topic) {
			pending = append(pending, retainedMessage{topic: topic, payload: payload})
		}
	}
	b.mu.RUnlock()

	for _, m := range pending {
		if c.enqueue(delivery{topic: m.topic, payload: m.payload, filter: filter}) {
			b.delivered.Add(1)
		}
	}
}

// remove forgets a client closed on its own.
func (b *Broker) remove(c *Client) {
	b.mu.Lock()
	if b.clients[c.identity] == c {
		delete(b.clients, c.identity)
	}
	b.mu.Unlock()
}
