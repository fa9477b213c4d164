package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"
)

// delivery is one queued message. A non-empty filter restricts dispatch to
// that subscription (retained replay); a non-nil barrier marks a Flush point.
type delivery struct {
	topic   string
	payload []byte
	filter  string
	barrier chan struct{}
}

// Client is one connection to a Broker.
//
// It offers the same Publish/Subscribe surface as *mqtt.Client, so the
// publisher and the role listeners run unchanged against either.
type Client struct {
	broker   *Broker
	identity string
	logger   Logger

	subMu sync.RWMutex
	subs  map[string]mqtt.MessageHandler

	queue     chan delivery
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newClient(b *Broker, identity string, queueSize int, logger Logger) *Client {
	c := &Client{
		broker:   b,
		identity: identity,
		logger:   logger,
		subs:     make(map[string]mqtt.MessageHandler),
		queue:    make(chan delivery, queueSize),
		done:     make(chan struct{}),
	}
	c.wg.Add(1)
	go c.deliverLoop()
	return c
}

// Identity returns the name the ACL evaluates.
func (c *Client) Identity() string {
	return c.identity
}

// Publish routes payload to every subscriber allowed to read topic.
//
// A publish the ACL forbids is dropped without an error, as Mosquitto does.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := mqtt.ValidateTopic(topic); err != nil {
		return err
	}
	if qos > 2 {
		return mqtt.ErrInvalidQoS
	}
	if !c.IsConnected() {
		return fmt.Errorf("%w: %w", mqtt.ErrNotConnected, ErrClosed)
	}

	c.broker.route(c.identity, topic, payload, retained)
	return nil
}

// Subscribe registers handler for filter. It never fails because of the ACL.
func (c *Client) Subscribe(filter string, qos byte, handler mqtt.MessageHandler) error {
	if err := mqtt.ValidateFilter(filter); err != nil {
		return err
	}
	if qos > 2 {
		return mqtt.ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", mqtt.ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return fmt.Errorf("%w: %w", mqtt.ErrNotConnected, ErrClosed)
	}

	c.subMu.Lock()
	c.subs[filter] = handler
	c.subMu.Unlock()

	c.broker.replayRetained(c, filter)
	return nil
}

// Unsubscribe removes the subscription for filter.
func (c *Client) Unsubscribe(filter string) error {
	if err := mqtt.ValidateFilter(filter); err != nil {
		return err
	}
	c.subMu.Lock()
	delete(c.subs, filter)
	c.subMu.Unlock()
	return nil
}

// SubscriptionCount returns the number of active subscriptions.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subs)
}

// HasSubscription checks for the exact filter string.
func (c *Client) HasSubscription(filter string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subs[filter]
	return ok
}

// IsConnected reports whether the client is still open.
func (c *Client) IsConnected() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Flush blocks until every message queued before the call has been handled.
func (c *Client) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !c.enqueue(delivery{barrier: barrier}) {
		return ErrClosed
	}
	select {
	case <-barrier:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects the client and stops its delivery goroutine.
func (c *Client) Close() error {
	c.broker.remove(c)
	c.shutdown()
	return nil
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

// matches reports whether any subscription of c matches topic.
func (c *Client) matches(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	for filter := range c.subs {
		if mqtt.Match(filter, topic) {
			return true
		}
	}
	return false
}

func (c *Client) enqueue(d delivery) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.queue <- d:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) deliverLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case d := <-c.queue:
			if d.barrier != nil {
				close(d.barrier)
				continue
			}
			c.dispatch(d)
		}
	}
}

// dispatch calls every handler whose filter matches, as paho's router does.
func (c *Client) dispatch(d delivery) {
	c.subMu.RLock()
	var handlers []mqtt.MessageHandler
	for filter, h := range c.subs {
		if d.filter != "" && filter != d.filter {
			continue
		}
		if mqtt.Match(filter, d.topic) {
			handlers = append(handlers, h)
		}
	}
	c.subMu.RUnlock()

	for _, h := range handlers {
		c.invoke(h, d.topic, d.payload)
	}
}

func (c *Client) invoke(h mqtt.MessageHandler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil && c.logger != nil {
			c.logger.Error("handler panic recovered",
				"identity", c.identity,
				"topic", topic,
				"panic", r,
			)
		}
	}()

	if err := h(topic, payload); err != nil && c.logger != nil {
		c.logger.Warn("handler returned error",
			"identity", c.identity,
			"topic", topic,
			"error", err,
		)
	}
}
