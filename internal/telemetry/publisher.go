package telemetry

import (
	"fmt"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/simulation"
)

// Channel is the publish capability of a message transport.
type Channel interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// SendResult is the outcome of one message of a tick.
type SendResult struct {
	Topic   string
	Payload []byte

	// Err wraps ErrChannelUnavailable (or ErrEncodeFailed); nil on success.
	Err error
}

// OK reports whether the send succeeded.
func (r SendResult) OK() bool {
	return r.Err == nil
}

// TickReport is everything one AdvanceAndPublish call did.
type TickReport struct {
	Tick     simulation.TickResult
	Results  []SendResult
	Started  time.Time
	Duration time.Duration
}

// Sent returns the number of successful sends.
func (r TickReport) Sent() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed sends.
func (r TickReport) Failed() int {
	return len(r.Results) - r.Sent()
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithQoS overrides DefaultQoS.
func WithQoS(qos byte) PublisherOption {
	return func(p *Publisher) {
		p.qos = qos
	}
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

// Publisher advances the factory and sends the resulting messages.
//
// It is not safe for concurrent use; one goroutine owns it.
type Publisher struct {
	factory *simulation.Factory
	qos     byte
	now     func() time.Time
}

// NewPublisher creates a publisher for factory.
func NewPublisher(factory *simulation.Factory, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		factory: factory,
		qos:     DefaultQoS,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Factory returns the simulated factory.
func (p *Publisher) Factory() *simulation.Factory {
	return p.factory
}

// AdvanceAndPublish runs one tick and sends its ten messages in order.
//
// Every message is attempted even when earlier ones fail, so the report
// always holds ten results.
func (p *Publisher) AdvanceAndPublish(ch Channel) TickReport {
	started := p.now()
	tick := p.factory.Tick()

	msgs := withQoS(Messages(tick), p.qos)
	results := make([]SendResult, 0, len(msgs))

	for _, msg := range msgs {
		results = append(results, p.send(ch, msg))
	}

	return TickReport{
		Tick:     tick,
		Results:  results,
		Started:  started,
		Duration: p.now().Sub(started),
	}
}

func (p *Publisher) send(ch Channel, msg Message) SendResult {
	payload, err := msg.Encode(p.now())
	if err != nil {
		return SendResult{Topic: msg.Topic, Err: err}
	}

	res := SendResult{Topic: msg.Topic, Payload: payload}
	if ch == nil {
		res.Err = fmt.Errorf("%w: %s: no channel", ErrChannelUnavailable, msg.Topic)
		return res
	}
	if err := ch.Publish(msg.Topic, payload, msg.QoS, false); err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", ErrChannelUnavailable, msg.Topic, err)
	}
	return res
}
