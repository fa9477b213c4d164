package roles

import (
	"encoding/json"
	"strings"
	"time"
)

// Category groups topics for display.
type Category string

// Display categories.
const (
	CategoryLine        Category = "line"
	CategoryMaintenance Category = "maintenance"
	CategoryProduction  Category = "production"
	CategoryCosts       Category = "costs"
	CategoryOther       Category = "other"
)

// CategoryOf classifies a topic by its second level.
func CategoryOf(topic string) Category {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[0] != "factory" {
		return CategoryOther
	}
	switch {
	case strings.HasPrefix(parts[1], "line"):
		return CategoryLine
	case parts[1] == "maintenance":
		return CategoryMaintenance
	case parts[1] == "production":
		return CategoryProduction
	case parts[1] == "costs":
		return CategoryCosts
	default:
		return CategoryOther
	}
}

// Received is one decoded incoming message.
type Received struct {
	Topic      string
	Category   Category
	ReceivedAt time.Time

	// Fields holds the decoded JSON object; nil when Malformed.
	Fields map[string]any

	// Raw is the payload as text, always set.
	Raw string

	// Malformed is set when the payload is not a JSON object.
	Malformed bool
}

// Decode parses payload as a JSON object. A payload that does not parse is
// kept as text and flagged Malformed; decoding never fails.
func Decode(topic string, payload []byte, receivedAt time.Time) Received {
	r := Received{
		Topic:      topic,
		Category:   CategoryOf(topic),
		ReceivedAt: receivedAt,
		Raw:        string(payload),
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		r.Malformed = true
		return r
	}
	r.Fields = fields
	return r
}

// Display returns the payload for printing: compact JSON, or the raw text.
func (r Received) Display() string {
	if r.Malformed {
		return r.Raw
	}
	data, err := json.Marshal(r.Fields)
	if err != nil {
		return r.Raw
	}
	return string(data)
}
