package roles

import (
	"github.com/nerrad567/factory-telemetry/internal/broker"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"
)

// ACLRules returns the reference deployment policy for the in-memory broker:
// the publisher writes telemetry and its own status, each role reads its
// Readable filters. Anything else is denied.
func ACLRules(publisherID string) []broker.ACLRule {
	topics := mqtt.Topics{}
	rules := []broker.ACLRule{
		{Identity: publisherID, Filter: topics.AllFactory(), Write: true},
		{Identity: publisherID, Filter: topics.SystemStatus(publisherID), Write: true},
	}
	for _, p := range All() {
		for _, f := range p.Readable {
			rules = append(rules, broker.ACLRule{Identity: p.ClientID, Filter: f, Read: true})
		}
	}
	return rules
}
