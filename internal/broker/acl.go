package broker

import "github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"

// ACLRule grants read and/or write access on a topic filter.
//
// An empty Identity applies the rule to every client.
type ACLRule struct {
	Identity string
	Filter   string
	Read     bool
	Write    bool
}

// ACL evaluates a rule set. Anything not granted by a rule is denied.
type ACL struct {
	rules []ACLRule
}

// NewACL creates an ACL from rules. A nil rule set denies everything.
func NewACL(rules []ACLRule) *ACL {
	return &ACL{rules: append([]ACLRule(nil), rules...)}
}

// AllowAll returns a rule granting every identity full access.
func AllowAll() []ACLRule {
	return []ACLRule{{Filter: "#", Read: true, Write: true}}
}

// CanRead reports whether identity may receive messages on topic.
func (a *ACL) CanRead(identity, topic string) bool {
	for _, r := range a.rules {
		if r.Read && r.appliesTo(identity) && mqtt.Match(r.Filter, topic) {
			return true
		}
	}
	return false
}

// CanWrite reports whether identity may publish on topic.
func (a *ACL) CanWrite(identity, topic string) bool {
	for _, r := range a.rules {
		if r.Write && r.appliesTo(identity) && mqtt.Match(r.Filter, topic) {
			return true
		}
	}
	return false
}

// Rules returns a copy of the rule set.
func (a *ACL) Rules() []ACLRule {
	return append([]ACLRule(nil), a.rules...)
}

func (r ACLRule) appliesTo(identity string) bool {
	return r.Identity == "" || r.Identity == identity
}
