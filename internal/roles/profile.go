package roles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"
)

// Role names a subscriber profile.
type Role string

// Known roles.
const (
	RoleDirector Role = "director"
	RoleOperator Role = "operator"
)

// SubscriberQoS is the QoS requested by every role subscription.
const SubscriberQoS byte = 0

// ErrUnknownRole is returned by Lookup for an unrecognised name.
var ErrUnknownRole = errors.New("roles: unknown role")

// Profile is the subscription request list of a role.
type Profile struct {
	Role     Role
	ClientID string

	// Filters are subscribed in order.
	Filters []string

	// Readable lists what the reference deployment ACL lets this role read.
	// It is not used for subscribing.
	Readable []string

	QoS byte
}

// Director sees the whole factory namespace.
func Director() Profile {
	topics := mqtt.Topics{}
	return Profile{
		Role:     RoleDirector,
		ClientID: "subscriber-director",
		Filters:  []string{topics.AllFactory()},
		Readable: []string{topics.AllFactory()},
		QoS:      SubscriberQoS,
	}
}

// Operator asks for line data, maintenance and costs but may read only the
// line 1 readings.
func Operator() Profile {
	topics := mqtt.Topics{}
	return Profile{
		Role:     RoleOperator,
		ClientID: "subscriber-operator",
		Filters: []string{
			topics.LineVelocity(1),
			topics.LineTemperature(1),
			topics.AllLine(2),
			topics.AllMaintenance(),
			topics.AllCosts(),
		},
		Readable: []string{
			topics.LineVelocity(1),
			topics.LineTemperature(1),
		},
		QoS: SubscriberQoS,
	}
}

// All returns every profile, director first.
func All() []Profile {
	return []Profile{Director(), Operator()}
}

// Lookup returns the profile for a role name (case-insensitive).
func Lookup(name string) (Profile, error) {
	for _, p := range All() {
		if strings.EqualFold(string(p.Role), strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Covers reports whether every filter of other is covered by a filter of p.
func (p Profile) Covers(other Profile) bool {
	for _, f := range other.Filters {
		if !mqtt.CoveredByAny(p.Filters, f) {
			return false
		}
	}
	return true
}

// Requests reports whether topic matches one of the profile filters.
func (p Profile) Requests(topic string) bool {
	for _, f := range p.Filters {
		if mqtt.Match(f, topic) {
			return true
		}
	}
	return false
}

// CanRead reports whether the reference ACL lets the role read topic.
func (p Profile) CanRead(topic string) bool {
	for _, f := range p.Readable {
		if mqtt.Match(f, topic) {
			return true
		}
	}
	return false
}

// Validate checks every filter and that nothing readable goes unrequested.
func (p Profile) Validate() error {
	if p.Role == "" || p.ClientID == "" {
		return fmt.Errorf("roles: profile needs a role and a client ID")
	}
	if len(p.Filters) == 0 {
		return fmt.Errorf("roles: %s has no filters", p.Role)
	}
	for _, f := range append(append([]string(nil), p.Filters...), p.Readable...) {
		if err := mqtt.ValidateFilter(f); err != nil {
			return fmt.Errorf("roles: %s: %w", p.Role, err)
		}
	}
	for _, f := range p.Readable {
		if !mqtt.CoveredByAny(p.Filters, f) {
			return fmt.Errorf("roles: %s may read %q but never subscribes to it", p.Role, f)
		}
	}
	return nil
}

// CheckHierarchy verifies every profile and that the director profile
// covers all the others.
func CheckHierarchy() error {
	director := Director()
	for _, p := range All() {
		if err := p.Validate(); err != nil {
			return err
		}
		if !director.Covers(p) {
			return fmt.Errorf("roles: director does not cover %s", p.Role)
		}
	}
	return nil
}
