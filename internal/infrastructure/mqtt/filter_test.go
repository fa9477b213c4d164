package mqtt

import (
	"errors"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"factory/#", "factory/line1/velocity", true},
		{"factory/#", "factory", true},
		{"factory/#", "system/publisher-sensors/status", false},
		{"factory/line1/velocity", "factory/line1/velocity", true},
		{"factory/line1/velocity", "factory/line1/temperature", false},
		{"factory/line2/#", "factory/line2/temperature", true},
		{"factory/line2/#", "factory/line1/temperature", false},
		{"factory/+/velocity", "factory/line2/velocity", true},
		{"factory/+/velocity", "factory/line2/extra/velocity", false},
		{"factory/+", "factory/line1/velocity", false},
		{"factory/line1", "factory/line1/velocity", false},
		{"#", "factory/costs/perUnit", true},
		{"#", "$SYS/broker/uptime", false},
		{"+/+/+", "factory/costs/energy", true},
		{"", "factory/costs/energy", false},
		{"factory/#", "", false},
	}

	for _, tt := range tests {
		if got := Match(tt.filter, tt.topic); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestCovers(t *testing.T) {
	tests := []struct {
		outer string
		inner string
		want  bool
	}{
		{"factory/#", "factory/line2/#", true},
		{"factory/#", "factory/line1/velocity", true},
		{"factory/#", "factory/#", true},
		{"factory/line2/#", "factory/#", false},
		{"factory/+/velocity", "factory/line1/velocity", true},
		{"factory/line1/velocity", "factory/+/velocity", false},
		{"factory/+/#", "factory/line2/#", true},
		{"factory/+/velocity", "factory/line2/#", false},
		{"factory/line1/velocity", "factory/line1/velocity", true},
		{"factory/line1/velocity", "factory/line1/temperature", false},
		{"#", "system/+/status", true},
		{"factory/#", "system/+/status", false},
		{"", "factory/#", false},
	}

	for _, tt := range tests {
		if got := Covers(tt.outer, tt.inner); got != tt.want {
			t.Errorf("Covers(%q, %q) = %v, want %v", tt.outer, tt.inner, got, tt.want)
		}
	}
}

// Every topic matched by the inner filter must be matched by a covering filter.
func TestCovers_ConsistentWithMatch(t *testing.T) {
	filters := []string{
		"factory/#", "factory/line2/#", "factory/+/velocity", "factory/line1/velocity",
		"factory/maintenance/#", "factory/costs/#", "#", "factory/+/#",
	}

	for _, outer := range filters {
		for _, inner := range filters {
			if !Covers(outer, inner) {
				continue
			}
			for _, topic := range TelemetryTopics() {
				if Match(inner, topic) && !Match(outer, topic) {
					t.Errorf("Covers(%q, %q) but %q matches only the inner filter", outer, inner, topic)
				}
			}
		}
	}
}

func TestCoveredByAny(t *testing.T) {
	outers := []string{"factory/line1/#", "factory/costs/#"}

	if !CoveredByAny(outers, "factory/costs/energy") {
		t.Error("CoveredByAny() = false for a covered filter")
	}
	if CoveredByAny(outers, "factory/production/#") {
		t.Error("CoveredByAny() = true for an uncovered filter")
	}
	if CoveredByAny(nil, "factory/#") {
		t.Error("CoveredByAny(nil) = true")
	}
}

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		filter  string
		wantErr bool
	}{
		{"factory/#", false},
		{"#", false},
		{"+", false},
		{"factory/+/velocity", false},
		{"factory/line1/velocity", false},
		{"", true},
		{"factory/#/velocity", true},
		{"factory/line#", true},
		{"factory/li+ne/velocity", true},
	}

	for _, tt := range tests {
		err := ValidateFilter(tt.filter)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFilter(%q) error = %v, wantErr %v", tt.filter, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("ValidateFilter(%q) error = %v, want ErrInvalidFilter", tt.filter, err)
		}
	}
}

func TestValidateTopic(t *testing.T) {
	for _, topic := range TelemetryTopics() {
		if err := ValidateTopic(topic); err != nil {
			t.Errorf("ValidateTopic(%q) error = %v", topic, err)
		}
	}
	for _, topic := range []string{"", "factory/#", "factory/+/velocity"} {
		if err := ValidateTopic(topic); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("ValidateTopic(%q) error = %v, want ErrInvalidTopic", topic, err)
		}
	}
}
