package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"LineVelocity 1", topics.LineVelocity(1), TopicLine1Velocity},
		{"LineVelocity 2", topics.LineVelocity(2), TopicLine2Velocity},
		{"LineTemperature 1", topics.LineTemperature(1), TopicLine1Temperature},
		{"LineTemperature 2", topics.LineTemperature(2), TopicLine2Temperature},
		{"AllLine", topics.AllLine(2), "factory/line2/#"},
		{"AllMaintenance", topics.AllMaintenance(), "factory/maintenance/#"},
		{"AllProduction", topics.AllProduction(), "factory/production/#"},
		{"AllCosts", topics.AllCosts(), "factory/costs/#"},
		{"AllFactory", topics.AllFactory(), "factory/#"},
		{"SystemStatus", topics.SystemStatus("publisher-sensors"), "system/publisher-sensors/status"},
		{"AllSystemStatus", topics.AllSystemStatus(), "system/+/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestTelemetryTopics(t *testing.T) {
	got := TelemetryTopics()
	if len(got) != 10 {
		t.Fatalf("len(TelemetryTopics()) = %d, want 10", len(got))
	}

	seen := make(map[string]bool)
	for _, topic := range got {
		if seen[topic] {
			t.Errorf("duplicate topic %q", topic)
		}
		seen[topic] = true

		if !Match(Topics{}.AllFactory(), topic) {
			t.Errorf("%q is outside the factory namespace", topic)
		}
	}

	if got[0] != TopicLine1Velocity || got[9] != TopicCostsPerUnit {
		t.Errorf("order = %v, want line1 velocity first and cost per unit last", got)
	}
}

func TestSystemStatusOutsideFactoryNamespace(t *testing.T) {
	if Match(Topics{}.AllFactory(), Topics{}.SystemStatus("publisher-sensors")) {
		t.Error("status topic must not reach factory/# subscribers")
	}
}
