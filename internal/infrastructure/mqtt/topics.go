package mqtt

import "fmt"

// Topic prefixes.
//
// All telemetry lives under "factory/". Client status is kept outside
// that namespace so that a "factory/#" subscription sees telemetry only.
const (
	// TopicPrefixFactory is the root of the telemetry namespace.
	TopicPrefixFactory = "factory"

	// TopicPrefixSystem is the base for client status topics.
	TopicPrefixSystem = "system"
)

// Telemetry topics, one per message published on every tick.
const (
	TopicLine1Velocity        = "factory/line1/velocity"
	TopicLine1Temperature     = "factory/line1/temperature"
	TopicLine2Velocity        = "factory/line2/velocity"
	TopicLine2Temperature     = "factory/line2/temperature"
	TopicMaintenanceAlerts    = "factory/maintenance/alerts"
	TopicMaintenanceStatus    = "factory/maintenance/status"
	TopicProductionThroughput = "factory/production/throughput"
	TopicProductionUnits      = "factory/production/units"
	TopicCostsEnergy          = "factory/costs/energy"
	TopicCostsPerUnit         = "factory/costs/perUnit"
)

// Topics provides builders for the factory topic namespace.
//
//	topics := mqtt.Topics{}
//	topics.LineVelocity(2) // "factory/line2/velocity"
type Topics struct{}

// =============================================================================
// Line Topics
// =============================================================================

// LineVelocity returns the velocity topic of a production line.
//
// Example: factory/line1/velocity
func (Topics) LineVelocity(line int) string {
	return fmt.Sprintf("%s/line%d/velocity", TopicPrefixFactory, line)
}

// LineTemperature returns the temperature topic of a production line.
//
// Example: factory/line2/temperature
func (Topics) LineTemperature(line int) string {
	return fmt.Sprintf("%s/line%d/temperature", TopicPrefixFactory, line)
}

// AllLine returns the filter for every topic of one line.
//
// Example: factory/line2/#
func (Topics) AllLine(line int) string {
	return fmt.Sprintf("%s/line%d/#", TopicPrefixFactory, line)
}

// =============================================================================
// Section Filters
// =============================================================================

// AllMaintenance returns the filter for maintenance alerts and status.
func (Topics) AllMaintenance() string {
	return TopicPrefixFactory + "/maintenance/#"
}

// AllProduction returns the filter for production metrics.
func (Topics) AllProduction() string {
	return TopicPrefixFactory + "/production/#"
}

// AllCosts returns the filter for energy and cost metrics.
func (Topics) AllCosts() string {
	return TopicPrefixFactory + "/costs/#"
}

// AllFactory returns the filter for the whole telemetry namespace.
func (Topics) AllFactory() string {
	return TopicPrefixFactory + "/#"
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the retained online/offline topic of a client.
//
// Example: system/publisher-sensors/status
func (Topics) SystemStatus(clientID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixSystem, clientID)
}

// AllSystemStatus returns the filter for every client status topic.
func (Topics) AllSystemStatus() string {
	return TopicPrefixSystem + "/+/status"
}

// TelemetryTopics returns the ten telemetry topics in publish order.
func TelemetryTopics() []string {
	return []string{
		TopicLine1Velocity,
		TopicLine1Temperature,
		TopicLine2Velocity,
		TopicLine2Temperature,
		TopicMaintenanceAlerts,
		TopicMaintenanceStatus,
		TopicProductionThroughput,
		TopicProductionUnits,
		TopicCostsEnergy,
		TopicCostsPerUnit,
	}
}
