package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/mqtt"
	"github.com/nerrad567/factory-telemetry/internal/simulation"
)

// DefaultQoS is used for every telemetry publish.
const DefaultQoS byte = 1

// Message is one topic/payload pair ready to send.
type Message struct {
	Topic   string
	Payload Payload
	QoS     byte
}

// Encode stamps the payload with now and serialises it.
func (m Message) Encode(now time.Time) ([]byte, error) {
	m.Payload.SetTimestamp(FormatTimestamp(now))
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncodeFailed, m.Topic, err)
	}
	return data, nil
}

// Messages builds the ten messages of a tick in publish order.
//
// The order and count never depend on the alert state.
func Messages(r simulation.TickResult) []Message {
	topics := mqtt.Topics{}
	line2Status := string(r.Alert.Status())

	msgs := []Message{
		{
			Topic:   topics.LineVelocity(1),
			Payload: &ReadingPayload{Value: r.Line1.Velocity, Unit: UnitRPM, Line: r.Line1.LineID},
		},
		{
			Topic:   topics.LineTemperature(1),
			Payload: &ReadingPayload{Value: r.Line1.Temperature, Unit: UnitCelsius, Line: r.Line1.LineID},
		},
		{
			Topic:   topics.LineVelocity(2),
			Payload: &ReadingPayload{Value: r.Line2.Velocity, Unit: UnitRPM, Line: r.Line2.LineID},
		},
		{
			Topic:   topics.LineTemperature(2),
			Payload: &ReadingPayload{Value: r.Line2.Temperature, Unit: UnitCelsius, Line: r.Line2.LineID},
		},
		{
			Topic:   mqtt.TopicMaintenanceAlerts,
			Payload: &AlertPayload{Line: r.Alert.LineID, Status: line2Status, Message: r.Alert.Message},
		},
		{
			Topic:   mqtt.TopicMaintenanceStatus,
			Payload: &MaintenanceStatusPayload{Line1: string(simulation.AlertOK), Line2: line2Status},
		},
		{
			Topic:   mqtt.TopicProductionThroughput,
			Payload: &ThroughputPayload{Percent: r.Production.PercentOfTarget, Target: r.Production.Target},
		},
		{
			Topic:   mqtt.TopicProductionUnits,
			Payload: &UnitsPayload{Total: r.Production.TotalUnits, Line1: r.Production.UnitsLine1, Line2: r.Production.UnitsLine2},
		},
		{
			Topic:   mqtt.TopicCostsEnergy,
			Payload: &EnergyPayload{KWh: r.Cost.EnergyKWh, CostEUR: r.Cost.CostEUR},
		},
		{
			Topic:   mqtt.TopicCostsPerUnit,
			Payload: &PerUnitPayload{EURPerUnit: r.Cost.CostPerUnit},
		},
	}
	return withQoS(msgs, DefaultQoS)
}

func withQoS(msgs []Message, qos byte) []Message {
	for i := range msgs {
		msgs[i].QoS = qos
	}
	return msgs
}
