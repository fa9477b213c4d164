package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/factory-telemetry/internal/telemetry"
)

// Measurement names.
const (
	MeasurementPublisherTick = "publisher_tick"
	MeasurementFactoryState  = "factory_state"
)

// WriteTick records one tick as two points, both stamped with the tick
// start time:
//
//	publisher_tick,factory_id=… sent=10i,failed=0i,duration_ms=1.2
//	factory_state,factory_id=…  t=…i,total_units=…i,percent_of_target=…,
//	                            energy_kwh=…,cost_eur=…,alert_active=…
func (c *Client) WriteTick(factoryID string, report telemetry.TickReport) {
	if !c.IsConnected() {
		return
	}

	at := report.Started
	if at.IsZero() {
		at = time.Now()
	}
	tags := map[string]string{"factory_id": factoryID}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementPublisherTick,
		tags,
		map[string]any{
			"sent":        int64(report.Sent()),
			"failed":      int64(report.Failed()),
			"duration_ms": float64(report.Duration) / float64(time.Millisecond),
		},
		at,
	))

	t := report.Tick
	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementFactoryState,
		tags,
		map[string]any{
			"t":                 t.State.SimulatedSeconds,
			"total_units":       t.Production.TotalUnits,
			"percent_of_target": t.Production.PercentOfTarget,
			"energy_kwh":        t.Cost.EnergyKWh,
			"cost_eur":          t.Cost.CostEUR,
			"alert_active":      t.Alert.Active,
		},
		at,
	))
}

// Observer returns a telemetry.Observer that writes every tick of factoryID.
func (c *Client) Observer(factoryID string) telemetry.Observer {
	return telemetry.ObserverFunc(func(_ context.Context, report telemetry.TickReport) {
		c.WriteTick(factoryID, report)
	})
}
