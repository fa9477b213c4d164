package telemetry

import "time"

// TimestampLayout is ISO-8601 local time with microseconds and UTC offset.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Units used in reading payloads.
const (
	UnitRPM     = "rpm"
	UnitCelsius = "C"
)

// Payload is a message body that receives its timestamp at send time.
type Payload interface {
	SetTimestamp(ts string)
}

// Stamp is embedded last in every payload so the timestamp is the final JSON field.
type Stamp struct {
	Timestamp string `json:"timestamp"`
}

// SetTimestamp implements Payload.
func (s *Stamp) SetTimestamp(ts string) {
	s.Timestamp = ts
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ReadingPayload is a line velocity or temperature.
type ReadingPayload struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Line  int     `json:"line"`
	Stamp
}

// AlertPayload is published on factory/maintenance/alerts.
type AlertPayload struct {
	Line    int    `json:"line"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Stamp
}

// MaintenanceStatusPayload is published on factory/maintenance/status.
// Line 1 never raises alerts and always reports OK.
type MaintenanceStatusPayload struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	Stamp
}

// ThroughputPayload is published on factory/production/throughput.
type ThroughputPayload struct {
	Percent float64 `json:"percent"`
	Target  int64   `json:"target"`
	Stamp
}

// UnitsPayload is published on factory/production/units.
type UnitsPayload struct {
	Total int64 `json:"total"`
	Line1 int64 `json:"line1"`
	Line2 int64 `json:"line2"`
	Stamp
}

// EnergyPayload is published on factory/costs/energy.
type EnergyPayload struct {
	KWh     float64 `json:"kwh"`
	CostEUR float64 `json:"costEur"`
	Stamp
}

// PerUnitPayload is published on factory/costs/perUnit.
type PerUnitPayload struct {
	EURPerUnit float64 `json:"eurPerUnit"`
	Stamp
}
