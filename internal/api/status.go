package api

import (
	"net/http"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/telemetry"
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	FactoryID       string       `json:"factory_id"`
	SessionID       string       `json:"session_id,omitempty"`
	Running         bool         `json:"running"`
	BrokerConnected *bool        `json:"broker_connected,omitempty"`
	Ticks           int64        `json:"ticks"`
	TotalSent       int64        `json:"total_sent"`
	TotalFailed     int64        `json:"total_failed"`
	LastTick        *TickSummary `json:"last_tick,omitempty"`
}

// TickSummary is the most recent tick as the dashboard shows it.
type TickSummary struct {
	T               int64        `json:"t"`
	Started         time.Time    `json:"started"`
	DurationMS      float64      `json:"duration_ms"`
	Sent            int          `json:"sent"`
	Failed          int          `json:"failed"`
	Line1           LineSummary  `json:"line1"`
	Line2           LineSummary  `json:"line2"`
	AlertActive     bool         `json:"alert_active"`
	AlertMessage    string       `json:"alert_message"`
	TotalUnits      int64        `json:"total_units"`
	PercentOfTarget float64      `json:"percent_of_target"`
	EnergyKWh       float64      `json:"energy_kwh"`
	CostEUR         float64      `json:"cost_eur"`
	CostPerUnit     float64      `json:"cost_per_unit"`
	Failures        []FailedSend `json:"failures,omitempty"`
}

// LineSummary holds one line's readings.
type LineSummary struct {
	Velocity    float64 `json:"velocity"`
	Temperature float64 `json:"temperature"`
	Units       int64   `json:"units"`
}

// FailedSend is one message of the last tick that did not go out.
type FailedSend struct {
	Topic string `json:"topic"`
	Error string `json:"error"`
}

// handleStatus returns the live counters and the last tick.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.runner.Status()

	resp := StatusResponse{
		FactoryID:   s.factoryID,
		SessionID:   s.sessionID,
		Running:     st.Running,
		Ticks:       st.Ticks,
		TotalSent:   st.TotalSent,
		TotalFailed: st.TotalFailed,
	}
	if s.broker != nil {
		connected := s.broker.IsConnected()
		resp.BrokerConnected = &connected
	}
	if st.Last != nil {
		resp.LastTick = summarise(*st.Last)
	}

	writeJSON(w, http.StatusOK, resp)
}

func summarise(report telemetry.TickReport) *TickSummary {
	t := report.Tick
	sum := &TickSummary{
		T:          t.State.SimulatedSeconds,
		Started:    report.Started,
		DurationMS: float64(report.Duration) / float64(time.Millisecond),
		Sent:       report.Sent(),
		Failed:     report.Failed(),
		Line1: LineSummary{
			Velocity:    t.Line1.Velocity,
			Temperature: t.Line1.Temperature,
			Units:       t.State.UnitsLine1,
		},
		Line2: LineSummary{
			Velocity:    t.Line2.Velocity,
			Temperature: t.Line2.Temperature,
			Units:       t.State.UnitsLine2,
		},
		AlertActive:     t.Alert.Active,
		AlertMessage:    t.Alert.Message,
		TotalUnits:      t.Production.TotalUnits,
		PercentOfTarget: t.Production.PercentOfTarget,
		EnergyKWh:       t.Cost.EnergyKWh,
		CostEUR:         t.Cost.CostEUR,
		CostPerUnit:     t.Cost.CostPerUnit,
	}
	for _, res := range report.Results {
		if !res.OK() {
			sum.Failures = append(sum.Failures, FailedSend{Topic: res.Topic, Error: res.Err.Error()})
		}
	}
	return sum
}
