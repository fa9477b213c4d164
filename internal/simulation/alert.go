package simulation

// AlertState is the maintenance state of line 2.
type AlertState string

// Alert states.
const (
	AlertOK    AlertState = "OK"
	AlertAlarm AlertState = "ALERT"
)

// DefaultAlertPeriodSeconds is the spacing of the fault toggle boundaries.
const DefaultAlertPeriodSeconds = 120

// Alert messages published on the maintenance topic.
const (
	AlertMessageActive = "Elevated temperature - check cooling"
	AlertMessageClear  = "No incidents"
)

// AlertScheduler toggles line 2 between OK and ALERT.
//
// Every period boundary (a multiple of period seconds) crossed by the clock
// flips the state once. With the default 3s step this is exactly "toggle on
// every tick where t mod 120 == 0". The state is never set directly, so the
// session parity is fixed: ALERT iff floor(t/period) is odd.
//
// The initial state is OK. t=0 is not a crossing because the clock advances
// before the scheduler is evaluated.
type AlertScheduler struct {
	period int64
	state  AlertState
}

// NewAlertScheduler creates a scheduler in the OK state.
func NewAlertScheduler(periodSeconds int64) *AlertScheduler {
	if periodSeconds <= 0 {
		periodSeconds = DefaultAlertPeriodSeconds
	}
	return &AlertScheduler{period: periodSeconds, state: AlertOK}
}

// Advance evaluates the time interval (prev, now] and returns the new state.
func (s *AlertScheduler) Advance(prev, now int64) AlertState {
	if now <= prev {
		return s.state
	}
	crossings := floorDiv(now, s.period) - floorDiv(prev, s.period)
	if crossings%2 != 0 {
		s.toggle()
	}
	return s.state
}

// State returns the current state.
func (s *AlertScheduler) State() AlertState {
	return s.state
}

// Active reports whether the scheduler is in the ALERT state.
func (s *AlertScheduler) Active() bool {
	return s.state == AlertAlarm
}

func (s *AlertScheduler) toggle() {
	if s.state == AlertOK {
		s.state = AlertAlarm
		return
	}
	s.state = AlertOK
}

// AlertEvent is the per-tick maintenance alert for line 2.
type AlertEvent struct {
	LineID  int
	Active  bool
	Message string
}

// Status returns the published status string ("OK" or "ALERT").
func (e AlertEvent) Status() AlertState {
	if e.Active {
		return AlertAlarm
	}
	return AlertOK
}

func newAlertEvent(active bool) AlertEvent {
	msg := AlertMessageClear
	if active {
		msg = AlertMessageActive
	}
	return AlertEvent{LineID: 2, Active: active, Message: msg}
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
