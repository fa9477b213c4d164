package simulation

// State is the session-wide factory state.
//
// It is owned by Factory, mutated only by Tick and never reset.
type State struct {
	SimulatedSeconds int64
	UnitsLine1       int64
	UnitsLine2       int64
	AlertActive      bool
}

// TickResult is everything one tick produced.
type TickResult struct {
	State      State
	Line1      LineReading
	Line2      LineReading
	Alert      AlertEvent
	Production ProductionSnapshot
	Cost       CostSnapshot
}

// Config holds the factory construction options.
// Zero values select the defaults.
type Config struct {
	StepSeconds        int64
	AlertPeriodSeconds int64
	Line1              *LineParams
	Line2              *LineParams
}

// Factory drives one simulated session.
type Factory struct {
	clock  *Clock
	alert  *AlertScheduler
	line1  *LineSimulator
	line2  *LineSimulator
	energy *EnergyCostModel

	state State
}

// NewFactory creates a factory at t=0 with no units produced and no alert.
func NewFactory(cfg Config, noise NoiseSource) *Factory {
	if noise == nil {
		noise = ZeroNoise{}
	}

	l1 := Line1Params()
	if cfg.Line1 != nil {
		l1 = *cfg.Line1
	}
	l2 := Line2Params()
	if cfg.Line2 != nil {
		l2 = *cfg.Line2
	}

	return &Factory{
		clock:  NewClock(cfg.StepSeconds),
		alert:  NewAlertScheduler(cfg.AlertPeriodSeconds),
		line1:  NewLineSimulator(l1, noise),
		line2:  NewLineSimulator(l2, noise),
		energy: NewEnergyCostModel(noise),
	}
}

// Tick advances simulated time by one step and derives every metric.
func (f *Factory) Tick() TickResult {
	prev, now := f.clock.Tick()
	f.alert.Advance(prev, now)

	f.state.SimulatedSeconds = now
	f.state.AlertActive = f.alert.Active()

	r1 := f.line1.Read(now, f.state.AlertActive)
	r2 := f.line2.Read(now, f.state.AlertActive)

	f.state.UnitsLine1 += r1.UnitsProduced
	f.state.UnitsLine2 += r2.UnitsProduced

	prod := Aggregate(f.state.UnitsLine1, f.state.UnitsLine2)

	return TickResult{
		State:      f.state,
		Line1:      r1,
		Line2:      r2,
		Alert:      newAlertEvent(f.state.AlertActive),
		Production: prod,
		Cost:       f.energy.Compute(now, prod.TotalUnits),
	}
}

// State returns a copy of the current state.
func (f *Factory) State() State {
	return f.state
}

// StepSeconds returns the simulated seconds added per tick.
func (f *Factory) StepSeconds() int64 {
	return f.clock.Step()
}
