package simulation

import "math"

// Line 2 alert effects.
const (
	// alertVelocityFactor slows a line in ALERT.
	alertVelocityFactor = 0.85

	// alertTemperatureOffset heats a line in ALERT (°C).
	alertTemperatureOffset = 8.0

	// rpmPerUnit converts velocity into units produced per tick.
	rpmPerUnit = 300
)

// LineParams holds the per-line simulation constants.
type LineParams struct {
	LineID          int
	BaseVelocity    float64 // rpm
	BaseTemperature float64 // °C

	VelocityNoiseStdDev    float64
	TemperatureNoiseStdDev float64

	VelocityModAmplitude        float64
	VelocityModPeriodDivisor    float64
	TemperatureModAmplitude     float64
	TemperatureModPeriodDivisor float64

	// AlertSensitive marks the line that reacts to the alert scheduler.
	AlertSensitive bool
}

// Line1Params returns the constants for production line 1.
func Line1Params() LineParams {
	return LineParams{
		LineID:                      1,
		BaseVelocity:                1450,
		BaseTemperature:             72,
		VelocityNoiseStdDev:         15,
		TemperatureNoiseStdDev:      0.8,
		VelocityModAmplitude:        20,
		VelocityModPeriodDivisor:    60,
		TemperatureModAmplitude:     3,
		TemperatureModPeriodDivisor: 90,
	}
}

// Line2Params returns the constants for production line 2.
// Line 2 runs hotter and faster, has no periodic modulation and is the
// line affected by maintenance alerts.
func Line2Params() LineParams {
	return LineParams{
		LineID:                 2,
		BaseVelocity:           1800,
		BaseTemperature:        85,
		VelocityNoiseStdDev:    20,
		TemperatureNoiseStdDev: 1.2,
		AlertSensitive:         true,
	}
}

// LineReading is one tick's output for a production line.
type LineReading struct {
	LineID      int
	Velocity    float64 // rpm, 1 decimal
	Temperature float64 // °C, 2 decimals

	// UnitsProduced is floor(Velocity/300) for this tick, never negative.
	UnitsProduced int64
}

// LineSimulator evolves one production line.
type LineSimulator struct {
	params LineParams
	noise  NoiseSource
}

// NewLineSimulator creates a simulator for the given line.
func NewLineSimulator(params LineParams, noise NoiseSource) *LineSimulator {
	if noise == nil {
		noise = ZeroNoise{}
	}
	return &LineSimulator{params: params, noise: noise}
}

// Params returns the line constants.
func (l *LineSimulator) Params() LineParams {
	return l.params
}

// Read produces the reading for simulated time t.
// alert is ignored unless the line is alert sensitive.
func (l *LineSimulator) Read(t int64, alert bool) LineReading {
	p := l.params
	alert = alert && p.AlertSensitive

	velocity := p.BaseVelocity +
		l.noise.Gaussian(0, p.VelocityNoiseStdDev) +
		modulation(p.VelocityModAmplitude, p.VelocityModPeriodDivisor, t)

	temperature := p.BaseTemperature +
		l.noise.Gaussian(0, p.TemperatureNoiseStdDev) +
		modulation(p.TemperatureModAmplitude, p.TemperatureModPeriodDivisor, t)

	if alert {
		temperature += alertTemperatureOffset
		velocity *= alertVelocityFactor
	}

	velocity = round(velocity, 1)
	temperature = round(temperature, 2)

	return LineReading{
		LineID:        p.LineID,
		Velocity:      velocity,
		Temperature:   temperature,
		UnitsProduced: unitsFor(velocity),
	}
}

// modulation returns amplitude*sin(t/divisor); a zero amplitude disables the term.
func modulation(amplitude, divisor float64, t int64) float64 {
	if amplitude == 0 || divisor == 0 {
		return 0
	}
	return amplitude * math.Sin(float64(t)/divisor)
}

// unitsFor converts a velocity into whole units, floored at zero so that
// cumulative counters never decrease.
func unitsFor(velocity float64) int64 {
	if velocity <= 0 {
		return 0
	}
	return int64(math.Floor(velocity / rpmPerUnit))
}

// round rounds x to the given number of decimals, half away from zero.
func round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
