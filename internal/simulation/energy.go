package simulation

// Energy model constants.
const (
	baseEnergyKWh        = 450.0
	energyRampKWhPerHour = 120.0
	energyNoiseStdDev    = 5.0

	// TariffEURPerKWh is the fixed energy price.
	TariffEURPerKWh = 0.14

	secondsPerHour = 3600
)

// CostSnapshot is the energy and cost summary for one tick.
type CostSnapshot struct {
	EnergyKWh   float64 // 2 decimals
	CostEUR     float64 // 2 decimals
	CostPerUnit float64 // 4 decimals
}

// EnergyCostModel derives energy draw and cost from simulated time.
//
// Energy ramps linearly with time and is deliberately not capped.
type EnergyCostModel struct {
	noise NoiseSource
}

// NewEnergyCostModel creates the model.
func NewEnergyCostModel(noise NoiseSource) *EnergyCostModel {
	if noise == nil {
		noise = ZeroNoise{}
	}
	return &EnergyCostModel{noise: noise}
}

// Compute returns the cost snapshot at simulated time t for totalUnits produced.
// A single energy sample feeds both the kWh and the cost figures.
func (m *EnergyCostModel) Compute(t int64, totalUnits int64) CostSnapshot {
	kwh := baseEnergyKWh +
		float64(t)/secondsPerHour*energyRampKWhPerHour +
		m.noise.Gaussian(0, energyNoiseStdDev)
	kwh = round(kwh, 2)

	cost := round(kwh*TariffEURPerKWh, 2)

	return CostSnapshot{
		EnergyKWh:   kwh,
		CostEUR:     cost,
		CostPerUnit: CostPerUnit(cost, totalUnits),
	}
}

// CostPerUnit divides cost by totalUnits, flooring the denominator at 1
// so that a session with no output yet reports the full cost.
func CostPerUnit(costEUR float64, totalUnits int64) float64 {
	denominator := totalUnits
	if denominator < 1 {
		denominator = 1
	}
	return round(costEUR/float64(denominator), 4)
}
