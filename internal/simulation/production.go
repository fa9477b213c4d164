package simulation

import "math"

// ProductionTarget is the unit count that represents 100% throughput.
const ProductionTarget = 1000

// ProductionSnapshot is the production summary for one tick.
type ProductionSnapshot struct {
	TotalUnits      int64
	UnitsLine1      int64
	UnitsLine2      int64
	PercentOfTarget float64 // [0, 100], 1 decimal
	Target          int64
}

// Aggregate computes the production snapshot from the cumulative line counters.
func Aggregate(unitsLine1, unitsLine2 int64) ProductionSnapshot {
	total := unitsLine1 + unitsLine2
	return ProductionSnapshot{
		TotalUnits:      total,
		UnitsLine1:      unitsLine1,
		UnitsLine2:      unitsLine2,
		PercentOfTarget: PercentOfTarget(total),
		Target:          ProductionTarget,
	}
}

// PercentOfTarget returns total as a percentage of ProductionTarget,
// clamped to [0, 100] and rounded to 1 decimal.
func PercentOfTarget(total int64) float64 {
	pct := float64(total) / ProductionTarget * 100
	pct = math.Max(0, math.Min(pct, 100))
	return round(pct, 1)
}
