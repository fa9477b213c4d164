// Package simulation provides the factory telemetry engine.
//
// It evolves the state of two production lines over simulated time and
// derives the maintenance, production and cost figures that the telemetry
// publisher turns into MQTT messages.
//
// # Architecture
//
//	FactoryClock ──tick──▶ AlertScheduler (OK ⇄ ALERT every 120s boundary)
//	      │
//	      ├──▶ LineSimulator (line 1)  ─┐
//	      ├──▶ LineSimulator (line 2)  ─┼──▶ ProductionAggregator
//	      │        ▲ alert              │
//	      └──▶ EnergyCostModel ◀────────┘ (total units)
//
// Factory owns the only mutable state (State). It is advanced exclusively by
// Factory.Tick and is never reset during a session. Every other value
// (LineReading, AlertEvent, ProductionSnapshot, CostSnapshot) is created fresh
// for a single tick and returned by value.
//
// # Randomness
//
// All noise comes from an injected NoiseSource. Production code uses
// NewRandNoise (seeded or entropy-backed); tests use ZeroNoise or a fixed seed
// so outputs are reproducible.
//
// # Thread Safety
//
// Factory is not safe for concurrent use. A single driving goroutine calls
// Tick; there is no concurrent writer, so no locking is performed.
//
// # Usage
//
//	f := simulation.NewFactory(simulation.Config{StepSeconds: 3}, simulation.NewRandNoise(0))
//	res := f.Tick()
//	fmt.Println(res.Line1.Velocity, res.Alert.Active, res.Cost.CostPerUnit)
package simulation
