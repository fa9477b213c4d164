// Package influxdb records publisher health metrics in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Each tick produces a
// publisher_tick point (sent, failed, duration) and a factory_state point
// (simulated time, units, energy, alert flag), tagged with the factory ID.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	runner := telemetry.NewRunner(pub, ch, interval,
//	    telemetry.WithObserver(client.Observer(cfg.Factory.ID)))
//
// # Thread Safety
//
// Writes are non-blocking. Async write errors are delivered to the
// callback registered with SetOnError.
package influxdb
