// Package telemetry turns simulation ticks into the ten factory messages and
// sends them over a message channel.
//
// The channel is anything with the MQTT publish signature; *mqtt.Client and
// *broker.Client both qualify. One Runner goroutine drives the loop:
//
//	tick ──► Messages ──► Channel.Publish ×10 ──► observers (journal, metrics)
//
// Publishing is synchronous with the tick, so a blocking send delays the
// next tick. A failed send is reported in its SendResult and never retried
// within the tick.
package telemetry
