// Package broker is an in-process MQTT-style message router with per-identity
// access control.
//
// It stands in for the Mosquitto deployment in tests and in the publisher's
// -local mode. Semantics follow an MQTT 3.1.1 broker configured with an ACL
// file and deny-by-default:
//
//   - Subscribing always succeeds, whatever the ACL says.
//   - A message is delivered to a subscriber only if one of its filters
//     matches the topic and the subscriber may read that topic.
//   - Publishing to a topic the identity may not write is silently dropped.
//   - Retained messages are replayed to new matching subscriptions.
//
// Each client owns one delivery goroutine, so handlers of one client never
// run concurrently and see messages in publish order.
//
// # Usage
//
//	b := broker.New(rules)
//	defer b.Close()
//
//	pub := b.Client("publisher-sensors")
//	sub := b.Client("subscriber-operator")
//	sub.Subscribe("factory/line1/#", 0, handler)
//	pub.Publish("factory/line1/velocity", payload, 1, false)
package broker
