// Package mqtt provides MQTT client connectivity for the factory telemetry
// publisher and the role-scoped subscribers.
//
// This package manages:
//   - Connection to the Mosquitto broker over mutual TLS, with retry
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - The factory topic namespace and topic filter matching
//
// # Architecture
//
//	Publisher ── factory/... ──► Mosquitto (TLS + ACL) ──► director  (factory/#)
//	                                                  └──► operator  (restricted)
//
// The broker identifies each client by its certificate and applies the
// per-role ACL. This package never enforces access; Match and Covers exist
// for the in-memory broker and for checking role profiles.
//
// # Security Considerations
//
//   - Production brokers require cfg.Broker.TLS=true with CA, cert and key files
//   - A denied subscription is acknowledged and simply receives nothing
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.ConnectWithRetry(ctx, cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllFactory(), 0,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	client.Publish(mqtt.TopicLine1Velocity, payload, 1, false)
package mqtt
