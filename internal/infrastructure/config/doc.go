// Package config handles loading and validating the factory telemetry
// configuration shared by the publisher and the subscribers.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with FACTORY_* environment variables
//   - Validation of required fields (all failures reported together)
//   - Default value handling
//
// Security Considerations:
//   - Broker credentials and the InfluxDB token should be set via environment variables
//   - Private keys referenced by mqtt.tls.key_file should be readable by the process only
//
// Usage:
//
//	cfg, err := config.Load("configs/publisher.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker.Host)
package config
