// Package api implements the read-only HTTP status API of the publisher.
//
// This package provides:
//   - Health and runtime metrics endpoints
//   - The live tick counters of the running session
//   - The role profiles and the telemetry topic catalogue
//   - The session journal (runs and their failed sends)
//   - Middleware stack (request ID, logging, recovery)
//
// Every endpoint is a GET. Nothing in this package publishes to the broker.
//
// The server follows the same lifecycle pattern as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
