// Package roles defines who subscribes to what.
//
// A Profile is a request list: the filters a role subscribes to. The broker
// ACL decides what actually arrives. The operator profile deliberately
// requests more than it may read; the surplus simply never delivers, and
// that absence is the normal state, not an error.
//
// The package also decodes incoming telemetry for display, falling back to
// the raw text when a payload is not a JSON object.
package roles
