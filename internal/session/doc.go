// Package session keeps a journal of publisher runs in SQLite.
//
// A session row is created when the publisher starts and its counters are
// bumped after every tick. Publish failures are stored individually with the
// topic and error text so a run can be audited after the fact. The package
// plugs into the tick loop through Recorder, which implements
// telemetry.Observer.
package session
