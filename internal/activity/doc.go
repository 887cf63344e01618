// Package activity records who did what through the gateway.
//
// Every completed HTTP request becomes one Entry: a human-readable
// message ("alice created a new user account"), a category for dashboard
// filtering, and the raw method/path/status underneath. Entries live in a
// fixed-size in-memory ring (newest eventually evicts oldest) and fan out
// to live subscribers, which back the SSE and WebSocket streams.
//
// The log is deliberately ephemeral: it is an operator's recent-events
// view, not an audit trail, and restarting the gateway clears it. The
// optional InfluxDB mirror covers retention when that matters.
//
// Thread Safety: Log is safe for concurrent use from multiple goroutines.
// Publishing never blocks; a subscriber that stops draining its channel
// loses events, not the publisher.
package activity
