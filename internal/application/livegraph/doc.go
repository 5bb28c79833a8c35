// Package livegraph implements the live threat-graph streaming client.
//
// A connection attempt runs through an explicit state machine:
//   - requesting-ticket: a fresh identity token is exchanged for a single-use ticket
//   - opening-stream: the stream is dialed with the ticket as a query credential
//   - connected: new_edge events are validated and applied to the graph model
//   - disconnected: abnormal closures are retried with backoff until the retry budget runs out
//
// Transport events are tagged with a connection generation so callbacks from
// a torn-down or superseded stream never touch the current state. At most one
// reconnect timer is pending at any time.
package livegraph
