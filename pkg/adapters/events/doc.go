// Package events provides event bus implementations and the observer that
// turns live graph client callbacks into bus events.
//
// Implementations:
//   - redis: Redis Streams, one consumer group per subscription
//   - memory: In-process, synchronous and ordered
//
// Every event is published on domain.TopicGraph as one of:
//   - status.changed: connection status
//   - node.added, edge.added: graph growth
//   - graph.snapshot: full graph, sent when the view is initialised
//   - graph.reset: graph cleared on teardown
package events
