// Package domain defines the value types shared by the live graph client,
// its adapters and its API surfaces.
//
// It covers:
//   - Connection states and the status exposed to the presentation layer
//   - Graph nodes, edges and snapshots
//   - Bus events describing graph and status changes
//   - The error taxonomy surfaced by a connection attempt
package domain
