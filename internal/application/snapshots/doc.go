// Package snapshots periodically persists the live graph.
//
// The monitor saves the client's graph to snapshot storage on a fixed
// interval whenever it changed since the last save, and once more on
// shutdown through Flush.
package snapshots
