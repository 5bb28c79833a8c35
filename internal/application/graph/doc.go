// Package graph holds the in-memory interaction graph built from the live
// stream.
//
// Nodes are created lazily the first time they appear on either end of an
// edge and keep the role they were first seen with. Edges are appended once
// per event and never deduplicated, mutated or removed; only Reset clears the
// model.
package graph
