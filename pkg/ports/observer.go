package ports

import "github.com/aescanero/livegraph/pkg/domain"

// GraphObserver is notified of changes the presentation layer renders.
// Calls for one client are never concurrent.
type GraphObserver interface {
	OnStatus(status domain.Status)
	OnSnapshot(snapshot domain.Snapshot)
	OnNode(node domain.Node)
	OnEdge(edge domain.Edge)
	OnReset()
}
