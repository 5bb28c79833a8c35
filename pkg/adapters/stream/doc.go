// Package stream implements the live graph stream transport on
// gorilla/websocket.
//
// The stream is receive-only. Peer closes surface as *domain.CloseError so
// the client can tell a clean close handshake from an abnormal drop.
package stream
