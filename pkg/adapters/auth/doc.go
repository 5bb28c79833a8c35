// Package auth provides identity token sources for the live graph client.
//
// An empty token with a nil error means there is no authenticated session;
// the client reports that as not-authenticated without calling the ticket
// endpoint.
package auth
