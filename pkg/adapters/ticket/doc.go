// Package ticket implements the HTTP exchange of an identity token for a
// single-use stream ticket.
//
// The issuer sends POST {base}/v1/ws-auth with the identity token as a
// bearer credential and expects {"ticket": "..."} back. Non-2xx replies
// become *domain.TicketRequestError carrying the body's "message" when one
// can be decoded.
package ticket
