package ports

import "context"

// TokenSource returns the current identity token. An empty token with a nil
// error means there is no authenticated session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TicketIssuer exchanges an identity token for a single-use stream ticket.
type TicketIssuer interface {
	Issue(ctx context.Context, idToken string) (string, error)
}
