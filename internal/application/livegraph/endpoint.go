package livegraph

import (
	"fmt"
	"net"
	"net/url"

	"github.com/aescanero/livegraph/pkg/domain"
)

// DefaultStreamPath is the live graph stream path on the API host.
const DefaultStreamPath = "/live-graph"

// StreamEndpoint derives the stream endpoint, without its ticket, from the
// API base URL. The stream always uses wss on the API hostname. Loopback
// hosts are the exception: they keep their port, and an http base maps to ws.
func StreamEndpoint(baseURL, path string) (*url.URL, error) {
	if baseURL == "" {
		return nil, domain.ErrMissingBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBaseURL, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %q", domain.ErrInvalidBaseURL, baseURL)
	}

	secure := false
	switch u.Scheme {
	case "https", "wss":
		secure = true
	case "http", "ws":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidBaseURL, u.Scheme)
	}

	if path == "" {
		path = DefaultStreamPath
	}

	stream := &url.URL{Scheme: "wss", Path: path}
	if isLoopback(u.Hostname()) {
		stream.Host = u.Host
		if !secure {
			stream.Scheme = "ws"
		}
	} else {
		stream.Host = hostOnly(u.Hostname())
	}
	return stream, nil
}

// StreamURL is StreamEndpoint with the ticket appended as a query credential.
func StreamURL(baseURL, path, ticket string) (string, error) {
	u, err := StreamEndpoint(baseURL, path)
	if err != nil {
		return "", err
	}
	return withTicket(u, ticket), nil
}

func withTicket(endpoint *url.URL, ticket string) string {
	u := *endpoint
	u.RawQuery = url.Values{"ticket": []string{ticket}}.Encode()
	return u.String()
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// hostOnly re-brackets IPv6 literals that Hostname strips.
func hostOnly(hostname string) string {
	if ip := net.ParseIP(hostname); ip != nil && ip.To4() == nil {
		return "[" + hostname + "]"
	}
	return hostname
}
