package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
	"go.uber.org/zap"
)

// DefaultPath is the ticket endpoint path on the API host.
const DefaultPath = "/v1/ws-auth"

// maxBodySize bounds how much of a ticket response is read.
const maxBodySize = 64 << 10

// Issuer implements TicketIssuer against the HTTP ticket endpoint.
type Issuer struct {
	baseURL    string
	path       string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewIssuer creates an issuer posting to baseURL+path. A zero timeout
// leaves requests bounded only by their context.
func NewIssuer(baseURL, path string, timeout time.Duration, logger *zap.Logger) *Issuer {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Issuer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		path:       path,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type ticketResponse struct {
	Ticket string `json:"ticket"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Issue exchanges idToken for a stream ticket. An empty ticket with a nil
// error means the endpoint answered without one.
func (i *Issuer) Issue(ctx context.Context, idToken string) (string, error) {
	if i.baseURL == "" {
		return "", domain.ErrMissingBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+i.path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create ticket request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+idToken)
	req.Header.Set("Accept", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request ticket: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read ticket response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ticketErr := &domain.TicketRequestError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil {
			ticketErr.Message = errResp.Message
		}

		i.logger.Warn("ticket request rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", ticketErr.Message))
		return "", ticketErr
	}

	var ticketResp ticketResponse
	if err := json.Unmarshal(body, &ticketResp); err != nil {
		return "", fmt.Errorf("failed to decode ticket response: %w", err)
	}

	i.logger.Debug("ticket issued", zap.Int("status_code", resp.StatusCode))
	return ticketResp.Ticket, nil
}
