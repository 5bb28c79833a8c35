package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aescanero/livegraph/internal/application/snapshots"
	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ConnectResponse is returned by the connect endpoint
type ConnectResponse struct {
	Status string        `json:"status"`
	State  domain.Status `json:"state"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := s.client.Status()

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"checks": gin.H{
			"live_graph": string(status.State),
		},
	})
}

// handleGetStatus returns the connection status
func (s *Server) handleGetStatus(c *gin.Context) {
	status := s.client.Status()

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"can_retry": status.CanRetry(),
	})
}

// handleGetGraph returns the live graph
func (s *Server) handleGetGraph(c *gin.Context) {
	c.JSON(http.StatusOK, s.client.Snapshot())
}

// handleGetSavedGraph returns the last stored snapshot
func (s *Server) handleGetSavedGraph(c *gin.Context) {
	if s.storage == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_NOT_AVAILABLE",
				Message: "Snapshot storage is not configured",
			},
		})
		return
	}

	snap, err := s.storage.Load(c.Request.Context(), snapshots.LatestKey)
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: ErrorDetail{
					Code:    "NOT_FOUND",
					Message: "No saved snapshot",
				},
			})
			return
		}

		s.logger.Error("failed to load snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to load snapshot",
				Details: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// handleConnect triggers a manual connection attempt
func (s *Server) handleConnect(c *gin.Context) {
	status := s.client.Status()

	if status.State == domain.StateConnected {
		c.JSON(http.StatusOK, ConnectResponse{Status: "connected", State: status})
		return
	}
	if !status.CanRetry() {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: ErrorDetail{
				Code:    "ATTEMPT_IN_FLIGHT",
				Message: domain.ErrAttemptInFlight.Error(),
				Details: status.State,
			},
		})
		return
	}

	// The attempt outlives the request; its outcome is reported through status.
	go func() {
		if err := s.client.Connect(context.Background()); err != nil {
			s.logger.Warn("manual connect failed", zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, ConnectResponse{Status: "connecting", State: status})
}

// handleDisconnect tears down the connection and clears the graph
func (s *Server) handleDisconnect(c *gin.Context) {
	s.client.Disconnect()

	c.JSON(http.StatusOK, ConnectResponse{Status: "disconnected", State: s.client.Status()})
}
