package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	sheetsyncapp "github.com/ordersuite/backend/internal/application/sheetsync"
)

// SyncHandler exposes sync run control and live progress streaming
type SyncHandler struct {
	BaseHandler
	syncService   *sheetsyncapp.SyncService
	logger        *zap.Logger
	heartbeat     time.Duration
	streamTimeout time.Duration
}

// SyncHandlerOption is a functional option for configuring the handler
type SyncHandlerOption func(*SyncHandler)

// WithSyncLogger sets the logger for the handler
func WithSyncLogger(logger *zap.Logger) SyncHandlerOption {
	return func(h *SyncHandler) {
		h.logger = logger
	}
}

// WithSyncHeartbeat sets the SSE heartbeat interval
func WithSyncHeartbeat(interval time.Duration) SyncHandlerOption {
	return func(h *SyncHandler) {
		h.heartbeat = interval
	}
}

// WithSyncStreamTimeout caps how long one SSE connection may stay open
func WithSyncStreamTimeout(timeout time.Duration) SyncHandlerOption {
	return func(h *SyncHandler) {
		h.streamTimeout = timeout
	}
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *sheetsyncapp.SyncService, opts ...SyncHandlerOption) *SyncHandler {
	h := &SyncHandler{
		syncService:   syncService,
		logger:        zap.NewNop(),
		heartbeat:     15 * time.Second,
		streamTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers sync routes under the sheet source resource
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sources := rg.Group("/sheet-sources/:id")
	{
		sources.POST("/sync", h.Start)
		sources.POST("/sync/cancel", h.Cancel)
		sources.GET("/sync/progress", h.Stream)
	}
}

// Start launches a sync run for a source. The run executes in the
// background; progress is available on the SSE stream.
func (h *SyncHandler) Start(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid source ID format")
		return
	}

	accepted, err := h.syncService.StartSync(c.Request.Context(), tenantID, sourceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Accepted(c, accepted)
}

// Cancel requests a cooperative abort of the source's running sync
func (h *SyncHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid source ID format")
		return
	}

	if err := h.syncService.CancelSync(c.Request.Context(), tenantID, sourceID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Accepted(c, gin.H{"source_id": sourceID, "cancelling": true})
}

// Stream delivers run progress as Server-Sent Events. The connection closes
// after the run's terminal event, on client disconnect, or when the stream
// timeout elapses.
func (h *SyncHandler) Stream(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid source ID format")
		return
	}

	events, unsubscribe := h.syncService.Subscribe(tenantID, sourceID)
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	h.sendEvent(c.Writer, "subscribed", fmt.Sprintf(`{"source_id":%q,"timestamp":%d}`, sourceID, time.Now().Unix()))
	c.Writer.Flush()

	h.logger.Debug("Progress stream opened",
		zap.String("tenant_id", tenantID.String()),
		zap.String("source_id", sourceID.String()),
	)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	deadline := time.NewTimer(h.streamTimeout)
	defer deadline.Stop()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			return
		case <-deadline.C:
			h.sendEvent(c.Writer, "timeout", `{"reason":"stream timeout"}`)
			c.Writer.Flush()
			return
		case <-heartbeat.C:
			h.sendEvent(c.Writer, "heartbeat", fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()))
			c.Writer.Flush()
		case event, ok := <-events:
			if !ok {
				// Broker tore the topic down after the terminal event
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to marshal progress event", zap.Error(err))
				continue
			}
			h.sendEvent(c.Writer, "progress", string(data))
			c.Writer.Flush()
			if event.Completed {
				return
			}
		}
	}
}

// sendEvent writes one SSE event to the response writer
func (h *SyncHandler) sendEvent(w io.Writer, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", data)
}
