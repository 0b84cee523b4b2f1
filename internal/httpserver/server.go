package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eigenwallet/swapwatch/internal/logparse"
	"github.com/eigenwallet/swapwatch/internal/protocol"
	"github.com/eigenwallet/swapwatch/internal/readmodel"
)

// QueryStore is the narrow store contract required by the HTTP API.
type QueryStore interface {
	SwapViews() []readmodel.SwapView
	SwapView(swapID string) (readmodel.SwapView, bool)
	Connection() (readmodel.ConnectionView, bool)
	PendingApprovals() []protocol.ApprovalRequest
	RecentLogs(limit int) []logparse.Entry
	Background() readmodel.BackgroundView
	Balance() (uint64, bool)
	ResolveApproval(ctx context.Context, requestID string, accept bool) error
}

// FeedStats reports event stream health for the health endpoint.
type FeedStats interface {
	Stats() (connected bool, uptime time.Duration, frames, dropped uint64)
}

// Server provides a read-only HTTP API over the session read model, plus the
// approval resolution endpoint.
type Server struct {
	addr      string
	store     QueryStore
	feed      FeedStats
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server. feed may be nil.
func NewServer(addr string, store QueryStore, feed FeedStats) *Server {
	if addr == "" {
		addr = "127.0.0.1:7401"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		store:  store,
		feed:   feed,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/swaps", s.handleSwaps)
	r.GET("/api/swaps/:id", s.handleSwap)
	r.GET("/api/connection", s.handleConnection)
	r.GET("/api/approvals", s.handleApprovals)
	r.POST("/api/approvals/:id/resolve", s.handleResolveApproval)
	r.GET("/api/logs", s.handleLogs)
	r.GET("/api/background", s.handleBackground)
	r.GET("/api/balance", s.handleBalance)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// requestID tags every response with an X-Request-ID, honoring one supplied
// by the caller.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	payload := gin.H{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).String(),
		"swap_count": len(s.store.SwapViews()),
	}
	if s.feed != nil {
		connected, uptime, frames, dropped := s.feed.Stats()
		payload["feed"] = gin.H{
			"connected":      connected,
			"uptime":         uptime.String(),
			"frames":         frames,
			"dropped_frames": dropped,
		}
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleSwaps(c *gin.Context) {
	views := s.store.SwapViews()
	c.JSON(http.StatusOK, gin.H{
		"swaps": views,
		"count": len(views),
	})
}

func (s *Server) handleSwap(c *gin.Context) {
	view, ok := s.store.SwapView(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown swap"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleConnection(c *gin.Context) {
	view, ok := s.store.Connection()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"known": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"known": true, "connection": view})
}

func (s *Server) handleApprovals(c *gin.Context) {
	approvals := s.store.PendingApprovals()
	c.JSON(http.StatusOK, gin.H{
		"approvals": approvals,
		"count":     len(approvals),
	})
}

func (s *Server) handleResolveApproval(c *gin.Context) {
	var req struct {
		Accept *bool `json:"accept" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing accept field"})
		return
	}

	if err := s.store.ResolveApproval(c.Request.Context(), c.Param("id"), *req.Accept); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

func (s *Server) handleLogs(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	entries := s.store.RecentLogs(limit)
	c.JSON(http.StatusOK, gin.H{
		"logs":  entries,
		"count": len(entries),
	})
}

func (s *Server) handleBackground(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Background())
}

func (s *Server) handleBalance(c *gin.Context) {
	balance, known := s.store.Balance()
	c.JSON(http.StatusOK, gin.H{"balance": balance, "known": known})
}

