package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/httpmon/internal/model"
	"github.com/tinytelemetry/httpmon/internal/monitor"
)

// DefaultAddr is used when no listen address is configured.
const DefaultAddr = "127.0.0.1:3000"

// StatusSource exposes the last published monitor status.
type StatusSource interface {
	Current() monitor.Status
}

// Options wires the collaborators behind the API. Nil fields disable the
// routes that need them.
type Options struct {
	Status  StatusSource
	History model.HistoryReader
	Hub     *Hub
	Metrics http.Handler
}

// Server provides a read-only HTTP API over the monitor status and history.
// It never touches the monitor itself.
type Server struct {
	addr      string
	opts      Options
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, opts Options) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Handler builds the gin engine with every enabled route.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/status", s.handleStatus)
	r.GET("/api/alerts", s.handleAlerts)
	r.GET("/api/snapshots", s.handleSnapshots)
	r.GET("/api/events/counts", s.handleEventCounts)
	if s.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}
	if s.opts.Hub != nil {
		r.GET("/api/stream", func(c *gin.Context) {
			s.opts.Hub.ServeWS(c.Writer, c.Request)
		})
	}
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("httpserver: listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("httpserver: serve error: %v", err)
		}
	}()
	return nil
}

// Addr returns the active listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.opts.Hub != nil {
		s.opts.Hub.Close()
	}
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) status() monitor.Status {
	if s.opts.Status == nil {
		return monitor.Status{State: monitor.Normal.String()}
	}
	return s.opts.Status.Current()
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.status()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
		"records": st.Ingested,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.status())
}

func (s *Server) handleAlerts(c *gin.Context) {
	limit, ok := s.limit(c)
	if !ok {
		return
	}
	alerts, err := s.opts.History.RecentAlerts(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read alerts"})
		return
	}
	if alerts == nil {
		alerts = []model.AlertRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (s *Server) handleSnapshots(c *gin.Context) {
	limit, ok := s.limit(c)
	if !ok {
		return
	}
	snaps, err := s.opts.History.RecentSnapshots(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshots"})
		return
	}
	if snaps == nil {
		snaps = []model.SnapshotRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

func (s *Server) handleEventCounts(c *gin.Context) {
	if s.opts.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}
	counts, err := s.opts.History.EventCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read event counts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// limit parses ?limit= and checks that history is available. It writes the
// error response itself and reports false when the handler should stop.
func (s *Server) limit(c *gin.Context) (int, bool) {
	if s.opts.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return 0, false
	}
	raw := c.DefaultQuery("limit", "20")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 1000"})
		return 0, false
	}
	return n, true
}
