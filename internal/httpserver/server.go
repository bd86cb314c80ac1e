package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/msglog/internal/metrics"
	"github.com/tinytelemetry/msglog/internal/model"
)

// Config holds optional HTTP surface settings.
type Config struct {
	// WSPath is the WebSocket binding path. Defaults to model.DefaultWSPath.
	WSPath string
	// WS upgrades and serves WebSocket connections. Nil disables the binding.
	WS http.Handler
	// CORS allows cross-origin browser clients.
	CORS bool
}

// Server provides the HTTP API and WebSocket binding of the message log.
type Server struct {
	addr      string
	svc       model.HTTPHandler
	cfg       Config
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, svc model.HTTPHandler, conf ...Config) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	var cfg Config
	if len(conf) > 0 {
		cfg = conf[0]
	}
	if cfg.WSPath == "" {
		cfg.WSPath = model.DefaultWSPath
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		svc:    svc,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.router(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = listener.Addr().String()
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the listen address; after Start it reflects the bound port.
func (s *Server) Addr() string { return s.addr }

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.cfg.CORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowWebSockets = true
		r.Use(cors.New(corsConfig))
	}

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/status", s.handleStatus)
	r.GET("/api/history", s.handleHistory)
	r.POST("/api/clear-history", s.handleClearHistory)
	r.POST("/api/log", s.handleLog)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if s.cfg.WS != nil {
		r.GET(s.cfg.WSPath, gin.WrapH(s.cfg.WS))
	}
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.GetStatus())
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.GetHistory())
}

func (s *Server) handleClearHistory(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.ClearHistory())
}

func (s *Server) handleLog(c *gin.Context) {
	var req struct {
		MessageType *string `json:"message_type" binding:"required"`
		Content     *string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing message_type/content field"})
		return
	}
	c.JSON(http.StatusOK, s.svc.LogCustomMessage(*req.MessageType, *req.Content))
}
