// Package httpapi exposes refresh state and auto-refresh controls over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/ledger"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/logging"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/refresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/store"
	"github.com/gin-gonic/gin"
)

// DefaultAddr is used when no address is configured.
const DefaultAddr = "127.0.0.1:8787"

const defaultHistoryLimit = 20

// Coordinator is the refresh coordinator surface the API reads and drives.
type Coordinator interface {
	RefreshTab(ctx context.Context, tabID string) error
	State() refresh.State
	Tabs() []refresh.TabEntry
}

// Scheduler is the auto-refresh surface the API drives.
type Scheduler interface {
	Status() autorefresh.Status
	ForceRefresh(ctx context.Context) error
	Pause()
	Resume()
	Enable() error
	Disable() error
	ResetFailures()
}

// Summarizer computes monthly summaries.
type Summarizer interface {
	Summary(month time.Time) ledger.Summary
}

// History lists recent refresh runs.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Config wires the server. Summary and History may be nil, which disables
// their endpoints.
type Config struct {
	Addr        string
	Coordinator Coordinator
	Scheduler   Scheduler
	Summary     Summarizer
	History     History
	Logger      logging.Logger
	Now         func() time.Time
}

// Server provides the HTTP API.
type Server struct {
	cfg       Config
	engine    *gin.Engine
	server    *http.Server
	startTime time.Time
}

// NewServer creates a server and registers its routes.
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Server{cfg: cfg, startTime: cfg.Now()}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), s.logRequests())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found: " + c.Request.URL.Path})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed: " + c.Request.Method})
	})

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/state", s.handleState)
	api.POST("/tabs/:tab/refresh", s.handleRefreshTab)
	api.POST("/autorefresh/:action", s.handleAutoRefresh)
	if s.cfg.Summary != nil {
		api.GET("/summary", s.handleSummary)
	}
	if s.cfg.History != nil {
		api.GET("/history", s.handleHistory)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.engine,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	s.cfg.Logger.Info("http api listening", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.server.Serve(listener) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.cfg.Now()
		c.Next()
		s.cfg.Logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", s.cfg.Now().Sub(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"uptime":            s.cfg.Now().Sub(s.startTime).String(),
		"last_refresh_time": timeOrNil(s.cfg.Coordinator.State().LastRefreshTime),
	})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"refresh":     refreshView(s.cfg.Coordinator.State()),
		"tabs":        tabsView(s.cfg.Coordinator.Tabs()),
		"autorefresh": statusView(s.cfg.Scheduler.Status()),
	})
}

func (s *Server) handleRefreshTab(c *gin.Context) {
	tab := settings.Tab(c.Param("tab"))
	if !tab.IsValid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tab: " + string(tab)})
		return
	}

	if err := s.cfg.Coordinator.RefreshTab(c.Request.Context(), string(tab)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "tab": tab})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tab": tab, "refresh": refreshView(s.cfg.Coordinator.State())})
}

func (s *Server) handleAutoRefresh(c *gin.Context) {
	sched := s.cfg.Scheduler
	var err error
	switch action := c.Param("action"); action {
	case "enable":
		err = sched.Enable()
	case "disable":
		err = sched.Disable()
	case "pause":
		sched.Pause()
	case "resume":
		sched.Resume()
	case "reset":
		sched.ResetFailures()
	case "force":
		if err := sched.ForceRefresh(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "autorefresh": statusView(sched.Status())})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action: " + action})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "autorefresh": statusView(sched.Status())})
		return
	}
	c.JSON(http.StatusOK, gin.H{"autorefresh": statusView(sched.Status())})
}

func (s *Server) handleSummary(c *gin.Context) {
	month := s.cfg.Now()
	if raw := c.Query("month"); raw != "" {
		parsed, err := ledger.ParseMonth(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		month = parsed
	}
	sum := s.cfg.Summary.Summary(month)
	c.JSON(http.StatusOK, gin.H{
		"summary":         sum,
		"month_label":     ledger.FormatMonth(sum.Month),
		"collection_rate": sum.CollectionRate(),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.cfg.History.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.cfg.Logger.Error("failed to list refresh runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read refresh history"})
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
