package server

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/larvik/hostmon/internal/alert"
	"github.com/larvik/hostmon/internal/config"
	"github.com/larvik/hostmon/internal/models"
	"github.com/larvik/hostmon/internal/report"
	"github.com/larvik/hostmon/internal/store"
)

// alertLimitCap bounds the limit query parameter on /api/alerts.
const alertLimitCap = 500

// Collector produces classified snapshots on demand. Dashboard reads are
// pure: they never append to the alert log.
type Collector interface {
	Collect() models.Snapshot
}

// AlertHistory serves persisted critical events.
type AlertHistory interface {
	Recent(n int) ([]store.Alert, error)
}

// Server wires the dashboard API to the monitoring subsystems.
type Server struct {
	cfg       *config.Config
	collector Collector
	history   AlertHistory
	alog      *alert.Log
	hostInfo  func() models.HostInfo
	jwtSecret []byte
}

// New assembles a dashboard server. history may be nil when the alert
// database is unavailable; the endpoint then serves the log tail only.
func New(cfg *config.Config, collector Collector, history AlertHistory, alog *alert.Log) *Server {
	return &Server{
		cfg:       cfg,
		collector: collector,
		history:   history,
		alog:      alog,
		hostInfo:  report.ProbeHost,
		jwtSecret: []byte(cfg.JWTSecret),
	}
}

// Engine builds the Gin engine with all dashboard routes.
//
//	Public:          GET /healthz, POST /api/login, static UI
//	Protected (JWT): remaining /api/* routes
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	api := r.Group("/api")
	api.POST("/login", s.handleLogin)

	auth := api.Group("/", s.jwtMiddleware())
	{
		auth.GET("/status", s.handleStatus)
		auth.GET("/alerts", s.handleAlerts)
		auth.GET("/settings", s.handleSettings)
		auth.PUT("/settings", s.handleSettingsUpdate)
	}

	registerStatic(r)
	return r
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.ServeAddr, Handler: s.Engine()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Printf("[server] dashboard on http://%s", s.cfg.ServeAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}

// ── Handlers ──────────────────────────────────────────────────────────────

// handleLogin accepts username + password and returns a signed JWT.
//
//	POST /api/login
//	Body: { "username": "admin", "password": "admin" }
func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(body.Username), []byte(s.cfg.AdminUser)) == 1
	if !userOK || !verifyPassword(s.cfg.AdminPass, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.generateJWT(body.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(sessionTTL / time.Second),
		"type":       "Bearer",
	})
}

// handleStatus runs one collection pass and returns the classified
// snapshot with host identity.
func (s *Server) handleStatus(c *gin.Context) {
	snap := s.collector.Collect()
	c.JSON(http.StatusOK, gin.H{
		"snapshot": snap,
		"overall":  snap.Worst(),
		"host":     s.hostInfo(),
	})
}

// handleAlerts returns persisted critical events plus the alert-log tail.
func (s *Server) handleAlerts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if limit > alertLimitCap {
		limit = alertLimitCap
	}

	history := []store.Alert{}
	if s.history != nil {
		history, err = s.history.Recent(limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	lines, err := s.alog.Tail(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history, "log": lines})
}

// handleSettings lists the editable monitor settings.
func (s *Server) handleSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": s.cfg.Keys()})
}

// handleSettingsUpdate validates and persists one setting. A running
// monitor session keeps its captured values; the next session picks the
// change up.
func (s *Server) handleSettingsUpdate(c *gin.Context) {
	var body struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key and value required"})
		return
	}
	if err := s.cfg.Set(body.Key, body.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": body.Key})
}
