// Package server exposes the admin HTTP API: storage stats, recent
// papers and manual run triggering.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arxwatch/arxwatch/internal/agent"
)

type Server struct {
	agent  *agent.Agent
	logger *zap.Logger
}

func NewServer(a *agent.Agent, logger *zap.Logger) *Server {
	return &Server{agent: a, logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.Health)
	r.GET("/api/stats", s.Stats)
	r.GET("/api/papers/recent", s.RecentPapers)
	r.POST("/api/run", s.Run)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Stats(c *gin.Context) {
	stats, err := s.agent.Store().Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("stats query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read storage stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) RecentPapers(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	papers, err := s.agent.Store().ListRecent(c.Request.Context(), since, limit)
	if err != nil {
		s.logger.Error("recent papers query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list papers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers, "count": len(papers)})
}

func (s *Server) Run(c *gin.Context) {
	stats, err := s.agent.RunOnce(c.Request.Context())
	if err != nil {
		s.logger.Error("manual run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":        stats.RunID,
		"candidates":    stats.Candidates,
		"fine_calls":    stats.FineCalls,
		"relevant":      stats.Relevant,
		"degraded":      stats.Degraded,
		"token_savings": stats.TokenSavings(),
	})
}
