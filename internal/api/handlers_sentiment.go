package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// handleSentimentStatus returns the macro sentiment engine's current
// system state and latest verdict.
func (s *Server) handleSentimentStatus(c *gin.Context) {
	ctx := c.Request.Context()
	state, err := s.sentiment.Status(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	verdict, err := s.sentiment.LatestVerdict(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "latest_verdict": verdict})
}

// handleSentimentAnalyze forces an immediate analysis against the
// latest market snapshot, bypassing the debounce window.
func (s *Server) handleSentimentAnalyze(c *gin.Context) {
	if err := s.sentiment.TriggerAnalysis(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggered": true})
}

// handleSentimentScan runs one ingest-and-maybe-analyze cycle on demand.
func (s *Server) handleSentimentScan(c *gin.Context) {
	s.sentiment.TriggerScan(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"triggered": true})
}

// handleSentimentHistory returns the confidence series over a lookback
// window, defaulting to 30 days.
func (s *Server) handleSentimentHistory(c *gin.Context) {
	days := 30
	if v := c.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	points, err := s.sentiment.ConfidenceHistory(c.Request.Context(), since)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// handleSentimentBootstrap seeds the sentiment engine's historical
// baseline when the system state table is empty.
func (s *Server) handleSentimentBootstrap(c *gin.Context) {
	if err := s.sentiment.Bootstrap(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bootstrapped": true})
}
