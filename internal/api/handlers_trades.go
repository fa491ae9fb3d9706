package api

import (
	"net/http"
	"strconv"

	"binance-trading-bot/internal/apperr"

	"github.com/gin-gonic/gin"
)

// handleActiveTradesAll returns every trade still in waiting or active status.
func (s *Server) handleActiveTradesAll(c *gin.Context) {
	trades, err := s.repo.ListOpenTrades(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

// handleActiveTradesHistory returns closed and open trades together,
// most recent first, for the trade history view.
func (s *Server) handleActiveTradesHistory(c *gin.Context) {
	limit := 200
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	trades, err := s.repo.ListAllTradeHistory(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

type closeTradeRequest struct {
	Ticker    string  `json:"ticker" binding:"required"`
	Timeframe string  `json:"timeframe" binding:"required"`
	Price     float64 `json:"price" binding:"required"`
	Note      string  `json:"note"`
}

// handleCloseTrade closes an open trade by user action (§4.8 "User actions").
func (s *Server) handleCloseTrade(c *gin.Context) {
	var req closeTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.Validation, "REQUEST_INVALID", "invalid close trade request", err))
		return
	}
	if err := s.lifecycle.CloseTradeByUser(c.Request.Context(), req.Ticker, req.Timeframe, req.Price, req.Note); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": true})
}
