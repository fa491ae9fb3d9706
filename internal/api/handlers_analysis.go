package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"binance-trading-bot/internal/ai"
	"binance-trading-bot/internal/apperr"
	promptctx "binance-trading-bot/internal/context"
	"binance-trading-bot/internal/database"

	"github.com/gin-gonic/gin"
)

// analyzeContext is the JSON payload carried in the "context" form
// field of POST /api/chart-analysis/analyze.
type analyzeContext struct {
	Timeframe    string  `json:"timeframe"`
	CurrentPrice float64 `json:"current_price"`
}

// handleAnalyze assembles a prompt for (ticker, timeframe, current
// price) plus any active trade or recent analysis, sends it with the
// uploaded chart image to the AI client, persists the resulting
// Analysis, and routes the parsed verdict into the trade lifecycle
// engine (create, maintain, modify, close or replace).
func (s *Server) handleAnalyze(c *gin.Context) {
	ticker := c.PostForm("ticker")
	if ticker == "" {
		respondError(c, apperr.New(apperr.Validation, "TICKER_REQUIRED", "ticker is required"))
		return
	}

	var reqCtx analyzeContext
	if raw := c.PostForm("context"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &reqCtx); err != nil {
			respondError(c, apperr.Wrap(apperr.Validation, "CONTEXT_INVALID", "context is not valid JSON", err))
			return
		}
	}
	if reqCtx.Timeframe == "" {
		reqCtx.Timeframe = "1h"
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, apperr.Wrap(apperr.Validation, "IMAGE_REQUIRED", "image is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, apperr.Wrap(apperr.Validation, "IMAGE_UNREADABLE", "could not read uploaded image", err))
		return
	}
	defer file.Close()
	imgBytes, err := io.ReadAll(file)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.Validation, "IMAGE_UNREADABLE", "could not read uploaded image", err))
		return
	}

	ctx := c.Request.Context()

	trade, err := s.repo.GetOpenTrade(ctx, ticker, reqCtx.Timeframe)
	if err != nil {
		respondError(c, err)
		return
	}
	recentList, err := s.repo.ListAnalyses(ctx, ticker, time.Now().Add(-30*24*time.Hour), 1)
	if err != nil {
		respondError(c, err)
		return
	}
	var recent *database.Analysis
	if len(recentList) > 0 {
		recent = recentList[0]
	}

	prompt := promptctx.Assemble(ticker, reqCtx.Timeframe, reqCtx.CurrentPrice, trade, recent, time.Now())
	raw, err := s.ai.Analyze(ctx, prompt.System, prompt.User, []ai.Image{{PNG: imgBytes, Label: "chart"}})
	if err != nil {
		respondError(c, err)
		return
	}
	verdict, _ := promptctx.ParseResponse(raw)

	detailedJSON, _ := json.Marshal(verdict.DetailedAnalysis)
	contextJSON, _ := json.Marshal(verdict.ContextAssessment)

	analysis := &database.Analysis{
		Ticker:            ticker,
		Timeframe:         reqCtx.Timeframe,
		Confidence:        verdict.Confidence,
		Action:            database.TradeAction(verdict.Recommendation.Action),
		EntryPrice:        verdict.Recommendation.EntryPrice,
		TargetPrice:       verdict.Recommendation.TargetPrice,
		StopLoss:          verdict.Recommendation.StopLoss,
		Reasoning:         verdict.Recommendation.Reasoning,
		DetailedAnalysis:  detailedJSON,
		ContextAssessment: contextJSON,
		ModelUsed:         s.modelName,
	}
	if err := s.repo.InsertAnalysis(ctx, analysis); err != nil {
		respondError(c, err)
		return
	}

	s.routeVerdict(ctx, ticker, reqCtx.Timeframe, analysis, verdict, reqCtx.CurrentPrice)

	c.JSON(http.StatusOK, analysis)
}

// routeVerdict applies the parsed verdict to the trade lifecycle
// engine. Failures are logged, not surfaced: the Analysis itself was
// already persisted successfully and is the primary response body.
func (s *Server) routeVerdict(ctx context.Context, ticker, timeframe string, analysis *database.Analysis, verdict *promptctx.Verdict, currentPrice float64) {
	analysisJSON, _ := json.Marshal(analysis)
	contextJSON, _ := json.Marshal(verdict.ContextAssessment)

	existing, err := s.repo.GetOpenTrade(ctx, ticker, timeframe)
	if err != nil {
		s.log.Error("routeVerdict: failed to check open trade", "ticker", ticker, "timeframe", timeframe, "error", err)
		return
	}
	if existing != nil {
		if applyErr := s.lifecycle.ApplyAIAction(ctx, ticker, timeframe, verdict, analysis.ID, analysisJSON, contextJSON, currentPrice); applyErr != nil {
			s.log.Warn("routeVerdict: AI action failed", "ticker", ticker, "timeframe", timeframe, "error", applyErr)
		}
		return
	}
	if _, createErr := s.lifecycle.CreateTradeFromAnalysis(ctx, ticker, timeframe, analysis.ID, verdict, analysisJSON, contextJSON); createErr != nil {
		s.log.Debug("routeVerdict: trade not created", "ticker", ticker, "timeframe", timeframe, "reason", createErr)
	}
}

// handleAnalysisHistory returns analyses for a ticker, most recent first.
func (s *Server) handleAnalysisHistory(c *gin.Context) {
	ticker := c.Param("ticker")
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	analyses, err := s.repo.ListAnalyses(c.Request.Context(), ticker, time.Now().Add(-365*24*time.Hour), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analyses)
}

// handleDeleteAnalysis deletes an analysis, enforcing the
// referential-integrity guard (§4.2): refused with 409 if any trade
// still references it, unless force is set and nothing references it
// (force carries no override power; it is accepted for API symmetry
// with the bulk variant per repository_analysis.go's DeleteAnalysis).
func (s *Server) handleDeleteAnalysis(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.New(apperr.Validation, "ID_INVALID", "id must be numeric"))
		return
	}
	force := c.Query("force") == "true"
	if err := s.repo.DeleteAnalysis(c.Request.Context(), id, force); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
