package tradelifecycle

import (
	"context"
	"strings"

	"binance-trading-bot/internal/apperr"
	"binance-trading-bot/internal/context"
	"binance-trading-bot/internal/database"
)

// CreateTradeFromAnalysis validates an analysis verdict against the
// MAINTAIN rule and the action/existing-trade constraints, then
// persists a new waiting trade. The caller's own analysis_id and raw
// snapshot bytes are stored verbatim for the original_*_snapshot
// columns and for orphan recovery.
func (e *Engine) CreateTradeFromAnalysis(
	ctx context.Context,
	ticker, timeframe string,
	analysisID int64,
	verdict *promptctx.Verdict,
	analysisSnapshot, contextSnapshot []byte,
) (*database.Trade, error) {
	var created *database.Trade
	var outerErr error

	e.withLock(ticker, timeframe, func() {
		created, outerErr = e.createLocked(ctx, ticker, timeframe, analysisID, verdict, analysisSnapshot, contextSnapshot)
	})
	return created, outerErr
}

func (e *Engine) createLocked(
	ctx context.Context,
	ticker, timeframe string,
	analysisID int64,
	verdict *promptctx.Verdict,
	analysisSnapshot, contextSnapshot []byte,
) (*database.Trade, error) {
	status := strings.ToUpper(strings.TrimSpace(verdict.ContextAssessment.PreviousPositionStatus))
	if status == "MAINTAIN" {
		return nil, apperr.New(apperr.Validation, "TRADE_MAINTAIN_VERDICT", "a MAINTAIN verdict must not create a new trade")
	}

	if sv, err := e.repo.LatestVerdict(ctx); err == nil && sv != nil && sv.TradePermission == database.PermissionNoTrade {
		return nil, apperr.New(apperr.Conflict, "TRADE_PERMISSION_DENIED", "macro sentiment currently forbids new trades")
	}

	action := strings.ToLower(strings.TrimSpace(verdict.Recommendation.Action))
	var tradeAction database.TradeAction
	switch action {
	case "buy":
		tradeAction = database.ActionBuy
	case "sell":
		tradeAction = database.ActionSell
	default:
		return nil, apperr.New(apperr.Validation, "TRADE_ACTION_INVALID", "recommendation action must be buy or sell")
	}

	if verdict.Recommendation.EntryPrice == nil || verdict.Recommendation.TargetPrice == nil || verdict.Recommendation.StopLoss == nil {
		return nil, apperr.New(apperr.Validation, "TRADE_LEVELS_MISSING", "recommendation is missing entry, target or stop price")
	}

	entryCondition := ""
	if strategies := verdict.DetailedAnalysis.TradingAnalysis.EntryStrategies; len(strategies) > 0 {
		entryCondition = strategies[0].EntryCondition
	}
	strategy := database.StrategyTraditional
	if isBreakout(entryCondition) {
		strategy = database.StrategyBreakout
	}

	t := &database.Trade{
		AnalysisID:               analysisID,
		Ticker:                   ticker,
		Timeframe:                timeframe,
		Action:                   tradeAction,
		EntryPrice:               *verdict.Recommendation.EntryPrice,
		TargetPrice:              *verdict.Recommendation.TargetPrice,
		StopLoss:                 *verdict.Recommendation.StopLoss,
		EntryCondition:           entryCondition,
		EntryStrategy:            strategy,
		Status:                   database.TradeWaiting,
		OriginalAnalysisSnapshot: analysisSnapshot,
		OriginalContextSnapshot:  contextSnapshot,
	}

	if err := e.repo.InsertTrade(ctx, t); err != nil {
		return nil, err
	}

	e.bus.PublishTradeOpened(ticker, timeframe, string(tradeAction), t.EntryPrice)
	return t, nil
}
