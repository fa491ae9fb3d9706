package tradelifecycle

import (
	"context"
	"encoding/json"
	"strings"

	"binance-trading-bot/internal/apperr"
	"binance-trading-bot/internal/context"
	"binance-trading-bot/internal/database"
)

// ApplyAIAction applies the next analysis' context_assessment verdict
// to an existing open trade: MAINTAIN, MODIFY, CLOSE or REPLACE
// (§4.8). analysisID/snapshots are only used by REPLACE, to seed the
// trade it creates in place of the one it closes.
func (e *Engine) ApplyAIAction(
	ctx context.Context,
	ticker, timeframe string,
	verdict *promptctx.Verdict,
	analysisID int64,
	analysisSnapshot, contextSnapshot []byte,
	currentPrice float64,
) error {
	var outerErr error
	e.withLock(ticker, timeframe, func() {
		outerErr = e.applyAIActionLocked(ctx, ticker, timeframe, verdict, analysisID, analysisSnapshot, contextSnapshot, currentPrice)
	})
	return outerErr
}

func (e *Engine) applyAIActionLocked(
	ctx context.Context,
	ticker, timeframe string,
	verdict *promptctx.Verdict,
	analysisID int64,
	analysisSnapshot, contextSnapshot []byte,
	currentPrice float64,
) error {
	trade, err := e.repo.GetOpenTrade(ctx, ticker, timeframe)
	if err != nil {
		return err
	}
	if trade == nil {
		return apperr.New(apperr.NotFound, "TRADE_NOT_OPEN", "no open trade for this ticker and timeframe")
	}

	status := strings.ToUpper(strings.TrimSpace(verdict.ContextAssessment.PreviousPositionStatus))
	switch status {
	case "MAINTAIN":
		return e.repo.InsertTradeUpdate(ctx, &database.TradeUpdate{
			TradeID:    trade.ID,
			UpdateType: database.UpdateMaintain,
			Notes:      "AI recommended maintaining the existing trade",
		})

	case "MODIFY":
		return e.applyModify(ctx, trade, verdict)

	case "CLOSE":
		return e.applyClose(ctx, trade, verdict, currentPrice)

	case "REPLACE":
		if err := e.applyClose(ctx, trade, verdict, currentPrice); err != nil {
			return err
		}
		_, err := e.createLocked(ctx, ticker, timeframe, analysisID, verdict, analysisSnapshot, contextSnapshot)
		return err

	default:
		// Unrecognized status is treated the same as MAINTAIN
		// (permissive, per the creation rule's "non-dict is not
		// MAINTAIN" precedent extended to the update path) but logged.
		e.log.Warn("unrecognized previous_position_status, treating as maintain", "status", status, "ticker", ticker, "timeframe", timeframe)
		return e.repo.InsertTradeUpdate(ctx, &database.TradeUpdate{
			TradeID:    trade.ID,
			UpdateType: database.UpdateMaintain,
			Notes:      "unrecognized status '" + status + "' treated as maintain",
		})
	}
}

func (e *Engine) applyModify(ctx context.Context, trade *database.Trade, verdict *promptctx.Verdict) error {
	assessment := verdict.ContextAssessment
	if assessment.NewTargetPrice == nil && assessment.NewStopLoss == nil {
		return apperr.New(apperr.Validation, "TRADE_MODIFY_EMPTY", "MODIFY requires a new target price or stop loss")
	}

	payload, _ := json.Marshal(assessment)
	if err := e.repo.UpdateTradeFields(ctx, trade.ID, trade.UpdatedAt, database.TradePatch{
		TargetPrice: assessment.NewTargetPrice,
		StopLoss:    assessment.NewStopLoss,
	}); err != nil {
		return err
	}
	if err := e.repo.InsertTradeUpdate(ctx, &database.TradeUpdate{
		TradeID:    trade.ID,
		UpdateType: database.UpdateModify,
		Payload:    payload,
		Notes:      assessment.Notes,
	}); err != nil {
		return err
	}

	e.bus.PublishTradeUpdated(trade.ID, string(trade.Status))
	return nil
}

func (e *Engine) applyClose(ctx context.Context, trade *database.Trade, verdict *promptctx.Verdict, currentPrice float64) error {
	closePrice := currentPrice
	if verdict.ContextAssessment.ClosePrice != nil {
		closePrice = *verdict.ContextAssessment.ClosePrice
	}
	details, _ := json.Marshal(verdict.ContextAssessment)

	realizedPnL := closePrice - trade.EntryPrice
	if trade.Action == database.ActionSell {
		realizedPnL = trade.EntryPrice - closePrice
	}

	if err := e.repo.CloseTrade(ctx, trade.ID, closePrice, realizedPnL, "AI recommended close", database.TradeAIClosed, database.UpdateStatusCorrection, details); err != nil {
		return err
	}

	e.bus.PublishTradeClosed(trade.ID, closePrice, realizedPnL, "ai_closed")
	return nil
}
