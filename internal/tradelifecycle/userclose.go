package tradelifecycle

import (
	"context"
	"encoding/json"

	"binance-trading-bot/internal/apperr"
	"binance-trading-bot/internal/database"
)

// CloseTradeByUser closes the open trade for (ticker, timeframe) at
// the caller-supplied price. Always succeeds if a non-closed trade
// exists (§4.8 "User actions").
func (e *Engine) CloseTradeByUser(ctx context.Context, ticker, timeframe string, price float64, note string) error {
	var outerErr error
	e.withLock(ticker, timeframe, func() {
		outerErr = e.closeByUserLocked(ctx, ticker, timeframe, price, note)
	})
	return outerErr
}

func (e *Engine) closeByUserLocked(ctx context.Context, ticker, timeframe string, price float64, note string) error {
	trade, err := e.repo.GetOpenTrade(ctx, ticker, timeframe)
	if err != nil {
		return err
	}
	if trade == nil {
		return apperr.New(apperr.NotFound, "TRADE_NOT_OPEN", "no open trade for this ticker and timeframe")
	}

	details, _ := json.Marshal(map[string]string{"note": note})

	realizedPnL := price - trade.EntryPrice
	if trade.Action == database.ActionSell {
		realizedPnL = trade.EntryPrice - price
	}

	if err := e.repo.CloseTrade(ctx, trade.ID, price, realizedPnL, "user_closed", database.TradeUserClosed, database.UpdateStatusCorrection, details); err != nil {
		return err
	}

	e.bus.PublishTradeClosed(trade.ID, price, realizedPnL, "user_closed")
	return nil
}
