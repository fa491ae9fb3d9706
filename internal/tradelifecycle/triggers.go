package tradelifecycle

import (
	"context"
	"time"

	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/quotes"
)

// checkTrigger fetches candles since the trade's creation and applies
// the traditional/breakout BUY/SELL rules from §4.8. A waiting trade
// whose parent analysis is older than maxHistoricalAnalysisAge is
// skipped entirely — the 48-hour limit only ever applies here, since
// a trade that already turned active bypasses it by construction:
// checkExit, not this function, evaluates active trades.
func (e *Engine) checkTrigger(ctx context.Context, t *database.Trade) error {
	if time.Since(t.CreatedAt) > maxHistoricalAnalysisAge {
		e.log.Debug("skipping trigger check, analysis too old", "ticker", t.Ticker, "timeframe", t.Timeframe)
		return nil
	}

	candles, err := e.quotes.Candles(ctx, t.Ticker, t.Timeframe, t.CreatedAt)
	if err != nil {
		return err
	}

	breakout := t.EntryStrategy == database.StrategyBreakout

	for _, c := range candles {
		hit, price := evaluateTrigger(t.Action, breakout, t.EntryPrice, c)
		if !hit {
			continue
		}
		return e.fireTrigger(ctx, t, c.Time, price)
	}
	return nil
}

// evaluateTrigger applies the four BUY/SELL x traditional/breakout
// rules. A traditional order waits for price to come back to the
// entry level; a breakout order waits for price to push through it.
func evaluateTrigger(action database.TradeAction, breakout bool, entryPrice float64, c quotes.Candle) (bool, float64) {
	switch {
	case action == database.ActionBuy && !breakout:
		if c.Low <= entryPrice {
			return true, c.Low
		}
	case action == database.ActionBuy && breakout:
		if c.High >= entryPrice {
			return true, c.High
		}
	case action == database.ActionSell && !breakout:
		if c.High >= entryPrice {
			return true, c.High
		}
	case action == database.ActionSell && breakout:
		if c.Low <= entryPrice {
			return true, c.Low
		}
	}
	return false, 0
}

func (e *Engine) fireTrigger(ctx context.Context, t *database.Trade, hitTime time.Time, hitPrice float64) error {
	active := database.TradeActive
	if err := e.repo.UpdateTradeFields(ctx, t.ID, t.UpdatedAt, database.TradePatch{
		Status:          &active,
		TriggerHitTime:  &hitTime,
		TriggerHitPrice: &hitPrice,
	}); err != nil {
		return err
	}
	e.bus.PublishTradeUpdated(t.ID, string(active))
	return e.repo.InsertTradeUpdate(ctx, &database.TradeUpdate{
		TradeID:    t.ID,
		Price:      &hitPrice,
		UpdateType: database.UpdateTriggerHit,
		Notes:      "entry trigger hit",
	})
}
