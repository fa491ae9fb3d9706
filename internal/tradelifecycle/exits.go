package tradelifecycle

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/quotes"
)

// checkExit fetches candles since the trigger and applies the
// profit/stop rules from §4.8. Active trades always bypass the
// historical-context age limit, and a newly created trade is exempt
// from exit evaluation for gracePeriod after its creation to avoid a
// stale candle closing it the instant it opens.
func (e *Engine) checkExit(ctx context.Context, t *database.Trade) error {
	if t.TriggerHitTime == nil {
		return nil
	}
	if time.Since(t.CreatedAt) < gracePeriod {
		return nil
	}

	candles, err := e.quotes.Candles(ctx, t.Ticker, t.Timeframe, *t.TriggerHitTime)
	if err != nil {
		return err
	}

	for _, c := range candles {
		status, price, ok := evaluateExit(t.Action, t.TargetPrice, t.StopLoss, c)
		if !ok {
			continue
		}
		return e.fireExit(ctx, t, status, price, c.Time)
	}
	return nil
}

// evaluateExit checks both profit and stop conditions for a single
// candle. If both fire in the same candle, the one whose boundary is
// closer to the candle's open wins; an actual tie favors stop
// (conservative tie-break, §4.8).
func evaluateExit(action database.TradeAction, target, stop float64, c quotes.Candle) (database.TradeStatus, float64, bool) {
	var profitHit, stopHit bool
	var profitPrice, stopPrice float64

	switch action {
	case database.ActionBuy:
		if c.High >= target {
			profitHit, profitPrice = true, target
		}
		if c.Low <= stop {
			stopHit, stopPrice = true, stop
		}
	case database.ActionSell:
		if c.Low <= target {
			profitHit, profitPrice = true, target
		}
		if c.High >= stop {
			stopHit, stopPrice = true, stop
		}
	}

	switch {
	case stopHit && profitHit:
		if math.Abs(profitPrice-c.Open) < math.Abs(stopPrice-c.Open) {
			return database.TradeProfitHit, profitPrice, true
		}
		return database.TradeStopHit, stopPrice, true
	case stopHit:
		return database.TradeStopHit, stopPrice, true
	case profitHit:
		return database.TradeProfitHit, profitPrice, true
	default:
		return "", 0, false
	}
}

func (e *Engine) fireExit(ctx context.Context, t *database.Trade, status database.TradeStatus, closePrice float64, hitTime time.Time) error {
	reason := "profit target reached"
	if status == database.TradeStopHit {
		reason = "stop loss reached"
	}
	details, _ := json.Marshal(map[string]interface{}{"hit_time": hitTime, "close_price": closePrice})

	realizedPnL := closePrice - t.EntryPrice
	if t.Action == database.ActionSell {
		realizedPnL = t.EntryPrice - closePrice
	}

	if err := e.repo.CloseTrade(ctx, t.ID, closePrice, realizedPnL, reason, status, database.UpdateTriggerHit, details); err != nil {
		return err
	}

	e.bus.PublishTradeClosed(t.ID, closePrice, realizedPnL, reason)
	return nil
}
