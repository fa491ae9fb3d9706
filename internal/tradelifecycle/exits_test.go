package tradelifecycle

import (
	"testing"

	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/quotes"
)

func TestEvaluateExit(t *testing.T) {
	tests := []struct {
		name       string
		action     database.TradeAction
		target     float64
		stop       float64
		candle     quotes.Candle
		wantStatus database.TradeStatus
		wantPrice  float64
		wantOK     bool
	}{
		{
			name:       "buy profit hit",
			action:     database.ActionBuy,
			target:     110,
			stop:       90,
			candle:     quotes.Candle{Low: 95, High: 111},
			wantStatus: database.TradeProfitHit,
			wantPrice:  110,
			wantOK:     true,
		},
		{
			name:       "buy stop hit",
			action:     database.ActionBuy,
			target:     110,
			stop:       90,
			candle:     quotes.Candle{Low: 89, High: 105},
			wantStatus: database.TradeStopHit,
			wantPrice:  90,
			wantOK:     true,
		},
		{
			name:       "buy both hit, stop closer to open wins",
			action:     database.ActionBuy,
			target:     110,
			stop:       90,
			candle:     quotes.Candle{Open: 92, Low: 89, High: 111},
			wantStatus: database.TradeStopHit,
			wantPrice:  90,
			wantOK:     true,
		},
		{
			name:       "buy both hit, profit closer to open wins",
			action:     database.ActionBuy,
			target:     110,
			stop:       90,
			candle:     quotes.Candle{Open: 108, Low: 89, High: 111},
			wantStatus: database.TradeProfitHit,
			wantPrice:  110,
			wantOK:     true,
		},
		{
			name:       "buy both hit, equidistant from open falls back to stop",
			action:     database.ActionBuy,
			target:     110,
			stop:       90,
			candle:     quotes.Candle{Open: 100, Low: 89, High: 111},
			wantStatus: database.TradeStopHit,
			wantPrice:  90,
			wantOK:     true,
		},
		{
			name:   "buy neither hit",
			action: database.ActionBuy,
			target: 110,
			stop:   90,
			candle: quotes.Candle{Low: 95, High: 105},
			wantOK: false,
		},
		{
			name:       "sell profit hit",
			action:     database.ActionSell,
			target:     90,
			stop:       110,
			candle:     quotes.Candle{Low: 89, High: 100},
			wantStatus: database.TradeProfitHit,
			wantPrice:  90,
			wantOK:     true,
		},
		{
			name:       "sell stop hit",
			action:     database.ActionSell,
			target:     90,
			stop:       110,
			candle:     quotes.Candle{Low: 95, High: 111},
			wantStatus: database.TradeStopHit,
			wantPrice:  110,
			wantOK:     true,
		},
		{
			name:       "sell both hit, stop closer to open wins",
			action:     database.ActionSell,
			target:     90,
			stop:       110,
			candle:     quotes.Candle{Open: 105, Low: 89, High: 111},
			wantStatus: database.TradeStopHit,
			wantPrice:  110,
			wantOK:     true,
		},
		{
			name:       "sell both hit, profit closer to open wins",
			action:     database.ActionSell,
			target:     90,
			stop:       110,
			candle:     quotes.Candle{Open: 95, Low: 89, High: 111},
			wantStatus: database.TradeProfitHit,
			wantPrice:  90,
			wantOK:     true,
		},
		{
			name:       "sell both hit, equidistant from open falls back to stop",
			action:     database.ActionSell,
			target:     90,
			stop:       110,
			candle:     quotes.Candle{Open: 100, Low: 89, High: 111},
			wantStatus: database.TradeStopHit,
			wantPrice:  110,
			wantOK:     true,
		},
		{
			name:   "sell neither hit",
			action: database.ActionSell,
			target: 90,
			stop:   110,
			candle: quotes.Candle{Low: 95, High: 100},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, price, ok := evaluateExit(tt.action, tt.target, tt.stop, tt.candle)
			if ok != tt.wantOK {
				t.Fatalf("evaluateExit() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if status != tt.wantStatus {
				t.Errorf("evaluateExit() status = %v, want %v", status, tt.wantStatus)
			}
			if price != tt.wantPrice {
				t.Errorf("evaluateExit() price = %v, want %v", price, tt.wantPrice)
			}
		})
	}
}
