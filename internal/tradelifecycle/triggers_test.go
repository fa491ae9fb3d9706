package tradelifecycle

import (
	"testing"

	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/quotes"
)

func TestEvaluateTrigger(t *testing.T) {
	tests := []struct {
		name       string
		action     database.TradeAction
		breakout   bool
		entryPrice float64
		candle     quotes.Candle
		wantHit    bool
		wantPrice  float64
	}{
		{
			name:       "buy traditional hits when low touches entry",
			action:     database.ActionBuy,
			breakout:   false,
			entryPrice: 100,
			candle:     quotes.Candle{Low: 99, High: 105},
			wantHit:    true,
			wantPrice:  99,
		},
		{
			name:       "buy traditional misses when low stays above entry",
			action:     database.ActionBuy,
			breakout:   false,
			entryPrice: 100,
			candle:     quotes.Candle{Low: 101, High: 105},
			wantHit:    false,
		},
		{
			name:       "buy breakout hits when high pushes through entry",
			action:     database.ActionBuy,
			breakout:   true,
			entryPrice: 100,
			candle:     quotes.Candle{Low: 95, High: 101},
			wantHit:    true,
			wantPrice:  101,
		},
		{
			name:       "buy breakout misses when high stays below entry",
			action:     database.ActionBuy,
			breakout:   true,
			entryPrice: 100,
			candle:     quotes.Candle{Low: 95, High: 99},
			wantHit:    false,
		},
		{
			name:       "sell traditional hits when high touches entry",
			action:     database.ActionSell,
			breakout:   false,
			entryPrice: 100,
			candle:     quotes.Candle{Low: 95, High: 100},
			wantHit:    true,
			wantPrice:  100,
		},
		{
			name:       "sell traditional misses when high stays below entry",
			action:     database.ActionSell,
			breakout:   false,
			entryPrice: 100,
			candle:     quotes.Candle{Low: 95, High: 99},
			wantHit:    false,
		},
		{
			name:       "sell breakout hits when low pushes through entry",
			action:     database.ActionSell,
			breakout:   true,
			entryPrice: 100,
			candle:     quotes.Candle{Low: 99, High: 105},
			wantHit:    true,
			wantPrice:  99,
		},
		{
			name:       "sell breakout misses when low stays above entry",
			action:     database.ActionSell,
			breakout:   true,
			entryPrice: 100,
			candle:     quotes.Candle{Low: 101, High: 105},
			wantHit:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, price := evaluateTrigger(tt.action, tt.breakout, tt.entryPrice, tt.candle)
			if hit != tt.wantHit {
				t.Errorf("evaluateTrigger() hit = %v, want %v", hit, tt.wantHit)
			}
			if hit && price != tt.wantPrice {
				t.Errorf("evaluateTrigger() price = %v, want %v", price, tt.wantPrice)
			}
		})
	}
}
