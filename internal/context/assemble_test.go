package promptctx

import (
	"strings"
	"testing"
	"time"

	"binance-trading-bot/internal/database"
)

func TestBandUrgency(t *testing.T) {
	tests := []struct {
		timeframe  string
		hoursSince float64
		want       Urgency
	}{
		{"1h", 1, UrgencyRecent},
		{"1h", 6, UrgencyActive},
		{"1h", 13, UrgencyStale},
		{"unknown-timeframe", 1, UrgencyRecent},
		{"1D", 10, UrgencyRecent},
		{"1D", 73, UrgencyStale},
	}

	for _, tt := range tests {
		got := BandUrgency(tt.timeframe, tt.hoursSince)
		if got != tt.want {
			t.Errorf("BandUrgency(%q, %v) = %v, want %v", tt.timeframe, tt.hoursSince, got, tt.want)
		}
	}
}

func TestAssembleActiveTradeBypassesLookback(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	trade := &database.Trade{
		Action:      database.ActionBuy,
		EntryPrice:  100,
		TargetPrice: 110,
		StopLoss:    90,
		Status:      database.TradeActive,
		CreatedAt:   now.Add(-96 * time.Hour),
	}

	prompt := Assemble("BTCUSDT", "1h", 105, trade, nil, now)

	if !strings.Contains(prompt.User, "lookback bypassed") {
		t.Error("Assemble() with an active trade did not mention lookback bypass")
	}
	if !strings.Contains(prompt.User, "entry_price: 100") {
		t.Error("Assemble() did not include the active trade's entry price")
	}
}

func TestAssembleClosedTradeFallsBackToRecentAnalysis(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	trade := &database.Trade{Status: database.TradeUserClosed, CreatedAt: now.Add(-96 * time.Hour)}
	recent := &database.Analysis{
		Ticker:            "BTCUSDT",
		Action:            database.ActionSell,
		Confidence:        0.8,
		AnalysisTimestamp: now.Add(-2 * time.Hour),
	}

	prompt := Assemble("BTCUSDT", "1h", 105, trade, recent, now)

	if strings.Contains(prompt.User, "lookback bypassed") {
		t.Error("Assemble() with a closed trade incorrectly used the active-trade branch")
	}
	if !strings.Contains(prompt.User, "Most recent analysis") {
		t.Error("Assemble() did not fall back to the most recent analysis for a closed trade")
	}
}

func TestAssembleNoPriorData(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	prompt := Assemble("ETHUSDT", "4h", 3000, nil, nil, now)

	if !strings.Contains(prompt.User, "No prior analysis or position") {
		t.Error("Assemble() with nil trade and analysis did not emit the no-prior-data branch")
	}
}
