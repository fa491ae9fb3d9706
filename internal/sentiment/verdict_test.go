package sentiment

import (
	"testing"

	"binance-trading-bot/internal/database"
)

func TestParseAIVerdictStrictJSON(t *testing.T) {
	raw := `{"overall_confidence":72.5,"market_regime":"risk_on","trade_permission":"allow","btc":{"trend_direction":"up","trend_strength":0.8},"eth":{"trend_direction":"up","trend_strength":0.6},"alt":{"trend_direction":"flat","trend_strength":0.1}}`

	v, err := parseAIVerdict(raw)
	if err != nil {
		t.Fatalf("parseAIVerdict() error = %v, want nil", err)
	}
	if v.OverallConfidence != 72.5 {
		t.Errorf("OverallConfidence = %v, want 72.5", v.OverallConfidence)
	}
	if v.BTC.Direction != "up" {
		t.Errorf("BTC.Direction = %q, want %q", v.BTC.Direction, "up")
	}
}

func TestParseAIVerdictInvalidJSON(t *testing.T) {
	if _, err := parseAIVerdict("not json"); err == nil {
		t.Error("parseAIVerdict() error = nil for invalid input, want a parse error")
	}
}

func TestToDatabaseClampsConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"within range is preserved", 50, 50},
		{"negative is clamped to 0", -10, 0},
		{"over 100 is clamped to 100", 150, 100},
		{"exactly 0 is preserved", 0, 0},
		{"exactly 100 is preserved", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &aiVerdict{OverallConfidence: tt.in}
			got := v.toDatabase()
			if got.OverallConfidence != tt.want {
				t.Errorf("toDatabase().OverallConfidence = %v, want %v", got.OverallConfidence, tt.want)
			}
		})
	}
}

func TestToDatabaseMapsTrendsAndRegime(t *testing.T) {
	v := &aiVerdict{
		OverallConfidence: 60,
		MarketRegime:      "risk_off",
		TradePermission:   "NO_TRADE",
		BTC:               aiTrend{Direction: "down", Strength: 0.9},
		ETH:               aiTrend{Direction: "up", Strength: 0.2},
		Alt:               aiTrend{Direction: "flat", Strength: 0},
	}

	got := v.toDatabase()
	if got.MarketRegime != database.MarketRegime("risk_off") {
		t.Errorf("MarketRegime = %v, want %v", got.MarketRegime, "risk_off")
	}
	if got.TradePermission != database.PermissionNoTrade {
		t.Errorf("TradePermission = %v, want %v", got.TradePermission, database.PermissionNoTrade)
	}
	if got.BTC.Direction != database.TrendDirection("down") || got.BTC.Strength != 0.9 {
		t.Errorf("BTC = %+v, want direction=down strength=0.9", got.BTC)
	}
}
