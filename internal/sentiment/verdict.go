package sentiment

import (
	"binance-trading-bot/internal/ai"
	"binance-trading-bot/internal/database"
)

// aiTrend is the per-asset trend block the AI is asked to return.
type aiTrend struct {
	Direction string  `json:"trend_direction"`
	Strength  float64 `json:"trend_strength"`
}

// aiVerdict is the raw JSON shape the macro-sentiment prompt asks the
// model for, a direct mirror of the SentimentVerdict columns that
// come from the model rather than from market data.
type aiVerdict struct {
	OverallConfidence float64 `json:"overall_confidence"`
	MarketRegime      string  `json:"market_regime"`
	TradePermission   string  `json:"trade_permission"`
	BTC               aiTrend `json:"btc"`
	ETH               aiTrend `json:"eth"`
	Alt               aiTrend `json:"alt"`
}

// parseAIVerdict parses the model's raw completion into aiVerdict,
// trying strict JSON first and a markdown-fence-stripped retry second
// (ai.ParseVerdict), matching C10's strict-then-fallback contract.
func parseAIVerdict(raw string) (*aiVerdict, error) {
	var v aiVerdict
	if err := ai.ParseVerdict(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (v *aiVerdict) toDatabase() database.SentimentVerdict {
	clampConfidence := v.OverallConfidence
	if clampConfidence < 0 {
		clampConfidence = 0
	}
	if clampConfidence > 100 {
		clampConfidence = 100
	}
	return database.SentimentVerdict{
		OverallConfidence: clampConfidence,
		MarketRegime:      database.MarketRegime(v.MarketRegime),
		TradePermission:   database.TradePermission(v.TradePermission),
		BTC:               database.AssetTrend{Direction: database.TrendDirection(v.BTC.Direction), Strength: v.BTC.Strength},
		ETH:               database.AssetTrend{Direction: database.TrendDirection(v.ETH.Direction), Strength: v.ETH.Strength},
		Alt:               database.AssetTrend{Direction: database.TrendDirection(v.Alt.Direction), Strength: v.Alt.Strength},
	}
}
