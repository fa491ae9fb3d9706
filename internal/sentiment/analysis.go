package sentiment

import (
	"context"
	"fmt"
	"time"

	"binance-trading-bot/internal/ai"
	"binance-trading-bot/internal/chart"
	"binance-trading-bot/internal/database"
)

const chartWindow = 90 * 24 * time.Hour

// runAnalysis renders the chart set, builds the macro-sentiment
// prompt, calls the AI client and persists the resulting verdict.
// Each chart renders independently (§4.6); a failed chart is simply
// omitted rather than failing the whole analysis.
func (e *Engine) runAnalysis(ctx context.Context, current *database.MarketSnapshot) error {
	start := time.Now()

	series, err := e.repo.RangeSnapshots(ctx, time.Now().Add(-chartWindow), time.Now())
	if err != nil {
		return err
	}

	btcPts, ethPts, domPts, altPts := make([]chart.Point, 0, len(series)), make([]chart.Point, 0, len(series)), make([]chart.Point, 0, len(series)), make([]chart.Point, 0, len(series))
	for _, s := range series {
		btcPts = append(btcPts, chart.Point{Time: s.SnapshotTimestamp, Value: s.BTCPrice})
		ethPts = append(ethPts, chart.Point{Time: s.SnapshotTimestamp, Value: s.ETHPrice})
		domPts = append(domPts, chart.Point{Time: s.SnapshotTimestamp, Value: s.BTCDominance})
		altPts = append(altPts, chart.Point{Time: s.SnapshotTimestamp, Value: s.AltStrengthRatio})
	}

	images := make([]ai.Image, 0, 5)
	var chartBTC, chartETH, chartDom, chartAlt, chartCombined []byte

	if png, err := e.charts.RenderSeries("BTC Price", "USD", btcPts); err == nil {
		chartBTC = png
		images = append(images, ai.Image{PNG: png, Label: "btc_price"})
	} else {
		e.log.Warn("btc price chart render failed", "error", err)
	}
	if png, err := e.charts.RenderSeries("ETH Price", "USD", ethPts); err == nil {
		chartETH = png
		images = append(images, ai.Image{PNG: png, Label: "eth_price"})
	} else {
		e.log.Warn("eth price chart render failed", "error", err)
	}
	if png, err := e.charts.RenderSeries("BTC Dominance", "%", domPts); err == nil {
		chartDom = png
		images = append(images, ai.Image{PNG: png, Label: "btc_dominance"})
	} else {
		e.log.Warn("dominance chart render failed", "error", err)
	}
	if png, err := e.charts.RenderSeries("Alt Strength Ratio", "ratio", altPts); err == nil {
		chartAlt = png
		images = append(images, ai.Image{PNG: png, Label: "alt_strength"})
	} else {
		e.log.Warn("alt strength chart render failed", "error", err)
	}
	if png, err := e.charts.RenderCombined("Market Overview", map[string][]chart.Point{
		"btc_price": btcPts, "eth_price": ethPts, "btc_dominance": domPts, "alt_strength": altPts,
	}); err == nil {
		chartCombined = png
		images = append(images, ai.Image{PNG: png, Label: "combined"})
	} else {
		e.log.Warn("combined chart render failed", "error", err)
	}

	systemPrompt := "You are a macro crypto market analyst. Respond only with the requested JSON schema: overall_confidence (0-100), market_regime (BTC_SEASON|ETH_SEASON|ALT_SEASON|TRANSITION|BEAR), trade_permission (NO_TRADE|SELECTIVE|AGGRESSIVE), and btc/eth/alt trend blocks each with trend_direction (UP|DOWN|SIDEWAYS) and trend_strength (0-100)."
	userPrompt := fmt.Sprintf(
		"Current snapshot: BTC $%.2f, ETH $%.2f, BTC dominance %.2f%%, total market cap $%.0f, alt strength ratio %.3f.",
		current.BTCPrice, current.ETHPrice, current.BTCDominance, current.TotalMarketCap, current.AltStrengthRatio,
	)

	raw, err := e.ai.Analyze(ctx, systemPrompt, userPrompt, images)
	if err != nil {
		return err
	}

	parsed, err := parseAIVerdict(raw)
	if err != nil {
		return err
	}

	verdict := parsed.toDatabase()
	verdict.ChartBTCPrice = chartBTC
	verdict.ChartETHPrice = chartETH
	verdict.ChartBTCDominance = chartDom
	verdict.ChartAltStrength = chartAlt
	verdict.ChartCombined = chartCombined
	verdict.ModelUsed = e.cfg.ModelName
	verdict.ProcessingTimeMs = time.Since(start).Milliseconds()

	if err := e.repo.InsertVerdict(ctx, &verdict); err != nil {
		return err
	}

	e.bus.PublishVerdict(string(verdict.MarketRegime), string(verdict.TradePermission), verdict.OverallConfidence)
	return nil
}
