package promptctx

import (
	"fmt"
	"strings"
	"time"

	"binance-trading-bot/internal/database"
)

// Urgency bands the most recent analysis by how stale it is relative
// to the timeframe's lookback window.
type Urgency string

const (
	UrgencyRecent Urgency = "recent"
	UrgencyActive Urgency = "active"
	UrgencyStale  Urgency = "stale"
)

// lookbackHours is the per-timeframe lookback window (hours) used to
// band a historical analysis's urgency, per spec §4.10.
var lookbackHours = map[string]float64{
	"1m":  1,
	"5m":  2,
	"15m": 4,
	"30m": 8,
	"1h":  12,
	"4h":  24,
	"1D":  72,
	"1W":  168,
}

// LookbackFor returns the lookback window for timeframe, defaulting
// to the 1h band for an unrecognized timeframe string.
func LookbackFor(timeframe string) float64 {
	if h, ok := lookbackHours[timeframe]; ok {
		return h
	}
	return lookbackHours["1h"]
}

// BandUrgency classifies hoursSince against timeframe's lookback.
func BandUrgency(timeframe string, hoursSince float64) Urgency {
	lookback := LookbackFor(timeframe)
	switch {
	case hoursSince < lookback/4:
		return UrgencyRecent
	case hoursSince < lookback:
		return UrgencyActive
	default:
		return UrgencyStale
	}
}

// Prompt is the assembled system/user prompt pair ready for the AI client.
type Prompt struct {
	System string
	User   string
}

// Assemble builds the prompt for one (ticker, timeframe, currentPrice).
// When trade is non-nil and not closed, the active-trade branch is
// used unconditionally and the lookback window is bypassed entirely
// (an active trade is always eligible regardless of its parent
// analysis's age). Otherwise the most recent analysis, if any, is
// included banded by urgency.
func Assemble(ticker, timeframe string, currentPrice float64, trade *database.Trade, recent *database.Analysis, now time.Time) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s\nTimeframe: %s\nCurrent price: %g\n\n", ticker, timeframe, currentPrice)

	switch {
	case trade != nil && !trade.Status.IsClosed():
		age := now.Sub(trade.CreatedAt)
		b.WriteString("Existing position (active trade, lookback bypassed):\n")
		fmt.Fprintf(&b, "- action: %s\n- entry_price: %g\n- target_price: %g\n- stop_loss: %g\n- status: %s\n- age: %s\n",
			trade.Action, trade.EntryPrice, trade.TargetPrice, trade.StopLoss, trade.Status, age.Round(time.Minute))
	case recent != nil:
		hoursSince := now.Sub(recent.AnalysisTimestamp).Hours()
		urgency := BandUrgency(timeframe, hoursSince)
		fmt.Fprintf(&b, "Most recent analysis (%s, %.1fh ago):\n- action: %s\n- confidence: %.2f\n",
			urgency, hoursSince, recent.Action, recent.Confidence)
	default:
		b.WriteString("No prior analysis or position on record for this ticker/timeframe.\n")
	}

	b.WriteString("\nRespond with a position-assessment: one of MAINTAIN, MODIFY, CLOSE, REPLACE (or NEW if there is no existing position), plus your recommendation and confidence.")

	system := "You are a trading chart analyst. Respond only with the requested JSON schema."
	return Prompt{System: system, User: b.String()}
}
