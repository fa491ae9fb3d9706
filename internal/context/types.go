// Package promptctx is the C10 service: it assembles the prompt the
// AI client sees and parses whatever comes back into the canonical
// verdict shape. Named promptctx (not context) so it never shadows
// the standard library's context package at call sites.
package promptctx

// ContextAssessment is the position-assessment block the AI is
// required to return alongside its recommendation. Its
// PreviousPositionStatus value drives the trade lifecycle engine's
// MAINTAIN/MODIFY/CLOSE/REPLACE decision (spec §4.8).
type ContextAssessment struct {
	PreviousPositionStatus string  `json:"previous_position_status"`
	ClosePrice             *float64 `json:"close_price,omitempty"`
	NewTargetPrice         *float64 `json:"new_target_price,omitempty"`
	NewStopLoss            *float64 `json:"new_stop_loss,omitempty"`
	Notes                  string  `json:"notes,omitempty"`
}

// EntryStrategyData is one candidate entry strategy from the model's
// detailed trading analysis.
type EntryStrategyData struct {
	EntryCondition string  `json:"entry_condition"`
	EntryPrice     float64 `json:"entry_price"`
}

// TradingAnalysis is the detailed_analysis.trading_analysis block.
type TradingAnalysis struct {
	EntryStrategies []EntryStrategyData `json:"entry_strategies"`
}

// DetailedAnalysis is the opaque detailed_analysis JSON, typed just
// enough for the lifecycle engine to read the first entry strategy.
type DetailedAnalysis struct {
	TradingAnalysis TradingAnalysis `json:"trading_analysis"`
}

// Recommendation is the core buy/sell/hold call with its price levels.
type Recommendation struct {
	Action      string   `json:"action"`
	EntryPrice  *float64 `json:"entry_price,omitempty"`
	TargetPrice *float64 `json:"target_price,omitempty"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`
	Reasoning   string   `json:"reasoning,omitempty"`
}

// Verdict is the canonical shape an AI response is coerced into,
// whether parsed strictly or recovered via the fallback path.
type Verdict struct {
	Confidence        float64           `json:"confidence"`
	Recommendation    Recommendation    `json:"recommendation"`
	ContextAssessment ContextAssessment `json:"context_assessment"`
	DetailedAnalysis  DetailedAnalysis  `json:"detailed_analysis"`
	AnalysisType      string            `json:"analysis_type,omitempty"`
}
