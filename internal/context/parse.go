package promptctx

import (
	"regexp"
	"strconv"
	"strings"

	"binance-trading-bot/internal/ai"
)

var (
	priceLikePattern = regexp.MustCompile(`\$?\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+\.\d+`)
	bullishPattern   = regexp.MustCompile(`(?i)\bbullish|\bbuy\b|\blong\b`)
	bearishPattern   = regexp.MustCompile(`(?i)\bbearish|\bsell\b|\bshort\b`)
)

// ParseResponse parses an AI completion into a Verdict. The strict
// path unmarshals JSON (falling back to stripping a markdown fence, as
// ai.ParseVerdict already does); if that fails, the fallback path
// extracts sentiment words and price-like numbers from free text and
// returns a minimal, schema-shaped record rather than failing the
// pipeline outright.
func ParseResponse(raw string) (*Verdict, error) {
	var v Verdict
	if err := ai.ParseVerdict(raw, &v); err == nil {
		return &v, nil
	}
	return fallbackParse(raw), nil
}

func fallbackParse(raw string) *Verdict {
	action := "hold"
	switch {
	case bullishPattern.MatchString(raw):
		action = "buy"
	case bearishPattern.MatchString(raw):
		action = "sell"
	}

	var entryPrice *float64
	if matches := priceLikePattern.FindAllString(raw, -1); len(matches) > 0 {
		cleaned := strings.NewReplacer("$", "", ",", "").Replace(matches[0])
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			entryPrice = &f
		}
	}

	return &Verdict{
		Confidence: 0,
		Recommendation: Recommendation{
			Action:     action,
			EntryPrice: entryPrice,
			Reasoning:  strings.TrimSpace(raw),
		},
		ContextAssessment: ContextAssessment{PreviousPositionStatus: "UNKNOWN"},
		AnalysisType:      "unstructured",
	}
}
