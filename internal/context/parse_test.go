package promptctx

import "testing"

func TestParseResponseStrictJSON(t *testing.T) {
	raw := `{"confidence":0.75,"recommendation":{"action":"buy","reasoning":"strong support"},"context_assessment":{"previous_position_status":"MAINTAIN"},"analysis_type":"structured"}`

	v, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse() error = %v, want nil", err)
	}
	if v.Confidence != 0.75 {
		t.Errorf("Confidence = %v, want 0.75", v.Confidence)
	}
	if v.Recommendation.Action != "buy" {
		t.Errorf("Action = %q, want %q", v.Recommendation.Action, "buy")
	}
	if v.ContextAssessment.PreviousPositionStatus != "MAINTAIN" {
		t.Errorf("PreviousPositionStatus = %q, want %q", v.ContextAssessment.PreviousPositionStatus, "MAINTAIN")
	}
}

func TestParseResponseFallbackNeverErrors(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantAction string
	}{
		{"bullish free text", "This looks very bullish, I'd buy around $45,000.", "buy"},
		{"bearish free text", "Bearish setup, consider a short entry.", "sell"},
		{"neutral free text", "No clear signal either way right now.", "hold"},
		{"empty string", "", "hold"},
		{"garbage json", "{not valid json at all", "hold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseResponse(tt.raw)
			if err != nil {
				t.Fatalf("ParseResponse() error = %v, want nil (fallback must never fail)", err)
			}
			if v.Recommendation.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", v.Recommendation.Action, tt.wantAction)
			}
			if v.ContextAssessment.PreviousPositionStatus != "UNKNOWN" {
				t.Errorf("PreviousPositionStatus = %q, want %q", v.ContextAssessment.PreviousPositionStatus, "UNKNOWN")
			}
			if v.AnalysisType != "unstructured" {
				t.Errorf("AnalysisType = %q, want %q", v.AnalysisType, "unstructured")
			}
		})
	}
}

func TestFallbackParseExtractsEntryPrice(t *testing.T) {
	v := fallbackParse("Bullish momentum, enter near $45,123.50 with a tight stop.")
	if v.Recommendation.EntryPrice == nil {
		t.Fatal("fallbackParse() EntryPrice = nil, want a parsed price")
	}
	if *v.Recommendation.EntryPrice != 45123.50 {
		t.Errorf("EntryPrice = %v, want 45123.50", *v.Recommendation.EntryPrice)
	}
}
