package tradelifecycle

import "testing"

func TestIsBreakout(t *testing.T) {
	tests := []struct {
		entryCondition string
		want           bool
	}{
		{"breakout above resistance at 45000", true},
		{"break above 45000 resistance", true},
		{"break below support at 42000", true},
		{"price breaks through the daily high", true},
		{"pullback to 44000 support", false},
		{"wait for retest of entry zone", false},
		{"", false},
	}

	for _, tt := range tests {
		got := isBreakout(tt.entryCondition)
		if got != tt.want {
			t.Errorf("isBreakout(%q) = %v, want %v", tt.entryCondition, got, tt.want)
		}
	}
}

func TestLockKey(t *testing.T) {
	got := lockKey("BTCUSDT", "1h")
	want := "BTCUSDT:1h"
	if got != want {
		t.Errorf("lockKey() = %q, want %q", got, want)
	}
	if lockKey("BTC", "USDT:1h") == lockKey("BTCUSDT", "1h") {
		t.Errorf("lockKey() collided across differently-split ticker/timeframe pairs")
	}
}
